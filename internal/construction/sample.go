package construction

import (
	"github.com/inamate/inamate/geometry-go/internal/typeid"
)

// NewSampleConstruction builds a small construction that exercises every
// kind of derived object: an on-line point, a midpoint, parallel and
// perpendicular lines, a bisector, a mirrored point, line/line, line/circle
// and circle/circle intersections, a three-point circle and a locked triangle.
func NewSampleConstruction(id string) *Construction {
	c := New(id, "Sample")

	free := func(x, y float64) string {
		pid := typeid.NewPointID()
		c.Points[pid] = &Point{ID: pid, X: x, Y: y, Kind: PointFree}
		return pid
	}
	derived := func(p *Point) string {
		p.ID = typeid.NewPointID()
		c.Points[p.ID] = p
		return p.ID
	}
	line := func(a, b string, extra ...string) string {
		lid := typeid.NewLineID()
		c.Lines[lid] = &Line{
			ID:             lid,
			Points:         append([]string{a, b}, extra...),
			DefiningPoints: [2]string{a, b},
			Kind:           LineFree,
		}
		return lid
	}
	radiusCircle := func(center, rim string) string {
		cid := typeid.NewCircleID()
		c.Circles[cid] = &Circle{
			ID:          cid,
			Center:      center,
			RadiusPoint: rim,
			Kind:        CircleCenterRadius,
			Points:      []string{rim},
		}
		return cid
	}

	a := free(100, 300)
	b := free(400, 300)
	ab := line(a, b)

	onAB := derived(&Point{X: 250, Y: 300, Kind: PointOnObject, ParentRefs: []ObjectRef{{Kind: RefLine, ID: ab}}})
	c.Lines[ab].Points = append(c.Lines[ab].Points, onAB)

	derived(&Point{X: 250, Y: 300, Kind: PointMidpoint, Midpoint: &MidpointMeta{Parents: [2]string{a, b}}})

	// Parallel to AB through D.
	d := free(200, 100)
	h := free(300, 100)
	par := line(d, h)
	c.Lines[par].Kind = LineParallel
	c.Lines[par].Parallel = &ParallelMeta{ThroughPoint: d, ReferenceLine: ab, HelperPoint: h}

	// Perpendicular to AB through A.
	up := free(100, 200)
	perp := line(a, up)
	c.Lines[perp].Kind = LinePerpendicular
	c.Lines[perp].Perpendicular = &PerpendicularMeta{ThroughPoint: a, ReferenceLine: ab, HelperPoint: up, HelperMode: HelperNormal}

	derived(&Point{
		X: 130, Y: 270, Kind: PointBisect,
		Bisect: &BisectMeta{
			Vertex: a,
			Seg1:   BisectSegment{LineID: ab, A: a, B: b},
			Seg2:   BisectSegment{LineID: perp, A: a, B: up},
		},
	})

	derived(&Point{X: 200, Y: 500, Kind: PointSymmetric, Symmetric: &SymmetricMeta{Source: d, Mirror: ObjectRef{Kind: RefLine, ID: ab}}})

	g := free(150, 420)
	k := free(450, 420)
	gk := line(g, k)

	derived(&Point{X: 100, Y: 420, Kind: PointIntersection, ParentRefs: []ObjectRef{{Kind: RefLine, ID: perp}, {Kind: RefLine, ID: gk}}})

	o1 := free(250, 450)
	c1 := radiusCircle(o1, free(330, 450))
	o2 := free(350, 450)
	c2 := radiusCircle(o2, free(430, 450))

	derived(&Point{X: 320, Y: 420, Kind: PointIntersection, ParentRefs: []ObjectRef{{Kind: RefLine, ID: gk}, {Kind: RefCircle, ID: c1}}})

	x1 := derived(&Point{X: 300, Y: 390, Kind: PointIntersection, ParentRefs: []ObjectRef{{Kind: RefCircle, ID: c1}, {Kind: RefCircle, ID: c2}}})
	x2 := derived(&Point{X: 300, Y: 510, Kind: PointIntersection, ParentRefs: []ObjectRef{{Kind: RefCircle, ID: c2}, {Kind: RefCircle, ID: c1}}})
	c.Circles[c1].Points = append(c.Circles[c1].Points, x1, x2)
	c.Circles[c2].Points = append(c.Circles[c2].Points, x1, x2)

	t1, t2, t3 := free(500, 100), free(600, 200), free(500, 300)
	tc := free(500, 200)
	tcID := typeid.NewCircleID()
	c.Circles[tcID] = &Circle{
		ID:             tcID,
		Center:         tc,
		Kind:           CircleThreePoint,
		DefiningPoints: []string{t1, t2, t3},
		Points:         []string{t1, t2, t3},
	}

	q1, q2, q3 := free(600, 400), free(700, 400), free(650, 330)
	polyID := typeid.NewPolygonID()
	c.Polygons[polyID] = &Polygon{ID: polyID, Points: []string{q1, q2, q3}, Locked: true}

	angID := typeid.NewAngleID()
	c.Angles[angID] = &Angle{ID: angID, Vertex: a, Arm1LineID: ab, Arm2LineID: perp}

	return c
}
