package engine_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/engine"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

const tol = 1e-6

func newConstruction() *construction.Construction {
	return construction.New("cons_test", "test")
}

func addFree(c *construction.Construction, id string, x, y float64) {
	c.Points[id] = &construction.Point{ID: id, X: x, Y: y, Kind: construction.PointFree}
}

func addLine(c *construction.Construction, id, a, b string) *construction.Line {
	l := &construction.Line{
		ID:             id,
		Points:         []string{a, b},
		DefiningPoints: [2]string{a, b},
		Kind:           construction.LineFree,
	}
	c.Lines[id] = l
	return l
}

func addOnLine(c *construction.Construction, id string, x, y float64, lineID string) {
	c.Points[id] = &construction.Point{
		ID: id, X: x, Y: y, Kind: construction.PointOnObject,
		ParentRefs: []construction.ObjectRef{{Kind: construction.RefLine, ID: lineID}},
	}
	c.Lines[lineID].Points = append(c.Lines[lineID].Points, id)
}

func addRadiusCircle(c *construction.Construction, id, center, rim string) {
	c.Circles[id] = &construction.Circle{
		ID: id, Center: center, RadiusPoint: rim,
		Kind: construction.CircleCenterRadius, Points: []string{rim},
	}
}

func addIntersection(c *construction.Construction, id string, x, y float64, r1, r2 construction.ObjectRef) {
	c.Points[id] = &construction.Point{
		ID: id, X: x, Y: y, Kind: construction.PointIntersection,
		ParentRefs: []construction.ObjectRef{r1, r2},
	}
}

func lineRef(id string) construction.ObjectRef {
	return construction.ObjectRef{Kind: construction.RefLine, ID: id}
}

func circleRef(id string) construction.ObjectRef {
	return construction.ObjectRef{Kind: construction.RefCircle, ID: id}
}

func requirePos(t *testing.T, c *construction.Construction, id string, x, y float64) {
	t.Helper()
	pos, ok := c.PointPos(id)
	require.True(t, ok, "point %s", id)
	require.InDelta(t, x, pos.X, tol, "%s.x", id)
	require.InDelta(t, y, pos.Y, tol, "%s.y", id)
}

func pos(t *testing.T, c *construction.Construction, id string) geom.Point {
	t.Helper()
	p, ok := c.PointPos(id)
	require.True(t, ok, "point %s", id)
	return p
}

func TestRecomputeIsIdempotent(t *testing.T) {
	c := construction.NewSampleConstruction("cons_sample")
	solver := engine.NewSolver(engine.DefaultOptions())

	var res engine.Result
	for i := 0; i < 5 && !res.Converged; i++ {
		res = solver.RecomputeAll(c, nil)
	}
	require.True(t, res.Converged)

	before, err := json.Marshal(c)
	require.NoError(t, err)

	res = solver.RecomputeAll(c, nil)
	require.True(t, res.Converged)
	require.Equal(t, 1, res.Passes)

	after, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, string(before), string(after))
}

func TestRecomputePassLimit(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}},
	}

	res := engine.RecomputeAll(c, nil, 1)
	require.Equal(t, 1, res.Passes)
	require.False(t, res.Converged)
	requirePos(t, c, "M", 5, 0)

	res = engine.RecomputeAll(c, nil, 0)
	require.True(t, res.Converged)
	require.Equal(t, 1, res.Passes)
}

func TestDragShrinksSegment(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addOnLine(c, "C", 5, 0, "AB")

	_, err := engine.MovePointAndRecompute(c, "B", geom.Pt(4, 0))
	require.NoError(t, err)

	requirePos(t, c, "B", 4, 0)
	requirePos(t, c, "C", 2, 0)
	require.Equal(t, []string{"A", "C", "B"}, c.Lines["AB"].Points)
}

func TestMovingOnObjectPointSnapsToLine(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addOnLine(c, "C", 5, 0, "AB")

	_, err := engine.MovePointAndRecompute(c, "C", geom.Pt(12, 3))
	require.NoError(t, err)
	requirePos(t, c, "C", 12, 0)
	require.Equal(t, []string{"A", "B", "C"}, c.Lines["AB"].Points)
}

func TestMidpointFollowsParents(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}},
	}

	_, err := engine.MovePointAndRecompute(c, "B", geom.Pt(6, 8))
	require.NoError(t, err)
	requirePos(t, c, "M", 3, 4)
}

func TestMidpointProjectedOntoParentLine(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 10)
	addFree(c, "P", 0, 5)
	addFree(c, "Q", 10, 5)
	addLine(c, "PQ", "P", "Q")
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}, ParentLineID: "PQ"},
	}
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "M", 5, 5)

	_, err := engine.MovePointAndRecompute(c, "B", geom.Pt(10, 0))
	require.NoError(t, err)
	requirePos(t, c, "M", 5, 5)
}

func TestLineLineIntersection(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addFree(c, "C", 5, -5)
	addFree(c, "D", 5, 5)
	addLine(c, "AB", "A", "B")
	addLine(c, "CD", "C", "D")
	addIntersection(c, "X", 0, 0, lineRef("AB"), lineRef("CD"))

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 5, 0)

	_, err := engine.MovePointAndRecompute(c, "D", geom.Pt(7, 5))
	require.NoError(t, err)
	requirePos(t, c, "X", 6, 0)

	// Parallel lines leave the point where it was.
	_, err = engine.MovePointAndRecompute(c, "D", geom.Pt(15, -5))
	require.NoError(t, err)
	requirePos(t, c, "X", 6, 0)
	require.False(t, c.Points["X"].Hidden)
}

func TestLineCircleIntersectionHidesWhenMissed(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", -20, 10)
	addFree(c, "B", 20, 10)
	addLine(c, "AB", "A", "B")
	addFree(c, "O", 0, 0)
	addFree(c, "R", 5, 0)
	addRadiusCircle(c, "circ", "O", "R")
	addIntersection(c, "X", 3, 12, lineRef("AB"), circleRef("circ"))

	engine.RecomputeAll(c, nil, 0)
	require.True(t, c.Points["X"].Hidden)
	requirePos(t, c, "X", 3, 10)

	_, err := engine.MovePointAndRecompute(c, "R", geom.Pt(20, 0))
	require.NoError(t, err)
	require.False(t, c.Points["X"].Hidden)
	requirePos(t, c, "X", math.Sqrt(300), 10)
}

func TestLineCircleIntersectionEitherRefOrder(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", -20, 0)
	addFree(c, "B", 20, 0)
	addLine(c, "AB", "A", "B")
	addFree(c, "O", 0, 0)
	addFree(c, "R", 0, 5)
	addRadiusCircle(c, "circ", "O", "R")
	addIntersection(c, "X", -4, 1, circleRef("circ"), lineRef("AB"))

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", -5, 0)
}

func TestCircleCircleTangency(t *testing.T) {
	c := newConstruction()
	addFree(c, "O1", 0, 0)
	addFree(c, "R1", 5, 0)
	addFree(c, "O2", 10, 0)
	addFree(c, "R2", 15, 0)
	addRadiusCircle(c, "c1", "O1", "R1")
	addRadiusCircle(c, "c2", "O2", "R2")
	addIntersection(c, "X1", 5, 3, circleRef("c1"), circleRef("c2"))
	addIntersection(c, "X2", 5, -3, circleRef("c2"), circleRef("c1"))
	c.Points["X2"].Hidden = true

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X1", 5, 0)
	requirePos(t, c, "X2", 5, 0)
	require.False(t, c.Points["X1"].Hidden)
	require.False(t, c.Points["X2"].Hidden)
}

func TestCircleCircleKeepsBranches(t *testing.T) {
	c := newConstruction()
	addFree(c, "O1", 0, 0)
	addFree(c, "R1", 5, 0)
	addFree(c, "O2", 8, 0)
	addFree(c, "R2", 13, 0)
	addRadiusCircle(c, "c1", "O1", "R1")
	addRadiusCircle(c, "c2", "O2", "R2")
	// "a" sits below the axis and "b" above; assignment must respect that.
	addIntersection(c, "a", 4, -2, circleRef("c1"), circleRef("c2"))
	addIntersection(c, "b", 4, 2, circleRef("c1"), circleRef("c2"))

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "a", 4, -3)
	requirePos(t, c, "b", 4, 3)

	// Pull the circles apart: both points hide and keep their positions.
	_, err := engine.MovePointAndRecompute(c, "O2", geom.Pt(30, 0))
	require.NoError(t, err)
	require.True(t, c.Points["a"].Hidden)
	require.True(t, c.Points["b"].Hidden)
	requirePos(t, c, "a", 4, -3)

	_, err = engine.MovePointAndRecompute(c, "O2", geom.Pt(8, 0))
	require.NoError(t, err)
	require.False(t, c.Points["a"].Hidden)
	requirePos(t, c, "a", 4, -3)
	requirePos(t, c, "b", 4, 3)
}

func TestCircleCircleGroupHidesExtraMembers(t *testing.T) {
	c := newConstruction()
	addFree(c, "O1", 0, 0)
	addFree(c, "R1", 5, 0)
	addFree(c, "O2", 8, 0)
	addFree(c, "R2", 13, 0)
	addRadiusCircle(c, "c1", "O1", "R1")
	addRadiusCircle(c, "c2", "O2", "R2")
	addIntersection(c, "a", 4, -2, circleRef("c1"), circleRef("c2"))
	addIntersection(c, "b", 4, 2, circleRef("c1"), circleRef("c2"))
	addIntersection(c, "z", 4, 0.5, circleRef("c2"), circleRef("c1"))

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "a", 4, -3)
	requirePos(t, c, "b", 4, 3)
	require.False(t, c.Points["a"].Hidden)
	require.False(t, c.Points["b"].Hidden)
	require.True(t, c.Points["z"].Hidden)
	requirePos(t, c, "z", 4, 0.5)

	// Shift the second circle until the circles touch: every member shares
	// the tangent point.
	engine.MovePointsByDeltaAndRecompute(c, map[string]geom.Point{
		"O2": geom.Pt(8, 0),
		"R2": geom.Pt(13, 0),
	}, geom.Pt(2, 0), engine.MoveOptions{})
	for _, id := range []string{"a", "b", "z"} {
		requirePos(t, c, id, 5, 0)
		require.False(t, c.Points[id].Hidden, id)
	}
}

func TestParallelLine(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addFree(c, "T", 0, 5)
	addFree(c, "H", 4, 5)
	addFree(c, "P", 2, 5)
	l := addLine(c, "par", "T", "H")
	l.Points = append(l.Points, "P")
	l.Kind = construction.LineParallel
	l.Parallel = &construction.ParallelMeta{ThroughPoint: "T", ReferenceLine: "AB", HelperPoint: "H"}

	_, err := engine.MovePointAndRecompute(c, "B", geom.Pt(10, 10))
	require.NoError(t, err)

	ref := pos(t, c, "B").Sub(pos(t, c, "A"))
	requirePos(t, c, "H", 2, 7)
	require.InDelta(t, 0, pos(t, c, "P").Sub(pos(t, c, "T")).Cross(ref), tol)
	require.Equal(t, [2]string{"T", "H"}, l.DefiningPoints)
}

func TestParallelLineDegenerateReference(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 1, 1)
	addFree(c, "B", 1, 1)
	addLine(c, "AB", "A", "B")
	addFree(c, "T", 0, 5)
	addFree(c, "H", 10, 5)
	l := addLine(c, "par", "T", "H")
	l.Kind = construction.LineParallel
	l.Parallel = &construction.ParallelMeta{ThroughPoint: "T", ReferenceLine: "AB", HelperPoint: "H"}

	res := engine.RecomputeAll(c, nil, 0)
	require.True(t, res.Converged)
	requirePos(t, c, "H", 10, 5)
}

func TestPerpendicularNormalMode(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addFree(c, "T", 3, 2)
	addFree(c, "H", 3, 7)
	l := addLine(c, "perp", "T", "H")
	l.Kind = construction.LinePerpendicular
	l.Perpendicular = &construction.PerpendicularMeta{
		ThroughPoint: "T", ReferenceLine: "AB", HelperPoint: "H",
		HelperMode: construction.HelperNormal,
	}

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "H", 3, 7)
	require.NotNil(t, l.Perpendicular.HelperDistance)
	require.InDelta(t, 5, *l.Perpendicular.HelperDistance, tol)
	require.Equal(t, 1, l.Perpendicular.HelperOrientation)

	_, err := engine.MovePointAndRecompute(c, "B", geom.Pt(10, 10))
	require.NoError(t, err)

	ref := pos(t, c, "B").Sub(pos(t, c, "A"))
	arm := pos(t, c, "H").Sub(pos(t, c, "T"))
	require.InDelta(t, 0, arm.Dot(ref), tol)
	require.InDelta(t, 5, arm.Length(), tol)
	require.Greater(t, ref.Cross(arm), 0.0, "helper stays on the left normal side")

	// Dragging the helper re-measures its distance.
	_, err = engine.MovePointAndRecompute(c, "H", pos(t, c, "T").Add(geom.Pt(2, -2)))
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(8), *l.Perpendicular.HelperDistance, tol)
	require.Equal(t, -1, l.Perpendicular.HelperOrientation)
}

func TestPerpendicularSideFollowsReferenceLine(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addFree(c, "T", 3, 2)
	addFree(c, "H", 3, 1)
	l := addLine(c, "perp", "T", "H")
	l.Kind = construction.LinePerpendicular
	l.Perpendicular = &construction.PerpendicularMeta{
		ThroughPoint: "T", ReferenceLine: "AB", HelperPoint: "H",
		HelperMode: construction.HelperNormal,
	}

	// H sits below T but above AB: the side is taken from AB.
	engine.RecomputeAll(c, nil, 0)
	require.Equal(t, 1, l.Perpendicular.HelperOrientation)
	require.InDelta(t, 1, *l.Perpendicular.HelperDistance, tol)
	requirePos(t, c, "H", 3, 3)

	// Helper on AB itself falls back to its side of T.
	_, err := engine.MovePointAndRecompute(c, "H", geom.Pt(3, 0))
	require.NoError(t, err)
	require.Equal(t, -1, l.Perpendicular.HelperOrientation)
	require.InDelta(t, 2, *l.Perpendicular.HelperDistance, tol)
	requirePos(t, c, "H", 3, 0)
}

func TestPerpendicularProjectionMode(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addFree(c, "T", 3, 5)
	addFree(c, "H", 0, 0)
	l := addLine(c, "perp", "T", "H")
	l.Kind = construction.LinePerpendicular
	l.Perpendicular = &construction.PerpendicularMeta{
		ThroughPoint: "T", ReferenceLine: "AB", HelperPoint: "H",
		HelperMode: construction.HelperProjection,
	}

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "H", 3, 0)

	_, err := engine.MovePointAndRecompute(c, "T", geom.Pt(6, 5))
	require.NoError(t, err)
	requirePos(t, c, "H", 6, 0)
}

func TestReferenceCycleTerminates(t *testing.T) {
	c := newConstruction()
	addFree(c, "P1", 0, 0)
	addFree(c, "H1", 10, 0)
	addFree(c, "P2", 0, 5)
	addFree(c, "H2", 10, 5)
	l1 := addLine(c, "L1", "P1", "H1")
	l1.Kind = construction.LineParallel
	l1.Parallel = &construction.ParallelMeta{ThroughPoint: "P1", ReferenceLine: "L2", HelperPoint: "H1"}
	l2 := addLine(c, "L2", "P2", "H2")
	l2.Kind = construction.LineParallel
	l2.Parallel = &construction.ParallelMeta{ThroughPoint: "P2", ReferenceLine: "L1", HelperPoint: "H2"}

	res := engine.RecomputeAll(c, nil, 0)
	require.LessOrEqual(t, res.Passes, engine.DefaultMaxPasses)
	requirePos(t, c, "H1", 10, 0)
	requirePos(t, c, "H2", 10, 5)
}

func TestThreePointCircle(t *testing.T) {
	c := newConstruction()
	addFree(c, "D1", 5, 0)
	addFree(c, "D2", 0, 5)
	addFree(c, "D3", -5, 0)
	addFree(c, "O", 1, 1)
	c.Circles["tc"] = &construction.Circle{
		ID: "tc", Center: "O", Kind: construction.CircleThreePoint,
		DefiningPoints: []string{"D1", "D2", "D3"},
		Points:         []string{"D1", "D2", "D3"},
	}

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "O", 0, 0)
	_, r, ok := c.CircleGeometry("tc")
	require.True(t, ok)
	require.InDelta(t, 5, r, tol)

	// Collinear defining points keep the last center.
	_, err := engine.MovePointAndRecompute(c, "D2", geom.Pt(0, 0))
	require.NoError(t, err)
	requirePos(t, c, "O", 0, 0)
}

func TestCirclePointsFollowRadius(t *testing.T) {
	c := newConstruction()
	addFree(c, "O", 0, 0)
	addFree(c, "R", 5, 0)
	addRadiusCircle(c, "circ", "O", "R")
	c.Points["P"] = &construction.Point{
		ID: "P", X: 0, Y: 5, Kind: construction.PointOnObject,
		ParentRefs: []construction.ObjectRef{circleRef("circ")},
	}
	c.Circles["circ"].Points = append(c.Circles["circ"].Points, "P")

	_, err := engine.MovePointAndRecompute(c, "R", geom.Pt(10, 0))
	require.NoError(t, err)
	requirePos(t, c, "P", 0, 10)

	_, err = engine.MovePointAndRecompute(c, "P", geom.Pt(3, 4))
	require.NoError(t, err)
	requirePos(t, c, "P", 6, 8)
}

func bisectConstruction(ax, ay, bx, by float64) *construction.Construction {
	c := newConstruction()
	addFree(c, "V", 0, 0)
	addFree(c, "A", ax, ay)
	addFree(c, "B", bx, by)
	addLine(c, "VA", "V", "A")
	addLine(c, "VB", "V", "B")
	c.Points["X"] = &construction.Point{
		ID: "X", Kind: construction.PointBisect,
		Bisect: &construction.BisectMeta{
			Vertex: "V",
			Seg1:   construction.BisectSegment{LineID: "VA", A: "V", B: "A"},
			Seg2:   construction.BisectSegment{LineID: "VB", A: "B", B: "V"},
		},
	}
	return c
}

func TestBisectPoint(t *testing.T) {
	c := bisectConstruction(100, 0, 0, 100)
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 24, 24)

	// A short leg limits how far along the legs the point sits.
	c = bisectConstruction(10, 0, 0, 100)
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 5, 5)

	// Legs given only by line id.
	c = bisectConstruction(100, 0, 0, 100)
	c.Points["X"].Bisect.Seg1 = construction.BisectSegment{LineID: "VA"}
	c.Points["X"].Bisect.Seg2 = construction.BisectSegment{LineID: "VB"}
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 24, 24)
}

func TestBisectPointNudgedOnStraightAngle(t *testing.T) {
	c := bisectConstruction(100, 0, -100, 0)
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 0, 4.8)

	c = bisectConstruction(100, 0, 100, 0)
	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "X", 48, 4.8)

	solver := engine.NewSolver(engine.Options{BisectEpsilon: 10})
	c = bisectConstruction(100, 0, -100, 0)
	solver.RecomputeAll(c, nil)
	requirePos(t, c, "X", 0, 2)
}

func TestSymmetricPoint(t *testing.T) {
	c := newConstruction()
	addFree(c, "P", 1, 2)
	addFree(c, "C", 3, 3)
	addFree(c, "A", -5, 0)
	addFree(c, "B", 5, 0)
	addLine(c, "AB", "A", "B")
	c.Points["SP"] = &construction.Point{
		ID: "SP", Kind: construction.PointSymmetric,
		Symmetric: &construction.SymmetricMeta{Source: "P", Mirror: construction.ObjectRef{Kind: construction.RefPoint, ID: "C"}},
	}
	c.Points["SL"] = &construction.Point{
		ID: "SL", Kind: construction.PointSymmetric,
		Symmetric: &construction.SymmetricMeta{Source: "P", Mirror: lineRef("AB")},
	}

	engine.RecomputeAll(c, nil, 0)
	requirePos(t, c, "SP", 5, 4)
	requirePos(t, c, "SL", 1, -2)

	_, err := engine.MovePointAndRecompute(c, "P", geom.Pt(4, 7))
	require.NoError(t, err)
	requirePos(t, c, "SP", 2, -1)
	requirePos(t, c, "SL", 4, -7)
}

func lockedTriangle() *construction.Construction {
	c := newConstruction()
	addFree(c, "P1", 0, 0)
	addFree(c, "P2", 10, 0)
	addFree(c, "P3", 5, 5)
	c.Polygons["tri"] = &construction.Polygon{ID: "tri", Points: []string{"P1", "P2", "P3"}, Locked: true}
	return c
}

func TestPolygonLockKeepsShape(t *testing.T) {
	c := lockedTriangle()
	engine.RecomputeAll(c, nil, 0)
	ref := c.Polygons["tri"].LockRef
	require.NotNil(t, ref)
	require.Equal(t, [2]string{"P1", "P2"}, ref.Base)
	require.InDelta(t, 0.5, ref.Coords[2].U, tol)
	require.InDelta(t, 0.5, ref.Coords[2].V, tol)

	_, err := engine.MovePointAndRecompute(c, "P2", geom.Pt(20, 0))
	require.NoError(t, err)
	requirePos(t, c, "P3", 10, 10)

	_, err = engine.MovePointAndRecompute(c, "P2", geom.Pt(0, 10))
	require.NoError(t, err)
	requirePos(t, c, "P3", -5, 5)
}

func TestPolygonLockUnderTransform(t *testing.T) {
	c := lockedTriangle()
	engine.RecomputeAll(c, nil, 0)

	engine.TransformPointsAndRecompute(c, engine.Transform{
		Center:  geom.Pt(0, 0),
		Vectors: map[string]geom.Point{"P1": {X: 0, Y: 0}, "P2": {X: 10, Y: 0}},
		Scale:   2,
	})
	requirePos(t, c, "P2", 20, 0)
	requirePos(t, c, "P3", 10, 10)
}

func TestPolygonUnlockClearsRecord(t *testing.T) {
	c := lockedTriangle()
	engine.RecomputeAll(c, nil, 0)
	require.NotNil(t, c.Polygons["tri"].LockRef)

	c.Polygons["tri"].Locked = false
	engine.RecomputeAll(c, nil, 0)
	require.Nil(t, c.Polygons["tri"].LockRef)

	_, err := engine.MovePointAndRecompute(c, "P2", geom.Pt(20, 0))
	require.NoError(t, err)
	requirePos(t, c, "P3", 5, 5)
}

func TestMoveErrors(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}},
	}

	_, err := engine.MovePointAndRecompute(c, "M", geom.Pt(1, 1))
	require.ErrorIs(t, err, engine.ErrNotMovable)

	_, err = engine.MovePointAndRecompute(c, "nope", geom.Pt(1, 1))
	require.ErrorIs(t, err, engine.ErrPointNotFound)
}

func TestMovePointsByDelta(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 0, 0)
	addFree(c, "B", 10, 0)
	addLine(c, "AB", "A", "B")
	addOnLine(c, "C", 5, 0, "AB")
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}},
	}

	originals := map[string]geom.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 10, Y: 0},
		"C": {X: 5, Y: 0},
		"M": {X: 5, Y: 0}, // skipped: not movable
	}
	res := engine.MovePointsByDeltaAndRecompute(c, originals, geom.Pt(0, 5), engine.MoveOptions{})
	require.True(t, res.Converged)
	requirePos(t, c, "A", 0, 5)
	requirePos(t, c, "B", 10, 5)
	requirePos(t, c, "C", 5, 5)
	requirePos(t, c, "M", 5, 5)
}

func TestTransformRotates(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 10, 0)
	addFree(c, "B", 0, 0)

	engine.TransformPointsAndRecompute(c, engine.Transform{
		Center:   geom.Pt(0, 0),
		Vectors:  map[string]geom.Point{"A": {X: 10, Y: 0}},
		Rotation: math.Pi / 2,
	})
	requirePos(t, c, "A", 0, 10)
	requirePos(t, c, "B", 0, 0)
}

func TestTransformZeroScaleKeepsSize(t *testing.T) {
	c := newConstruction()
	addFree(c, "A", 10, 0)

	engine.TransformPointsAndRecompute(c, engine.Transform{
		Center:   geom.Pt(0, 0),
		Vectors:  map[string]geom.Point{"A": {X: 10, Y: 0}},
		Scale:    0,
		Rotation: math.Pi,
	})
	requirePos(t, c, "A", -10, 0)
}

func TestSampleConverges(t *testing.T) {
	c := construction.NewSampleConstruction("cons_sample")
	require.NoError(t, c.Validate())

	var res engine.Result
	for i := 0; i < 5 && !res.Converged; i++ {
		res = engine.RecomputeAll(c, nil, 0)
	}
	require.True(t, res.Converged)
	require.NoError(t, c.Validate())
}
