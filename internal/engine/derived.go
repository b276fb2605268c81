package engine

import (
	"math"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

const (
	// bisectCollapse is how close the two leg points, or their midpoint and
	// the vertex, may get before the bisect point is nudged sideways.
	bisectCollapse = 1e-3

	bisectNudgeMin = 2.0
	bisectNudgeMax = 6.0
)

// resolveDerivedPoints runs the midpoint, bisect and symmetric resolvers.
func (p *pass) resolveDerivedPoints() bool {
	changed := false
	for _, id := range p.c.PointIDs() {
		pt := p.c.Points[id]

		var target geom.Point
		var ok bool
		switch pt.Kind {
		case construction.PointMidpoint:
			target, ok = p.midpointTarget(pt)
		case construction.PointBisect:
			target, ok = p.bisectTarget(pt)
		case construction.PointSymmetric:
			target, ok = p.symmetricTarget(pt)
		default:
			continue
		}
		if !ok {
			continue
		}

		if move(pt, constrainToParent(p.c, pt, target)) {
			changed = true
		}
	}
	return changed
}

func (p *pass) midpointTarget(pt *construction.Point) (geom.Point, bool) {
	m := pt.Midpoint
	if m == nil {
		return geom.Point{}, false
	}
	a, okA := p.c.PointPos(m.Parents[0])
	b, okB := p.c.PointPos(m.Parents[1])
	if !okA || !okB {
		Logger().Debug("midpoint parent missing", "point", pt.ID)
		return geom.Point{}, false
	}

	target := a.Midpoint(b)
	if m.ParentLineID != "" {
		if la, lb, ok := p.c.LineSegment(m.ParentLineID); ok && lb.Sub(la).LengthSquared() >= geom.DegenerateEpsilon {
			target = geom.ProjectPointOnLine(target, la, lb)
		}
	}
	return target, true
}

// legEnd returns the endpoint of seg that is not the vertex. Segments given
// only by a line id fall back to that line's defining points.
func (p *pass) legEnd(vertex string, seg construction.BisectSegment) (geom.Point, bool) {
	a, b := seg.A, seg.B
	if a == "" && b == "" {
		l, ok := p.c.Lines[seg.LineID]
		if !ok {
			return geom.Point{}, false
		}
		a, b = l.DefiningPoints[0], l.DefiningPoints[1]
	}
	if a == vertex {
		return p.c.PointPos(b)
	}
	return p.c.PointPos(a)
}

// bisectTarget walks min(epsilon, |leg1|, |leg2|) from the vertex along each
// leg and returns the midpoint of the two resulting points. When that
// collapses onto the vertex (opposite legs) or the legs overlap, the result
// is pushed off the first leg by a few units so the bisector stays visible.
func (p *pass) bisectTarget(pt *construction.Point) (geom.Point, bool) {
	m := pt.Bisect
	if m == nil {
		return geom.Point{}, false
	}
	v, ok := p.c.PointPos(m.Vertex)
	if !ok {
		return geom.Point{}, false
	}
	e1, ok1 := p.legEnd(m.Vertex, m.Seg1)
	e2, ok2 := p.legEnd(m.Vertex, m.Seg2)
	if !ok1 || !ok2 {
		Logger().Debug("bisect leg missing", "point", pt.ID)
		return geom.Point{}, false
	}

	len1, len2 := e1.Distance(v), e2.Distance(v)
	if len1 < geom.ParallelEpsilon || len2 < geom.ParallelEpsilon {
		return geom.Point{}, false
	}
	u1 := e1.Sub(v).Mul(1 / len1)
	u2 := e2.Sub(v).Mul(1 / len2)

	eps := m.Epsilon
	if eps <= 0 {
		eps = p.opts.BisectEpsilon
	}
	d := math.Min(eps, math.Min(len1, len2))

	p1 := v.Add(u1.Mul(d))
	p2 := v.Add(u2.Mul(d))
	target := p1.Midpoint(p2)

	if p1.Distance(p2) < bisectCollapse || target.Distance(v) < bisectCollapse {
		nudge := math.Max(bisectNudgeMin, math.Min(bisectNudgeMax, d*0.1))
		target = target.Add(u1.Perp().Mul(nudge))
	}
	return target, true
}

func (p *pass) symmetricTarget(pt *construction.Point) (geom.Point, bool) {
	m := pt.Symmetric
	if m == nil {
		return geom.Point{}, false
	}
	src, ok := p.c.PointPos(m.Source)
	if !ok {
		return geom.Point{}, false
	}

	switch m.Mirror.Kind {
	case construction.RefPoint:
		c, ok := p.c.PointPos(m.Mirror.ID)
		if !ok {
			return geom.Point{}, false
		}
		return geom.ReflectAcrossPoint(src, c), true
	case construction.RefLine:
		a, b, ok := p.c.LineSegment(m.Mirror.ID)
		if !ok {
			return geom.Point{}, false
		}
		return geom.ReflectAcrossLine(src, a, b)
	}
	return geom.Point{}, false
}
