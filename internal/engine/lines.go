package engine

import (
	"math"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

const (
	// helperFallbackDistance places a helper point when neither its own
	// distance nor the reference line's length is usable.
	helperFallbackDistance = 120.0

	minHelperDistance = 1e-6
)

// resolveLine resolves a parallel or perpendicular line. visiting holds the
// lines currently being resolved up the call chain; a line found there is
// part of a reference cycle and is skipped as unchanged.
func (p *pass) resolveLine(l *construction.Line, visiting map[string]bool) bool {
	if l == nil || visiting[l.ID] || p.resolved[l.ID] {
		return false
	}
	if l.Kind != construction.LineParallel && l.Kind != construction.LinePerpendicular {
		return false
	}

	visiting[l.ID] = true
	defer delete(visiting, l.ID)

	var changed bool
	switch l.Kind {
	case construction.LineParallel:
		changed = p.resolveParallel(l, visiting)
	case construction.LinePerpendicular:
		changed = p.resolvePerpendicular(l, visiting)
	}
	p.resolved[l.ID] = true
	return changed
}

// referenceDirection resolves the reference line first, then returns one of
// its defining points, its unit direction and its length.
func (p *pass) referenceDirection(refID string, visiting map[string]bool) (origin, u geom.Point, length float64, changed, ok bool) {
	changed = p.resolveLine(p.c.Lines[refID], visiting)

	a, b, ok := p.c.LineSegment(refID)
	if !ok {
		Logger().Debug("reference line missing", "line", refID)
		return origin, u, 0, changed, false
	}
	dir := b.Sub(a)
	length = dir.Length()
	if length < geom.ParallelEpsilon {
		return origin, u, 0, changed, false
	}
	return a, dir.Mul(1 / length), length, changed, true
}

func fallbackDistance(refLength float64) float64 {
	if refLength < minHelperDistance {
		return helperFallbackDistance
	}
	return refLength
}

func (p *pass) resolveParallel(l *construction.Line, visiting map[string]bool) bool {
	m := l.Parallel
	if m == nil {
		return false
	}

	_, u, refLen, changed, ok := p.referenceDirection(m.ReferenceLine, visiting)
	if !ok {
		return changed
	}
	through, okT := p.c.Points[m.ThroughPoint]
	helper, okH := p.c.Points[m.HelperPoint]
	if !okT || !okH {
		return changed
	}

	anchor := through.Pos()
	s := helper.Pos().Sub(anchor).Dot(u)
	if math.Abs(s) < minHelperDistance {
		s = fallbackDistance(refLen)
	}
	if move(helper, anchor.Add(u.Mul(s))) {
		changed = true
	}

	if p.alignPoints(l, through, helper, u) {
		changed = true
	}
	finishConstrainedLine(p.c, l, through.ID, helper.ID)
	return changed
}

func (p *pass) resolvePerpendicular(l *construction.Line, visiting map[string]bool) bool {
	m := l.Perpendicular
	if m == nil {
		return false
	}

	refA, u, refLen, changed, ok := p.referenceDirection(m.ReferenceLine, visiting)
	if !ok {
		return changed
	}
	through, okT := p.c.Points[m.ThroughPoint]
	helper, okH := p.c.Points[m.HelperPoint]
	if !okT || !okH {
		return changed
	}

	anchor := through.Pos()
	n := u.Perp()

	placed := false
	if m.HelperMode == construction.HelperProjection {
		// The helper is the foot of the perpendicular on the reference line.
		foot := geom.ProjectPointOnLine(anchor, refA, refA.Add(u))
		off := foot.Sub(anchor)
		if d := off.Length(); d >= minHelperDistance {
			m.HelperOrientation = sign(off.Dot(n))
			m.HelperDistance = &d
			if move(helper, foot) {
				changed = true
			}
			placed = true
		}
	}

	if !placed {
		if m.HelperDistance == nil || m.HelperOrientation == 0 || p.moved[helper.ID] {
			// The side comes from the reference line; the distance is
			// measured from the through point.
			rel := helper.Pos().Sub(anchor).Dot(n)
			orient := sign(helper.Pos().Sub(refA).Dot(n))
			if orient == 0 {
				orient = sign(rel)
			}
			if orient == 0 {
				orient = 1
			}
			d := math.Abs(rel)
			if d < minHelperDistance {
				d = fallbackDistance(refLen)
			}
			m.HelperOrientation = orient
			m.HelperDistance = &d
		}
		dir := n.Mul(float64(m.HelperOrientation))
		if move(helper, anchor.Add(dir.Mul(*m.HelperDistance))) {
			changed = true
		}
	}

	dir := n.Mul(float64(m.HelperOrientation))
	if p.alignPoints(l, through, helper, dir) {
		changed = true
	}
	finishConstrainedLine(p.c, l, through.ID, helper.ID)
	return changed
}

// alignPoints moves every movable point listed on l, other than the anchor
// and helper, to its current signed distance from the anchor along dir.
// Derived points on the line are left to their own resolvers.
func (p *pass) alignPoints(l *construction.Line, through, helper *construction.Point, dir geom.Point) bool {
	anchor := through.Pos()
	changed := false
	for _, id := range l.Points {
		if id == through.ID || id == helper.ID {
			continue
		}
		pt, ok := p.c.Points[id]
		if !ok || pt.IsDerived() {
			continue
		}
		s := pt.Pos().Sub(anchor).Dot(dir)
		if move(pt, anchor.Add(dir.Mul(s))) {
			changed = true
		}
	}
	return changed
}

// finishConstrainedLine re-adds the anchor and helper to the line, makes
// them its defining points and re-sorts the line.
func finishConstrainedLine(c *construction.Construction, l *construction.Line, through, helper string) {
	for _, id := range []string{through, helper} {
		if !l.Contains(id) {
			l.Points = append(l.Points, id)
		}
	}
	l.DefiningPoints = [2]string{through, helper}
	sortLinePoints(c, l)
}

func sign(v float64) int {
	switch {
	case v > minHelperDistance:
		return 1
	case v < -minHelperDistance:
		return -1
	}
	return 0
}
