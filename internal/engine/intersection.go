package engine

import (
	"maps"
	"slices"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// resolveIntersections places every intersection point from its first two
// parent refs. Refs beyond the second are ignored. Circle/circle points that
// share the same unordered pair of circles are resolved together.
func (p *pass) resolveIntersections() bool {
	changed := false
	groups := map[string][]*construction.Point{}

	for _, id := range p.c.PointIDs() {
		pt := p.c.Points[id]
		if pt.Kind != construction.PointIntersection || len(pt.ParentRefs) < 2 {
			continue
		}
		r1, r2 := pt.ParentRefs[0], pt.ParentRefs[1]

		var ok bool
		switch {
		case r1.Kind == construction.RefLine && r2.Kind == construction.RefLine:
			ok = p.resolveLineLine(pt, r1.ID, r2.ID)
		case r1.Kind == construction.RefLine && r2.Kind == construction.RefCircle:
			ok = p.resolveLineCircle(pt, r1.ID, r2.ID)
		case r1.Kind == construction.RefCircle && r2.Kind == construction.RefLine:
			ok = p.resolveLineCircle(pt, r2.ID, r1.ID)
		case r1.Kind == construction.RefCircle && r2.Kind == construction.RefCircle:
			key := circlePairKey(r1.ID, r2.ID)
			groups[key] = append(groups[key], pt)
		}
		if ok {
			changed = true
		}
	}

	for _, key := range slices.Sorted(maps.Keys(groups)) {
		if p.resolveCircleGroup(groups[key]) {
			changed = true
		}
	}
	return changed
}

func circlePairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// resolveLineLine intersects the two lines through their defining points.
// Parallel lines leave the point where it is.
func (p *pass) resolveLineLine(pt *construction.Point, l1, l2 string) bool {
	a, b, ok1 := p.c.LineSegment(l1)
	c, d, ok2 := p.c.LineSegment(l2)
	if !ok1 || !ok2 {
		Logger().Debug("intersection parent missing", "point", pt.ID)
		return false
	}

	x, ok := geom.IntersectLines(a, b, c, d)
	if !ok {
		return false
	}
	moved := move(pt, x)
	shown := setHidden(pt, false)
	return moved || shown
}

// resolveLineCircle picks the segment/circle intersection nearest the point's
// current position, so a dragged construction keeps following the same
// branch. When the segment misses the circle the point is projected onto the
// line and hidden.
func (p *pass) resolveLineCircle(pt *construction.Point, lineID, circleID string) bool {
	a, b, ok1 := p.c.LineSegment(lineID)
	center, r, ok2 := p.c.CircleGeometry(circleID)
	if !ok1 || !ok2 {
		Logger().Debug("intersection parent missing", "point", pt.ID)
		return false
	}

	candidates := geom.LineCircleIntersections(a, b, center, r, true)
	if len(candidates) == 0 {
		moved := move(pt, geom.ProjectPointOnLine(pt.Pos(), a, b))
		hidden := setHidden(pt, true)
		return moved || hidden
	}

	moved := move(pt, nearest(pt.Pos(), candidates))
	shown := setHidden(pt, false)
	return moved || shown
}

func nearest(from geom.Point, candidates []geom.Point) geom.Point {
	best := candidates[0]
	bestDist := from.Distance(best)
	for _, c := range candidates[1:] {
		if d := from.Distance(c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// resolveCircleGroup places all points defined by the same two circles.
// With two candidates the first two members (by id) take whichever pairing
// moves them least in total, which stops them from swapping under small
// drags. Members past the second are hidden. No candidates hides the whole
// group; a single tangent point is shared by all members.
func (p *pass) resolveCircleGroup(members []*construction.Point) bool {
	refs := members[0].ParentRefs
	c1, r1, ok1 := p.c.CircleGeometry(refs[0].ID)
	c2, r2, ok2 := p.c.CircleGeometry(refs[1].ID)
	if !ok1 || !ok2 {
		Logger().Debug("intersection parent missing", "point", members[0].ID)
		return false
	}

	changed := false
	place := func(pt *construction.Point, target geom.Point) {
		if move(pt, target) {
			changed = true
		}
		if setHidden(pt, false) {
			changed = true
		}
	}
	hide := func(pt *construction.Point) {
		if setHidden(pt, true) {
			changed = true
		}
	}

	candidates := geom.CircleCircleIntersections(c1, r1, c2, r2)
	switch len(candidates) {
	case 0:
		for _, pt := range members {
			hide(pt)
		}
	case 1:
		for _, pt := range members {
			place(pt, candidates[0])
		}
	default:
		if len(members) == 1 {
			place(members[0], nearest(members[0].Pos(), candidates))
			break
		}
		m0, m1 := members[0].Pos(), members[1].Pos()
		straight := m0.Distance(candidates[0]) + m1.Distance(candidates[1])
		crossed := m0.Distance(candidates[1]) + m1.Distance(candidates[0])
		if crossed < straight {
			candidates[0], candidates[1] = candidates[1], candidates[0]
		}
		place(members[0], candidates[0])
		place(members[1], candidates[1])
		for _, pt := range members[2:] {
			hide(pt)
		}
	}
	return changed
}
