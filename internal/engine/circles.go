package engine

import (
	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// resolveCircle recomputes a three-point circle's center, then re-places
// every non-defining movable point listed on the circle at its current polar
// angle and the circle's current radius.
//
// A three-point circle whose defining points are collinear keeps its last
// center; that is a passing state while dragging, not an error.
func (p *pass) resolveCircle(ci *construction.Circle) bool {
	changed := false

	if ci.IsThreePoint() && len(ci.DefiningPoints) == 3 {
		if p.resolveCircumcenter(ci) {
			changed = true
		}
	}

	center, r, ok := p.c.CircleGeometry(ci.ID)
	if !ok {
		Logger().Debug("circle geometry unresolved", "circle", ci.ID)
		return changed
	}

	for _, id := range ci.Points {
		if ci.IsDefining(id) {
			continue
		}
		pt, ok := p.c.Points[id]
		if !ok || pt.IsDerived() {
			continue
		}
		if move(pt, onCircle(center, r, pt.Pos())) {
			changed = true
		}
	}
	return changed
}

func (p *pass) resolveCircumcenter(ci *construction.Circle) bool {
	var pts [3]geom.Point
	for i, id := range ci.DefiningPoints {
		pos, ok := p.c.PointPos(id)
		if !ok {
			return false
		}
		pts[i] = pos
	}

	center, ok := geom.Circumcenter(pts[0], pts[1], pts[2])
	if !ok {
		return false
	}
	cp, ok := p.c.Points[ci.Center]
	if !ok {
		return false
	}
	return move(cp, center)
}
