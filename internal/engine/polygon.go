package engine

import (
	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// resolvePolygonLock keeps a locked polygon similar to the shape it had when
// it was locked. The first pass that sees the lock records every vertex in
// the basis of the first edge; later passes rebuild the movable non-base
// vertices from the current base edge. Unlocking drops the record so the
// next lock captures the shape as it is then.
func (p *pass) resolvePolygonLock(pg *construction.Polygon) bool {
	if !pg.Locked {
		pg.LockRef = nil
		return false
	}
	if len(pg.Points) < 3 {
		return false
	}
	if pg.LockRef == nil {
		pg.LockRef = captureLockRef(p.c, pg)
		return false
	}

	ref := pg.LockRef
	a, okA := p.c.PointPos(ref.Base[0])
	b, okB := p.c.PointPos(ref.Base[1])
	if !okA || !okB {
		return false
	}
	edge := b.Sub(a)
	if edge.LengthSquared() < geom.DegenerateEpsilon {
		return false
	}
	normal := edge.Perp()

	changed := false
	for _, coord := range ref.Coords {
		if coord.ID == ref.Base[0] || coord.ID == ref.Base[1] {
			continue
		}
		pt, ok := p.c.Points[coord.ID]
		if !ok || !pt.IsMovable() {
			continue
		}
		target := a.Add(edge.Mul(coord.U)).Add(normal.Mul(coord.V))
		if move(pt, target) {
			changed = true
		}
	}
	return changed
}

// captureLockRef expresses every vertex as (u, v) with
// P = A + u*(B-A) + v*perp(B-A), where AB is the polygon's first edge.
// It returns nil when the edge is degenerate or a vertex is missing.
func captureLockRef(c *construction.Construction, pg *construction.Polygon) *construction.LockRef {
	base := [2]string{pg.Points[0], pg.Points[1]}
	a, okA := c.PointPos(base[0])
	b, okB := c.PointPos(base[1])
	if !okA || !okB {
		return nil
	}
	edge := b.Sub(a)
	l2 := edge.LengthSquared()
	if l2 < geom.DegenerateEpsilon {
		return nil
	}
	normal := edge.Perp()

	ref := &construction.LockRef{Base: base}
	for _, id := range pg.Points {
		pos, ok := c.PointPos(id)
		if !ok {
			return nil
		}
		d := pos.Sub(a)
		ref.Coords = append(ref.Coords, construction.LockCoord{
			ID: id,
			U:  d.Dot(edge) / l2,
			V:  d.Dot(normal) / l2,
		})
	}
	return ref
}
