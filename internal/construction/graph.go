package construction

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/inamate/inamate/geometry-go/internal/geom"
)

var (
	ErrDanglingReference = errors.New("dangling reference")
	ErrInconsistentKind  = errors.New("construction kind does not match metadata")
	ErrReferenced        = errors.New("object is referenced by other objects")
	ErrUnknownObject     = errors.New("object not found")
	ErrNullObject        = errors.New("object is null")
)

// PointIDs returns the point ids in sorted order. The solver walks objects
// in this order so that every pass is deterministic.
func (c *Construction) PointIDs() []string {
	return slices.Sorted(maps.Keys(c.Points))
}

func (c *Construction) LineIDs() []string {
	return slices.Sorted(maps.Keys(c.Lines))
}

func (c *Construction) CircleIDs() []string {
	return slices.Sorted(maps.Keys(c.Circles))
}

func (c *Construction) PolygonIDs() []string {
	return slices.Sorted(maps.Keys(c.Polygons))
}

func (c *Construction) AngleIDs() []string {
	return slices.Sorted(maps.Keys(c.Angles))
}

// PointPos returns the coordinates of point id.
func (c *Construction) PointPos(id string) (geom.Point, bool) {
	p, ok := c.Points[id]
	if !ok {
		return geom.Point{}, false
	}
	return p.Pos(), true
}

// LineSegment returns the positions of a line's two defining points.
func (c *Construction) LineSegment(id string) (a, b geom.Point, ok bool) {
	l, ok := c.Lines[id]
	if !ok {
		return a, b, false
	}
	return c.DefiningSegment(l)
}

// DefiningSegment is LineSegment for a line already in hand.
func (c *Construction) DefiningSegment(l *Line) (a, b geom.Point, ok bool) {
	pa, okA := c.Points[l.DefiningPoints[0]]
	pb, okB := c.Points[l.DefiningPoints[1]]
	if !okA || !okB {
		return a, b, false
	}
	return pa.Pos(), pb.Pos(), true
}

// CircleGeometry returns a circle's center and radius. Three-point circles
// measure the radius to their first defining point.
func (c *Construction) CircleGeometry(id string) (center geom.Point, radius float64, ok bool) {
	circle, ok := c.Circles[id]
	if !ok {
		return center, 0, false
	}
	cp, ok := c.Points[circle.Center]
	if !ok {
		return center, 0, false
	}

	rimID := circle.RadiusPoint
	if circle.IsThreePoint() && len(circle.DefiningPoints) > 0 {
		rimID = circle.DefiningPoints[0]
	}
	rim, ok := c.Points[rimID]
	if !ok {
		return center, 0, false
	}
	return cp.Pos(), cp.Pos().Distance(rim.Pos()), true
}

// AngleArms returns the vertex and the two arm positions of an angle. When
// the angle is given by arm lines, each arm point is the defining point of
// that line that is not the vertex.
func (c *Construction) AngleArms(id string) (vertex, arm1, arm2 geom.Point, ok bool) {
	a, ok := c.Angles[id]
	if !ok {
		return
	}
	if vertex, ok = c.PointPos(a.Vertex); !ok {
		return
	}

	armPoint := func(pointID, lineID string) (geom.Point, bool) {
		if pointID != "" {
			return c.PointPos(pointID)
		}
		l, ok := c.Lines[lineID]
		if !ok {
			return geom.Point{}, false
		}
		other := l.DefiningPoints[0]
		if other == a.Vertex {
			other = l.DefiningPoints[1]
		}
		return c.PointPos(other)
	}

	if arm1, ok = armPoint(a.Point1, a.Arm1LineID); !ok {
		return
	}
	arm2, ok = armPoint(a.Point2, a.Arm2LineID)
	return
}

// ReferencesTo lists, sorted, the ids of every object that refers to id.
func (c *Construction) ReferencesTo(id string) []string {
	var refs []string
	add := func(owner string, ids ...string) {
		if slices.Contains(ids, id) && owner != id {
			refs = append(refs, owner)
		}
	}

	for _, p := range c.Points {
		for _, r := range p.ParentRefs {
			add(p.ID, r.ID)
		}
		if m := p.Midpoint; m != nil {
			add(p.ID, m.Parents[0], m.Parents[1], m.ParentLineID)
		}
		if m := p.Bisect; m != nil {
			add(p.ID, m.Vertex, m.Seg1.LineID, m.Seg1.A, m.Seg1.B, m.Seg2.LineID, m.Seg2.A, m.Seg2.B)
		}
		if m := p.Symmetric; m != nil {
			add(p.ID, m.Source, m.Mirror.ID)
		}
	}
	for _, l := range c.Lines {
		add(l.ID, l.Points...)
		add(l.ID, l.DefiningPoints[:]...)
		if m := l.Parallel; m != nil {
			add(l.ID, m.ThroughPoint, m.ReferenceLine, m.HelperPoint)
		}
		if m := l.Perpendicular; m != nil {
			add(l.ID, m.ThroughPoint, m.ReferenceLine, m.HelperPoint)
		}
	}
	for _, ci := range c.Circles {
		add(ci.ID, ci.Center, ci.RadiusPoint)
		add(ci.ID, ci.DefiningPoints...)
		add(ci.ID, ci.Points...)
	}
	for _, a := range c.Angles {
		add(a.ID, a.Vertex, a.Point1, a.Point2, a.Arm1LineID, a.Arm2LineID)
	}
	for _, pg := range c.Polygons {
		add(pg.ID, pg.Points...)
	}

	slices.Sort(refs)
	return slices.Compact(refs)
}

// Validate checks the structural invariants the solver relies on: every
// point's kind matches its metadata, every reference resolves, and each
// line's defining points are listed among its points.
func (c *Construction) Validate() error {
	var errs []error

	point := func(owner, id string) {
		if _, ok := c.Points[id]; !ok {
			errs = append(errs, fmt.Errorf("%s -> point %q: %w", owner, id, ErrDanglingReference))
		}
	}
	line := func(owner, id string) {
		if _, ok := c.Lines[id]; !ok {
			errs = append(errs, fmt.Errorf("%s -> line %q: %w", owner, id, ErrDanglingReference))
		}
	}
	ref := func(owner string, r ObjectRef) {
		switch r.Kind {
		case RefLine:
			line(owner, r.ID)
		case RefCircle:
			if _, ok := c.Circles[r.ID]; !ok {
				errs = append(errs, fmt.Errorf("%s -> circle %q: %w", owner, r.ID, ErrDanglingReference))
			}
		case RefPoint:
			point(owner, r.ID)
		default:
			errs = append(errs, fmt.Errorf("%s: unknown ref kind %q", owner, r.Kind))
		}
	}
	null := func(kind, id string) {
		errs = append(errs, fmt.Errorf("%s %s: %w", kind, id, ErrNullObject))
	}
	kind := func(owner string, ok bool) {
		if !ok {
			errs = append(errs, fmt.Errorf("point %s: %w", owner, ErrInconsistentKind))
		}
	}

	for _, id := range c.PointIDs() {
		p := c.Points[id]
		if p == nil {
			null("point", id)
			continue
		}
		for _, r := range p.ParentRefs {
			ref(id, r)
		}
		switch p.Kind {
		case PointFree, "":
			kind(id, len(p.ParentRefs) == 0 && p.Midpoint == nil && p.Bisect == nil && p.Symmetric == nil)
		case PointOnObject:
			kind(id, len(p.ParentRefs) > 0)
		case PointIntersection:
			kind(id, len(p.ParentRefs) >= 2)
		case PointMidpoint:
			kind(id, p.Midpoint != nil)
			if m := p.Midpoint; m != nil {
				point(id, m.Parents[0])
				point(id, m.Parents[1])
				if m.ParentLineID != "" {
					line(id, m.ParentLineID)
				}
			}
		case PointBisect:
			kind(id, p.Bisect != nil)
			if m := p.Bisect; m != nil {
				point(id, m.Vertex)
				for _, seg := range []BisectSegment{m.Seg1, m.Seg2} {
					if seg.A != "" || seg.B != "" {
						point(id, seg.A)
						point(id, seg.B)
					} else {
						line(id, seg.LineID)
					}
				}
			}
		case PointSymmetric:
			kind(id, p.Symmetric != nil)
			if m := p.Symmetric; m != nil {
				point(id, m.Source)
				ref(id, m.Mirror)
			}
		default:
			errs = append(errs, fmt.Errorf("point %s: unknown construction kind %q", id, p.Kind))
		}
	}

	for _, id := range c.LineIDs() {
		l := c.Lines[id]
		if l == nil {
			null("line", id)
			continue
		}
		for _, d := range l.DefiningPoints {
			point(id, d)
			if !l.Contains(d) {
				errs = append(errs, fmt.Errorf("line %s: defining point %q not in points", id, d))
			}
		}
		for _, p := range l.Points {
			point(id, p)
		}
		switch l.Kind {
		case LineParallel:
			if m := l.Parallel; m == nil {
				errs = append(errs, fmt.Errorf("line %s: %w", id, ErrInconsistentKind))
			} else {
				point(id, m.ThroughPoint)
				point(id, m.HelperPoint)
				line(id, m.ReferenceLine)
			}
		case LinePerpendicular:
			if m := l.Perpendicular; m == nil {
				errs = append(errs, fmt.Errorf("line %s: %w", id, ErrInconsistentKind))
			} else {
				point(id, m.ThroughPoint)
				point(id, m.HelperPoint)
				line(id, m.ReferenceLine)
			}
		}
	}

	for _, id := range c.CircleIDs() {
		ci := c.Circles[id]
		if ci == nil {
			null("circle", id)
			continue
		}
		point(id, ci.Center)
		if ci.IsThreePoint() {
			if len(ci.DefiningPoints) != 3 {
				errs = append(errs, fmt.Errorf("circle %s: three-point circle needs 3 defining points", id))
			}
			for _, d := range ci.DefiningPoints {
				point(id, d)
			}
		} else {
			point(id, ci.RadiusPoint)
		}
		for _, p := range ci.Points {
			point(id, p)
		}
	}

	for _, id := range c.AngleIDs() {
		a := c.Angles[id]
		if a == nil {
			null("angle", id)
			continue
		}
		point(id, a.Vertex)
		if a.Point1 != "" || a.Point2 != "" {
			point(id, a.Point1)
			point(id, a.Point2)
		} else {
			line(id, a.Arm1LineID)
			line(id, a.Arm2LineID)
		}
	}

	for _, id := range c.PolygonIDs() {
		pg := c.Polygons[id]
		if pg == nil {
			null("polygon", id)
			continue
		}
		for _, p := range pg.Points {
			point(id, p)
		}
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy of the construction.
func (c *Construction) Clone() *Construction {
	data, err := json.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("construction: clone: %v", err))
	}
	out := New(c.ID, c.Name)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("construction: clone: %v", err))
	}
	return out
}

// Remove deletes the object with the given id, refusing when anything else
// still refers to it.
func (c *Construction) Remove(id string) error {
	if !c.Has(id) {
		return fmt.Errorf("remove %s: %w", id, ErrUnknownObject)
	}
	if refs := c.ReferencesTo(id); len(refs) > 0 {
		return fmt.Errorf("remove %s (used by %v): %w", id, refs, ErrReferenced)
	}
	delete(c.Points, id)
	delete(c.Lines, id)
	delete(c.Circles, id)
	delete(c.Angles, id)
	delete(c.Polygons, id)
	return nil
}

// Has reports whether any object has the given id.
func (c *Construction) Has(id string) bool {
	_, p := c.Points[id]
	_, l := c.Lines[id]
	_, ci := c.Circles[id]
	_, a := c.Angles[id]
	_, pg := c.Polygons[id]
	return p || l || ci || a || pg
}
