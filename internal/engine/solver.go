package engine

import (
	"math"
	"slices"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

const (
	// DefaultMaxPasses bounds the fixed-point loop.
	DefaultMaxPasses = 3

	// DefaultBisectEpsilon is how far along the bisector a bisect point sits
	// when both legs are at least that long.
	DefaultBisectEpsilon = 48.0

	// changeEpsilon is the smallest coordinate delta that counts as a change.
	changeEpsilon = 1e-6
)

// Options tunes the solver.
type Options struct {
	MaxPasses     int
	BisectEpsilon float64
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxPasses:     DefaultMaxPasses,
		BisectEpsilon: DefaultBisectEpsilon,
	}
}

// Solver recomputes derived objects of a construction until nothing moves.
// It holds no per-construction state and may be shared, but a single
// construction must only be edited by one caller at a time.
type Solver struct {
	opts Options
}

// NewSolver returns a solver. Zero fields in opts take their defaults.
func NewSolver(opts Options) *Solver {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	if opts.BisectEpsilon <= 0 {
		opts.BisectEpsilon = DefaultBisectEpsilon
	}
	return &Solver{opts: opts}
}

// Options returns the solver's effective options.
func (s *Solver) Options() Options {
	return s.opts
}

// Result describes one recompute.
type Result struct {
	Passes    int  `json:"passes"`
	Converged bool `json:"converged"`
}

// RecomputeAll runs the fixed-point loop on c with a default solver limited
// to maxPasses (the default when maxPasses <= 0).
func RecomputeAll(c *construction.Construction, moved []string, maxPasses int) Result {
	opts := DefaultOptions()
	if maxPasses > 0 {
		opts.MaxPasses = maxPasses
	}
	return NewSolver(opts).RecomputeAll(c, moved)
}

// RecomputeAll repeats the resolver sequence until a pass changes nothing or
// the pass limit is reached, in which case the last state is kept.
//
// moved lists the points the user just dragged. It only affects whether a
// perpendicular line re-measures its helper distance.
func (s *Solver) RecomputeAll(c *construction.Construction, moved []string) Result {
	movedSet := make(map[string]bool, len(moved))
	for _, id := range moved {
		movedSet[id] = true
	}

	var res Result
	for res.Passes < s.opts.MaxPasses {
		res.Passes++
		p := &pass{
			opts:     s.opts,
			c:        c,
			moved:    movedSet,
			resolved: make(map[string]bool),
		}
		if !p.run() {
			res.Converged = true
			break
		}
	}

	if !res.Converged {
		Logger().Debug("recompute stopped at pass limit",
			"construction", c.ID, "passes", res.Passes)
	}
	return res
}

// pass is the state of a single sweep over the construction.
type pass struct {
	opts  Options
	c     *construction.Construction
	moved map[string]bool

	// resolved holds constrained lines already handled this pass, including
	// those resolved early as another line's reference.
	resolved map[string]bool
}

// run applies every resolver once in dependency order and reports whether
// anything changed.
func (p *pass) run() bool {
	changed := false

	for _, id := range p.c.LineIDs() {
		if p.resolveLine(p.c.Lines[id], map[string]bool{}) {
			changed = true
		}
	}
	for _, id := range p.c.CircleIDs() {
		if p.resolveCircle(p.c.Circles[id]) {
			changed = true
		}
	}
	for _, id := range p.c.PolygonIDs() {
		if p.resolvePolygonLock(p.c.Polygons[id]) {
			changed = true
		}
	}
	if p.resolveIntersections() {
		changed = true
	}
	if p.resolveDerivedPoints() {
		changed = true
	}
	if p.reprojectOnObjectPoints() {
		changed = true
	}
	for _, id := range p.c.LineIDs() {
		sortLinePoints(p.c, p.c.Lines[id])
	}

	return changed
}

// move writes target into pt and reports whether either coordinate moved by
// at least changeEpsilon. Smaller deltas are not written.
func move(pt *construction.Point, target geom.Point) bool {
	if target.Near(geom.Pt(pt.X, pt.Y), changeEpsilon) {
		return false
	}
	pt.X, pt.Y = target.X, target.Y
	return true
}

func setHidden(pt *construction.Point, hidden bool) bool {
	if pt.Hidden == hidden {
		return false
	}
	pt.Hidden = hidden
	return true
}

// constrainToParent snaps target onto the point's first line or circle
// parent. Points without such a parent, and intersection points whose parent
// refs name the intersected objects, are returned unchanged.
func constrainToParent(c *construction.Construction, pt *construction.Point, target geom.Point) geom.Point {
	if len(pt.ParentRefs) == 0 || pt.Kind == construction.PointIntersection {
		return target
	}

	ref := pt.ParentRefs[0]
	switch ref.Kind {
	case construction.RefLine:
		a, b, ok := c.LineSegment(ref.ID)
		if !ok || b.Sub(a).LengthSquared() < geom.DegenerateEpsilon {
			return target
		}
		return geom.ProjectPointOnLine(target, a, b)
	case construction.RefCircle:
		center, r, ok := c.CircleGeometry(ref.ID)
		if !ok {
			return target
		}
		return onCircle(center, r, target)
	}
	return target
}

// onCircle keeps target's polar angle around center at distance r.
func onCircle(center geom.Point, r float64, target geom.Point) geom.Point {
	v := target.Sub(center)
	if v.LengthSquared() < geom.DegenerateEpsilon {
		return center.Add(geom.Pt(r, 0))
	}
	return center.Add(v.Normalize().Mul(r))
}

// reprojectOnObjectPoints pulls every on-object point back onto its parent.
func (p *pass) reprojectOnObjectPoints() bool {
	changed := false
	for _, id := range p.c.PointIDs() {
		pt := p.c.Points[id]
		if pt.Kind != construction.PointOnObject {
			continue
		}
		if move(pt, constrainToParent(p.c, pt, pt.Pos())) {
			changed = true
		}
	}
	return changed
}

// sortLinePoints makes sure both defining points are listed on the line and
// orders its points by their scalar projection from the first defining point.
func sortLinePoints(c *construction.Construction, l *construction.Line) {
	for _, d := range l.DefiningPoints {
		if d != "" && !l.Contains(d) {
			l.Points = append(l.Points, d)
		}
	}

	a, b, ok := c.DefiningSegment(l)
	if !ok {
		return
	}
	dir := b.Sub(a)
	if dir.LengthSquared() < geom.DegenerateEpsilon {
		return
	}

	key := func(id string) float64 {
		pt, ok := c.Points[id]
		if !ok {
			return math.Inf(1)
		}
		return pt.Pos().Sub(a).Dot(dir)
	}
	slices.SortStableFunc(l.Points, func(x, y string) int {
		kx, ky := key(x), key(y)
		switch {
		case kx < ky:
			return -1
		case kx > ky:
			return 1
		}
		return 0
	})
}
