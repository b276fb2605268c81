package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

var (
	ErrPointNotFound = errors.New("point not found")
	ErrNotMovable    = errors.New("point is not movable")
)

// MoveOptions controls batch moves.
type MoveOptions struct {
	// SkipConstrain leaves moved on-object points where the delta puts them
	// instead of snapping them back onto their line or circle.
	SkipConstrain bool `json:"skipConstrain,omitempty"`
}

// Transform scales and rotates a set of points about Center. Vectors holds
// each point's offset from Center before the transform.
type Transform struct {
	Center  geom.Point            `json:"center"`
	Vectors map[string]geom.Point `json:"vectors"`

	// Scale is the uniform scale factor. Zero, including an omitted field,
	// means no scaling: a transform cannot collapse points onto Center.
	Scale float64 `json:"scale,omitempty"`

	// Rotation is in radians, counter-clockwise.
	Rotation float64 `json:"rotation,omitempty"`

	MoveOptions
}

// MovePointAndRecompute moves one free or on-object point to target,
// snapping it onto its parent line or circle, and recomputes.
func (s *Solver) MovePointAndRecompute(c *construction.Construction, id string, target geom.Point) (Result, error) {
	pt, ok := c.Points[id]
	if !ok {
		return Result{}, fmt.Errorf("move %s: %w", id, ErrPointNotFound)
	}
	if !pt.IsMovable() {
		return Result{}, fmt.Errorf("move %s (%s): %w", id, pt.Kind, ErrNotMovable)
	}

	res := s.applyEdit(c, []string{id}, func() {
		pos := constrainToParent(c, pt, target)
		pt.X, pt.Y = pos.X, pos.Y
	})
	return res, nil
}

// MovePointsByDeltaAndRecompute moves every point in originals to its
// original position plus delta and recomputes. Unknown ids and points that
// are not free or on-object are skipped.
func (s *Solver) MovePointsByDeltaAndRecompute(c *construction.Construction, originals map[string]geom.Point, delta geom.Point, opts MoveOptions) Result {
	ids := movableIDs(c, slices.Collect(maps.Keys(originals)))
	return s.applyEdit(c, ids, func() {
		for _, id := range ids {
			s.place(c, c.Points[id], originals[id].Add(delta), opts)
		}
	})
}

// TransformPointsAndRecompute applies a uniform scale and rotation about
// t.Center to the points in t.Vectors and recomputes.
func (s *Solver) TransformPointsAndRecompute(c *construction.Construction, t Transform) Result {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	m := geom.ScaleRotateAbout(t.Center, scale, t.Rotation)

	ids := movableIDs(c, slices.Collect(maps.Keys(t.Vectors)))
	return s.applyEdit(c, ids, func() {
		for _, id := range ids {
			s.place(c, c.Points[id], m.Apply(t.Vectors[id]), t.MoveOptions)
		}
	})
}

func (s *Solver) place(c *construction.Construction, pt *construction.Point, target geom.Point, opts MoveOptions) {
	if !opts.SkipConstrain {
		target = constrainToParent(c, pt, target)
	}
	pt.X, pt.Y = target.X, target.Y
}

func movableIDs(c *construction.Construction, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if pt, ok := c.Points[id]; ok && pt.IsMovable() {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// applyEdit records where on-line points sit along lines whose defining
// points are about to move, applies mutate, recomputes, and puts those
// points back at the same fraction of their lines. A second recompute
// settles anything that depends on the restored points.
func (s *Solver) applyEdit(c *construction.Construction, moving []string, mutate func()) Result {
	movingSet := make(map[string]bool, len(moving))
	for _, id := range moving {
		movingSet[id] = true
	}

	fractions := captureLineFractions(c, movingSet)
	mutate()

	res := s.RecomputeAll(c, moving)
	if restoreLineFractions(c, fractions) {
		again := s.RecomputeAll(c, moving)
		res.Passes += again.Passes
		res.Converged = again.Converged
	}
	return res
}

// lineFraction is an on-object point's parameter t along its line, where
// t=0 is the first defining point and t=1 the second.
type lineFraction struct {
	pointID string
	lineID  string
	t       float64
}

func captureLineFractions(c *construction.Construction, moving map[string]bool) []lineFraction {
	var out []lineFraction
	for _, lid := range c.LineIDs() {
		l := c.Lines[lid]
		if l.Kind != construction.LineFree && l.Kind != "" {
			continue
		}
		if !moving[l.DefiningPoints[0]] && !moving[l.DefiningPoints[1]] {
			continue
		}
		a, b, ok := c.DefiningSegment(l)
		if !ok || b.Sub(a).LengthSquared() < geom.DegenerateEpsilon {
			continue
		}

		for _, pid := range l.Points {
			if l.IsDefining(pid) || moving[pid] {
				continue
			}
			pt, ok := c.Points[pid]
			if !ok || pt.Kind != construction.PointOnObject || len(pt.ParentRefs) == 0 {
				continue
			}
			if ref := pt.ParentRefs[0]; ref.Kind != construction.RefLine || ref.ID != lid {
				continue
			}
			out = append(out, lineFraction{
				pointID: pid,
				lineID:  lid,
				t:       geom.LineParameter(pt.Pos(), a, b),
			})
		}
	}
	return out
}

func restoreLineFractions(c *construction.Construction, fractions []lineFraction) bool {
	changed := false
	for _, f := range fractions {
		pt, ok := c.Points[f.pointID]
		if !ok {
			continue
		}
		a, b, ok := c.LineSegment(f.lineID)
		if !ok {
			continue
		}
		if move(pt, a.Lerp(b, f.t)) {
			changed = true
		}
	}
	return changed
}

var defaultSolver = NewSolver(DefaultOptions())

// MovePointAndRecompute is Solver.MovePointAndRecompute with default options.
func MovePointAndRecompute(c *construction.Construction, id string, target geom.Point) (Result, error) {
	return defaultSolver.MovePointAndRecompute(c, id, target)
}

// MovePointsByDeltaAndRecompute is Solver.MovePointsByDeltaAndRecompute with
// default options.
func MovePointsByDeltaAndRecompute(c *construction.Construction, originals map[string]geom.Point, delta geom.Point, opts MoveOptions) Result {
	return defaultSolver.MovePointsByDeltaAndRecompute(c, originals, delta, opts)
}

// TransformPointsAndRecompute is Solver.TransformPointsAndRecompute with
// default options.
func TransformPointsAndRecompute(c *construction.Construction, t Transform) Result {
	return defaultSolver.TransformPointsAndRecompute(c, t)
}
