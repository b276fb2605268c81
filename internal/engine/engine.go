package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// ErrNoConstruction is returned by commands issued before a construction
// has been loaded.
var ErrNoConstruction = errors.New("no construction loaded")

// Engine owns one construction and the editor state around it. It processes
// commands from the frontend and answers queries with JSON.
type Engine struct {
	c      *construction.Construction
	solver *Solver

	// Selection state (backend owns this)
	selection []string

	last Result
}

// NewEngine creates a new engine instance.
func NewEngine(opts Options) *Engine {
	return &Engine{solver: NewSolver(opts)}
}

// --- Commands (frontend → backend) ---

// LoadConstruction loads a construction from JSON, checks its references and
// settles it.
func (e *Engine) LoadConstruction(jsonData string) error {
	var c construction.Construction
	if err := json.Unmarshal([]byte(jsonData), &c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("load construction: %w", err)
	}
	e.Load(&c)
	return nil
}

// Load takes ownership of c and settles it.
func (e *Engine) Load(c *construction.Construction) {
	e.c = c
	e.selection = nil
	e.last = e.solver.RecomputeAll(c, nil)
}

// LoadSampleConstruction loads the built-in sample construction.
func (e *Engine) LoadSampleConstruction(id string) {
	e.Load(construction.NewSampleConstruction(id))
}

// MovePoint drags one point to (x, y).
func (e *Engine) MovePoint(id string, x, y float64) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	res, err := e.solver.MovePointAndRecompute(e.c, id, geom.Pt(x, y))
	if err != nil {
		return err
	}
	e.last = res
	return nil
}

// MovePointsByDelta moves every point in originals by (dx, dy) from its
// original position.
func (e *Engine) MovePointsByDelta(originals map[string]geom.Point, dx, dy float64, opts MoveOptions) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	e.last = e.solver.MovePointsByDeltaAndRecompute(e.c, originals, geom.Pt(dx, dy), opts)
	return nil
}

// TransformPoints applies a Transform given as JSON.
func (e *Engine) TransformPoints(jsonData string) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	var t Transform
	if err := json.Unmarshal([]byte(jsonData), &t); err != nil {
		return err
	}
	e.last = e.solver.TransformPointsAndRecompute(e.c, t)
	return nil
}

// MoveSelectionBy translates the selected points by (dx, dy).
func (e *Engine) MoveSelectionBy(dx, dy float64) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	return e.MovePointsByDelta(e.selectedPositions(), dx, dy, MoveOptions{})
}

// TransformSelection scales and rotates the selected points about center.
func (e *Engine) TransformSelection(center geom.Point, scale, rotation float64) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	vectors := make(map[string]geom.Point, len(e.selection))
	for id, pos := range e.selectedPositions() {
		vectors[id] = pos.Sub(center)
	}
	e.last = e.solver.TransformPointsAndRecompute(e.c, Transform{
		Center:   center,
		Vectors:  vectors,
		Scale:    scale,
		Rotation: rotation,
	})
	return nil
}

func (e *Engine) selectedPositions() map[string]geom.Point {
	out := make(map[string]geom.Point, len(e.selection))
	for _, id := range e.selection {
		if pos, ok := e.c.PointPos(id); ok {
			out[id] = pos
		}
	}
	return out
}

// SetPolygonLocked locks or unlocks a polygon's shape and resettles.
func (e *Engine) SetPolygonLocked(id string, locked bool) error {
	if e.c == nil {
		return ErrNoConstruction
	}
	pg, ok := e.c.Polygons[id]
	if !ok {
		return fmt.Errorf("polygon %s: %w", id, construction.ErrUnknownObject)
	}
	pg.Locked = locked
	e.last = e.solver.RecomputeAll(e.c, nil)
	return nil
}

// Recompute settles the construction without moving anything.
func (e *Engine) Recompute() {
	if e.c == nil {
		return
	}
	e.last = e.solver.RecomputeAll(e.c, nil)
}

// SetSelection sets the selected object IDs.
func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// --- Queries (frontend ← backend) ---

// Construction returns the loaded construction, or nil.
func (e *Engine) Construction() *construction.Construction {
	return e.c
}

// LastResult reports how the most recent recompute ended.
func (e *Engine) LastResult() Result {
	return e.last
}

// Snapshot returns the read-back view as JSON.
func (e *Engine) Snapshot() string {
	if e.c == nil {
		return "{}"
	}
	snap := TakeSnapshot(e.c)
	last := e.last
	snap.Result = &last
	result, _ := snap.JSON()
	return result
}

// GetConstruction returns the full construction as JSON (for debugging/sync).
func (e *Engine) GetConstruction() string {
	if e.c == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.c)
	return string(data)
}

// GetSelection returns the current selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.selection)
	return string(data)
}
