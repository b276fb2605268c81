package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/engine"
	"github.com/inamate/inamate/geometry-go/internal/typeid"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrDuplicateID      = errors.New("object id already in use")
)

// DocumentState holds the authoritative construction for a room. Every edit
// goes through ApplyOperation, which serializes edits under the lock.
type DocumentState struct {
	mu        sync.RWMutex
	c         *construction.Construction
	solver    *engine.Solver
	serverSeq int64
	opLog     []Operation // Operation history for replay
	last      engine.Result
}

// NewDocumentState takes ownership of c and settles it.
func NewDocumentState(c *construction.Construction, solver *engine.Solver) *DocumentState {
	return &DocumentState{
		c:      c,
		solver: solver,
		opLog:  make([]Operation, 0),
		last:   solver.RecomputeAll(c, nil),
	}
}

// Applied is the outcome of one accepted operation.
type Applied struct {
	Operation Operation
	ServerSeq int64
	Result    engine.Result
	Snapshot  engine.Snapshot
}

// Snapshot returns the current read-back state and the sequence number it
// reflects.
func (ds *DocumentState) Snapshot() (engine.Snapshot, int64) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.snapshotLocked(), ds.serverSeq
}

func (ds *DocumentState) snapshotLocked() engine.Snapshot {
	snap := engine.TakeSnapshot(ds.c)
	last := ds.last
	snap.Result = &last
	return snap
}

// Construction returns a deep copy of the current construction.
func (ds *DocumentState) Construction() *construction.Construction {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.c.Clone()
}

// ServerSeq returns the sequence number of the last accepted operation.
func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// OpLog returns the accepted operations in order.
func (ds *DocumentState) OpLog() []Operation {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return slices.Clone(ds.opLog)
}

// ApplyOperation applies op, recomputes and returns the new state. A rejected
// operation leaves the construction as it was.
func (ds *DocumentState) ApplyOperation(op Operation) (*Applied, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}

	res, err := ds.applyOperationLocked(op)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op.Type, op.ID, err)
	}

	ds.serverSeq++
	ds.opLog = append(ds.opLog, op)
	ds.last = res

	if !res.Converged {
		engine.Logger().Debug("operation left construction unsettled",
			"construction", ds.c.ID, "op", op.Type, "passes", res.Passes)
	}

	return &Applied{
		Operation: op,
		ServerSeq: ds.serverSeq,
		Result:    res,
		Snapshot:  ds.snapshotLocked(),
	}, nil
}

// applyOperationLocked applies the operation without locking (caller must hold lock)
func (ds *DocumentState) applyOperationLocked(op Operation) (engine.Result, error) {
	switch op.Type {
	case OpPointMove:
		return ds.applyPointMove(op)
	case OpPointsTranslate:
		return ds.applyTranslate(op)
	case OpPointsTransform:
		return ds.applyTransform(op)
	case OpRecompute:
		return ds.solver.RecomputeAll(ds.c, nil), nil
	case OpPolygonLock:
		return ds.applyPolygonLock(op)
	case OpObjectCreate:
		return ds.applyCreate(op)
	case OpObjectDelete:
		return ds.applyDelete(op)
	default:
		return engine.Result{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Type)
	}
}

func (ds *DocumentState) applyPointMove(op Operation) (engine.Result, error) {
	if op.Position == nil {
		return engine.Result{}, fmt.Errorf("%w: position is required", ErrInvalidOperation)
	}
	return ds.solver.MovePointAndRecompute(ds.c, op.ObjectID, *op.Position)
}

func (ds *DocumentState) applyTranslate(op Operation) (engine.Result, error) {
	if len(op.Originals) == 0 || op.Delta == nil {
		return engine.Result{}, fmt.Errorf("%w: originals and delta are required", ErrInvalidOperation)
	}
	opts := engine.MoveOptions{SkipConstrain: op.SkipConstrain}
	return ds.solver.MovePointsByDeltaAndRecompute(ds.c, op.Originals, *op.Delta, opts), nil
}

func (ds *DocumentState) applyTransform(op Operation) (engine.Result, error) {
	if op.Transform == nil || len(op.Transform.Vectors) == 0 {
		return engine.Result{}, fmt.Errorf("%w: transform with vectors is required", ErrInvalidOperation)
	}
	t := *op.Transform
	if op.SkipConstrain {
		t.SkipConstrain = true
	}
	return ds.solver.TransformPointsAndRecompute(ds.c, t), nil
}

func (ds *DocumentState) applyPolygonLock(op Operation) (engine.Result, error) {
	pg, ok := ds.c.Polygons[op.ObjectID]
	if !ok {
		return engine.Result{}, fmt.Errorf("polygon %s: %w", op.ObjectID, construction.ErrUnknownObject)
	}
	if op.Locked == nil {
		return engine.Result{}, fmt.Errorf("%w: locked is required", ErrInvalidOperation)
	}
	pg.Locked = *op.Locked
	return ds.solver.RecomputeAll(ds.c, nil), nil
}

// applyDelete removes an object nothing depends on. A point that is merely
// listed on a line or circle is taken off those lists first.
func (ds *DocumentState) applyDelete(op Operation) (engine.Result, error) {
	backup := ds.c.Clone()
	if _, ok := ds.c.Points[op.ObjectID]; ok {
		ds.detachPoint(op.ObjectID)
	}
	if err := ds.c.Remove(op.ObjectID); err != nil {
		ds.c = backup
		return engine.Result{}, err
	}
	return ds.solver.RecomputeAll(ds.c, nil), nil
}

func (ds *DocumentState) detachPoint(id string) {
	isID := func(other string) bool { return other == id }
	for _, l := range ds.c.Lines {
		if !l.IsDefining(id) {
			l.Points = slices.DeleteFunc(l.Points, isID)
		}
	}
	for _, ci := range ds.c.Circles {
		if !ci.IsDefining(id) {
			ci.Points = slices.DeleteFunc(ci.Points, isID)
		}
	}
}

// applyCreate inserts the object carried by op, assigning an id when it has
// none, and rolls back if the construction no longer validates.
func (ds *DocumentState) applyCreate(op Operation) (engine.Result, error) {
	if len(op.Object) == 0 {
		return engine.Result{}, fmt.Errorf("%w: object is required", ErrInvalidOperation)
	}

	backup := ds.c.Clone()
	if err := ds.insertObject(op.ObjectKind, op.Object); err != nil {
		ds.c = backup
		return engine.Result{}, err
	}
	if err := ds.c.Validate(); err != nil {
		ds.c = backup
		return engine.Result{}, err
	}
	return ds.solver.RecomputeAll(ds.c, nil), nil
}

func (ds *DocumentState) insertObject(kind string, raw json.RawMessage) error {
	c := ds.c
	claim := func(id *string, newID func() string) error {
		if *id == "" {
			*id = newID()
		}
		if c.Has(*id) {
			return fmt.Errorf("%s: %w", *id, ErrDuplicateID)
		}
		return nil
	}

	switch kind {
	case "point":
		p, err := decodeObject[construction.Point](raw)
		if err != nil {
			return err
		}
		if err := claim(&p.ID, typeid.NewPointID); err != nil {
			return err
		}
		if p.Kind == "" {
			p.Kind = construction.PointFree
		}
		c.Points[p.ID] = p
		ds.attachToParent(p)
	case "line":
		l, err := decodeObject[construction.Line](raw)
		if err != nil {
			return err
		}
		if err := claim(&l.ID, typeid.NewLineID); err != nil {
			return err
		}
		if l.Kind == "" {
			l.Kind = construction.LineFree
		}
		for _, d := range l.DefiningPoints {
			if d != "" && !l.Contains(d) {
				l.Points = append(l.Points, d)
			}
		}
		c.Lines[l.ID] = l
	case "circle":
		ci, err := decodeObject[construction.Circle](raw)
		if err != nil {
			return err
		}
		if err := claim(&ci.ID, typeid.NewCircleID); err != nil {
			return err
		}
		if ci.Kind == "" {
			ci.Kind = construction.CircleCenterRadius
		}
		c.Circles[ci.ID] = ci
	case "angle":
		a, err := decodeObject[construction.Angle](raw)
		if err != nil {
			return err
		}
		if err := claim(&a.ID, typeid.NewAngleID); err != nil {
			return err
		}
		c.Angles[a.ID] = a
	case "polygon":
		pg, err := decodeObject[construction.Polygon](raw)
		if err != nil {
			return err
		}
		if err := claim(&pg.ID, typeid.NewPolygonID); err != nil {
			return err
		}
		pg.LockRef = nil
		c.Polygons[pg.ID] = pg
	default:
		return fmt.Errorf("%w: unknown object kind %q", ErrInvalidOperation, kind)
	}
	return nil
}

// attachToParent lists a new on-object point on the line or circle it sits
// on, so that line ordering and fraction tracking see it.
func (ds *DocumentState) attachToParent(p *construction.Point) {
	if p.Kind != construction.PointOnObject || len(p.ParentRefs) == 0 {
		return
	}
	ref := p.ParentRefs[0]
	switch ref.Kind {
	case construction.RefLine:
		if l, ok := ds.c.Lines[ref.ID]; ok && !l.Contains(p.ID) {
			l.Points = append(l.Points, p.ID)
		}
	case construction.RefCircle:
		if ci, ok := ds.c.Circles[ref.ID]; ok && !slices.Contains(ci.Points, p.ID) {
			ci.Points = append(ci.Points, p.ID)
		}
	}
}

func decodeObject[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: invalid object: %v", ErrInvalidOperation, err)
	}
	return &v, nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
