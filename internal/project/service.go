package project

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/inamate/inamate/geometry-go/internal/collab"
	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/engine"
	"github.com/inamate/inamate/geometry-go/internal/typeid"
)

var (
	ErrNotFound = errors.New("construction not found")
	ErrInvalid  = errors.New("invalid construction")
)

// TokenIssuer mints edit tokens for new constructions.
type TokenIssuer interface {
	IssueToken(constructionID string) (string, error)
}

// Service is the in-memory registry of live constructions. Each one is held
// in a collab.DocumentState so HTTP edits and websocket edits share a lock
// and a sequence.
type Service struct {
	mu      sync.RWMutex
	entries map[string]*entry
	solver  *engine.Solver
	tokens  TokenIssuer

	onApplied func(constructionID string, applied *collab.Applied)
	onDeleted func(constructionID string)
}

type entry struct {
	info  Info
	state *collab.DocumentState
}

func NewService(solver *engine.Solver, tokens TokenIssuer) *Service {
	return &Service{
		entries: make(map[string]*entry),
		solver:  solver,
		tokens:  tokens,
	}
}

// OnApplied registers a callback run after every operation accepted over HTTP.
func (s *Service) OnApplied(fn func(constructionID string, applied *collab.Applied)) {
	s.onApplied = fn
}

// OnDeleted registers a callback run after a construction is deleted.
func (s *Service) OnDeleted(fn func(constructionID string)) {
	s.onDeleted = fn
}

type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Created is returned once, on creation: the token is not stored.
type Created struct {
	Construction Info            `json:"construction"`
	Token        string          `json:"token"`
	Snapshot     engine.Snapshot `json:"snapshot"`
}

// CreateParams describes a new construction. With neither Sample nor
// Construction set the construction starts empty.
type CreateParams struct {
	Name         string
	Sample       bool
	Construction *construction.Construction
}

func (s *Service) Create(p CreateParams) (*Created, error) {
	id := typeid.NewConstructionID()

	var c *construction.Construction
	switch {
	case p.Construction != nil:
		c = p.Construction
		ensureMaps(c)
		c.ID = id
	case p.Sample:
		c = construction.NewSampleConstruction(id)
	default:
		c = construction.New(id, p.Name)
	}
	if p.Name != "" {
		c.Name = p.Name
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	token, err := s.tokens.IssueToken(id)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := timestamp()
	e := &entry{
		info:  Info{ID: id, Name: c.Name, CreatedAt: now, UpdatedAt: now},
		state: collab.NewDocumentState(c, s.solver),
	}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	snap, _ := e.state.Snapshot()
	return &Created{Construction: e.info, Token: token, Snapshot: snap}, nil
}

func (s *Service) get(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// State returns the shared state of a construction. It is the hub's loader.
func (s *Service) State(id string) (*collab.DocumentState, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return e.state, nil
}

func (s *Service) Info(id string) (*Info, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	info := e.info
	s.mu.RUnlock()
	return &info, nil
}

func (s *Service) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.entries))
	for _, id := range slices.Sorted(maps.Keys(s.entries)) {
		out = append(out, s.entries[id].info)
	}
	return out
}

// Construction returns a copy of the construction's full object graph.
func (s *Service) Construction(id string) (*construction.Construction, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return e.state.Construction(), nil
}

// Snapshot returns the construction's read-back state and sequence number.
func (s *Service) Snapshot(id string) (engine.Snapshot, int64, error) {
	e, err := s.get(id)
	if err != nil {
		return engine.Snapshot{}, 0, err
	}
	snap, seq := e.state.Snapshot()
	return snap, seq, nil
}

// ApplyOps applies ops in order and stops at the first rejected one. The
// operations accepted before it stay applied and are returned.
func (s *Service) ApplyOps(id string, ops []collab.Operation) ([]*collab.Applied, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	applied := make([]*collab.Applied, 0, len(ops))
	for _, op := range ops {
		a, err := e.state.ApplyOperation(op)
		if err != nil {
			return applied, err
		}
		applied = append(applied, a)
		if s.onApplied != nil {
			s.onApplied(id, a)
		}
	}

	if len(applied) > 0 {
		s.mu.Lock()
		e.info.UpdatedAt = timestamp()
		s.mu.Unlock()
	}
	return applied, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.entries[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.entries, id)
	s.mu.Unlock()

	if s.onDeleted != nil {
		s.onDeleted(id)
	}
	return nil
}

func ensureMaps(c *construction.Construction) {
	if c.Points == nil {
		c.Points = map[string]*construction.Point{}
	}
	if c.Lines == nil {
		c.Lines = map[string]*construction.Line{}
	}
	if c.Circles == nil {
		c.Circles = map[string]*construction.Circle{}
	}
	if c.Angles == nil {
		c.Angles = map[string]*construction.Angle{}
	}
	if c.Polygons == nil {
		c.Polygons = map[string]*construction.Polygon{}
	}
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
