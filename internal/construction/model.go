package construction

import (
	"slices"

	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// Construction is the object graph the solver works on. Every cross-reference
// is a string id into one of these maps, never a pointer between objects.
type Construction struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Points   map[string]*Point   `json:"points"`
	Lines    map[string]*Line    `json:"lines"`
	Circles  map[string]*Circle  `json:"circles"`
	Angles   map[string]*Angle   `json:"angles"`
	Polygons map[string]*Polygon `json:"polygons"`
}

// PointKind says how a point's position is derived.
type PointKind string

const (
	PointFree         PointKind = "free"
	PointOnObject     PointKind = "on_object"
	PointIntersection PointKind = "intersection"
	PointMidpoint     PointKind = "midpoint"
	PointBisect       PointKind = "bisect"
	PointSymmetric    PointKind = "symmetric"
)

// RefKind names the type of object an ObjectRef points at.
type RefKind string

const (
	RefLine   RefKind = "line"
	RefCircle RefKind = "circle"
	RefPoint  RefKind = "point"
)

type ObjectRef struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

type Point struct {
	ID         string      `json:"id"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Hidden     bool        `json:"hidden,omitempty"`
	Kind       PointKind   `json:"constructionKind"`
	ParentRefs []ObjectRef `json:"parentRefs,omitempty"`

	Midpoint  *MidpointMeta  `json:"midpointMeta,omitempty"`
	Bisect    *BisectMeta    `json:"bisectMeta,omitempty"`
	Symmetric *SymmetricMeta `json:"symmetricMeta,omitempty"`
}

// MidpointMeta averages two points. When ParentLineID is set the average is
// also projected onto that line.
type MidpointMeta struct {
	Parents      [2]string `json:"parents"`
	ParentLineID string    `json:"parentLineId,omitempty"`
}

// BisectSegment is one leg of a bisected angle. A and B are the segment's
// endpoints; one of them is the shared vertex.
type BisectSegment struct {
	LineID string `json:"lineId"`
	A      string `json:"a"`
	B      string `json:"b"`
}

type BisectMeta struct {
	Vertex  string        `json:"vertex"`
	Seg1    BisectSegment `json:"seg1"`
	Seg2    BisectSegment `json:"seg2"`
	Epsilon float64       `json:"epsilon,omitempty"`
}

// SymmetricMeta mirrors Source through a point or across a line.
type SymmetricMeta struct {
	Source string    `json:"source"`
	Mirror ObjectRef `json:"mirror"`
}

type LineKind string

const (
	LineFree          LineKind = "free"
	LineParallel      LineKind = "parallel"
	LinePerpendicular LineKind = "perpendicular"
)

type Line struct {
	ID             string    `json:"id"`
	Points         []string  `json:"points"`
	DefiningPoints [2]string `json:"definingPoints"`
	Kind           LineKind  `json:"constructionKind"`

	Parallel      *ParallelMeta      `json:"parallel,omitempty"`
	Perpendicular *PerpendicularMeta `json:"perpendicular,omitempty"`
}

type ParallelMeta struct {
	ThroughPoint  string `json:"throughPoint"`
	ReferenceLine string `json:"referenceLine"`
	HelperPoint   string `json:"helperPoint"`
}

// HelperMode selects how a perpendicular line's helper point is placed.
type HelperMode string

const (
	HelperNormal     HelperMode = "normal"
	HelperProjection HelperMode = "projection"
)

type PerpendicularMeta struct {
	ThroughPoint  string `json:"throughPoint"`
	ReferenceLine string `json:"referenceLine"`
	HelperPoint   string `json:"helperPoint"`

	// HelperDistance is filled in by the solver the first time the line is
	// resolved and kept until the helper itself is dragged.
	HelperDistance    *float64   `json:"helperDistance,omitempty"`
	HelperOrientation int        `json:"helperOrientation,omitempty"`
	HelperMode        HelperMode `json:"helperMode,omitempty"`
}

type CircleKind string

const (
	CircleCenterRadius CircleKind = "center-radius"
	CircleThreePoint   CircleKind = "three-point"
)

type Circle struct {
	ID             string     `json:"id"`
	Center         string     `json:"center"`
	RadiusPoint    string     `json:"radiusPoint,omitempty"`
	Kind           CircleKind `json:"circleKind,omitempty"`
	DefiningPoints []string   `json:"definingPoints,omitempty"`
	Points         []string   `json:"points"`
}

// Angle is display-only: the solver never moves anything because of it.
// Either Point1/Point2 or the arm line ids are set.
type Angle struct {
	ID         string `json:"id"`
	Vertex     string `json:"vertex"`
	Point1     string `json:"point1,omitempty"`
	Point2     string `json:"point2,omitempty"`
	Arm1LineID string `json:"arm1LineId,omitempty"`
	Arm2LineID string `json:"arm2LineId,omitempty"`
}

type Polygon struct {
	ID      string   `json:"id"`
	Points  []string `json:"points"`
	Locked  bool     `json:"locked,omitempty"`
	LockRef *LockRef `json:"lockRef,omitempty"`
}

// LockRef records every vertex in the (u, v) basis of the Base edge: u along
// the edge and v along its left normal, both divided by the edge length.
type LockRef struct {
	Base   [2]string   `json:"base"`
	Coords []LockCoord `json:"coords"`
}

type LockCoord struct {
	ID string  `json:"id"`
	U  float64 `json:"u"`
	V  float64 `json:"v"`
}

// New returns an empty construction with all maps allocated.
func New(id, name string) *Construction {
	return &Construction{
		ID:       id,
		Name:     name,
		Points:   map[string]*Point{},
		Lines:    map[string]*Line{},
		Circles:  map[string]*Circle{},
		Angles:   map[string]*Angle{},
		Polygons: map[string]*Polygon{},
	}
}

// Pos returns the point's coordinates.
func (p *Point) Pos() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// IsMovable reports whether user edits may move the point directly.
func (p *Point) IsMovable() bool {
	return p.Kind == PointFree || p.Kind == PointOnObject || p.Kind == ""
}

// IsDerived reports whether the point's position is owned by a resolver of
// its own (intersection, midpoint, bisect, symmetric).
func (p *Point) IsDerived() bool {
	return !p.IsMovable()
}

// IsThreePoint reports whether the circle is defined by three perimeter points.
func (c *Circle) IsThreePoint() bool {
	return c.Kind == CircleThreePoint
}

// IsDefining reports whether id is one of the circle's defining points,
// including its center and radius point.
func (c *Circle) IsDefining(id string) bool {
	if id == c.Center || id == c.RadiusPoint {
		return true
	}
	return slices.Contains(c.DefiningPoints, id)
}

// IsDefining reports whether id is one of the line's two defining points.
func (l *Line) IsDefining(id string) bool {
	return id == l.DefiningPoints[0] || id == l.DefiningPoints[1]
}

// Contains reports whether id is listed on the line.
func (l *Line) Contains(id string) bool {
	return slices.Contains(l.Points, id)
}
