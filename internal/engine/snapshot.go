package engine

import (
	"encoding/json"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

// Snapshot is the read-back view renderers and editors consume: final
// coordinates and visibility of every object, in id order.
type Snapshot struct {
	ConstructionID string         `json:"constructionId"`
	Points         []PointState   `json:"points"`
	Lines          []LineState    `json:"lines"`
	Circles        []CircleState  `json:"circles"`
	Angles         []AngleState   `json:"angles"`
	Polygons       []PolygonState `json:"polygons"`
	Result         *Result        `json:"result,omitempty"`
}

type PointState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Hidden bool    `json:"hidden,omitempty"`
}

// LineState carries the line's ordered points and its defining segment.
type LineState struct {
	ID     string     `json:"id"`
	Points []string   `json:"points"`
	From   geom.Point `json:"from"`
	To     geom.Point `json:"to"`
}

type CircleState struct {
	ID     string     `json:"id"`
	Center geom.Point `json:"center"`
	Radius float64    `json:"radius"`
}

type AngleState struct {
	ID     string     `json:"id"`
	Vertex geom.Point `json:"vertex"`
	Arm1   geom.Point `json:"arm1"`
	Arm2   geom.Point `json:"arm2"`
}

type PolygonState struct {
	ID       string       `json:"id"`
	Vertices []geom.Point `json:"vertices"`
	Locked   bool         `json:"locked,omitempty"`
}

// TakeSnapshot reads the current state of c. Objects whose references do not
// resolve are left out.
func TakeSnapshot(c *construction.Construction) Snapshot {
	snap := Snapshot{
		ConstructionID: c.ID,
		Points:         make([]PointState, 0, len(c.Points)),
		Lines:          make([]LineState, 0, len(c.Lines)),
		Circles:        make([]CircleState, 0, len(c.Circles)),
		Angles:         make([]AngleState, 0, len(c.Angles)),
		Polygons:       make([]PolygonState, 0, len(c.Polygons)),
	}

	for _, id := range c.PointIDs() {
		p := c.Points[id]
		snap.Points = append(snap.Points, PointState{ID: id, X: p.X, Y: p.Y, Hidden: p.Hidden})
	}

	for _, id := range c.LineIDs() {
		from, to, ok := c.LineSegment(id)
		if !ok {
			continue
		}
		snap.Lines = append(snap.Lines, LineState{
			ID:     id,
			Points: append([]string(nil), c.Lines[id].Points...),
			From:   from,
			To:     to,
		})
	}

	for _, id := range c.CircleIDs() {
		center, r, ok := c.CircleGeometry(id)
		if !ok {
			continue
		}
		snap.Circles = append(snap.Circles, CircleState{ID: id, Center: center, Radius: r})
	}

	for _, id := range c.AngleIDs() {
		v, a1, a2, ok := c.AngleArms(id)
		if !ok {
			continue
		}
		snap.Angles = append(snap.Angles, AngleState{ID: id, Vertex: v, Arm1: a1, Arm2: a2})
	}

	for _, id := range c.PolygonIDs() {
		pg := c.Polygons[id]
		ps := PolygonState{ID: id, Locked: pg.Locked, Vertices: make([]geom.Point, 0, len(pg.Points))}
		for _, pid := range pg.Points {
			if pos, ok := c.PointPos(pid); ok {
				ps.Vertices = append(ps.Vertices, pos)
			}
		}
		snap.Polygons = append(snap.Polygons, ps)
	}

	return snap
}

// JSON serializes the snapshot.
func (s Snapshot) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
