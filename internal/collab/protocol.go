package collab

import (
	"encoding/json"

	"github.com/inamate/inamate/geometry-go/internal/engine"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

type Message struct {
	Type           string          `json:"type"`
	ConstructionID string          `json:"constructionId,omitempty"`
	ClientID       string          `json:"clientId,omitempty"`
	Seq            int64           `json:"seq,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Dragging    string     `json:"dragging,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	CanEdit     bool   `json:"canEdit"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	CanEdit  bool   `json:"canEdit"`
}

// SyncPayload carries the full read-back state of a construction.
type SyncPayload struct {
	ServerSeq int64           `json:"serverSeq"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Construction sync
	TypeSync        = "construction.sync"
	TypeSyncRequest = "construction.sync.request"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// --- Operation Types ---

const (
	OpPointMove       = "point.move"
	OpPointsTranslate = "points.translate"
	OpPointsTransform = "points.transform"
	OpRecompute       = "recompute"
	OpPolygonLock     = "polygon.lock"
	OpObjectCreate    = "object.create"
	OpObjectDelete    = "object.delete"
)

// Operation is one edit submitted against a construction.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ObjectID  string `json:"objectId,omitempty"`

	// For point.move
	Position *geom.Point `json:"position,omitempty"`

	// For points.translate
	Originals map[string]geom.Point `json:"originals,omitempty"`
	Delta     *geom.Point           `json:"delta,omitempty"`

	// For points.transform
	Transform *engine.Transform `json:"transform,omitempty"`

	// For points.translate / points.transform
	SkipConstrain bool `json:"skipConstrain,omitempty"`

	// For polygon.lock
	Locked *bool `json:"locked,omitempty"`

	// For object.create: one of point, line, circle, angle, polygon
	ObjectKind string          `json:"objectKind,omitempty"`
	Object     json.RawMessage `json:"object,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string        `json:"operationId"`
	ServerSeq       int64         `json:"serverSeq"`
	ServerTimestamp int64         `json:"serverTimestamp"`
	Result          engine.Result `json:"result"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation       `json:"operation"`
	ClientID  string          `json:"clientId"`
	ServerSeq int64           `json:"serverSeq"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}
