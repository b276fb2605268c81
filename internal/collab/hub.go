package collab

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// StateLoader returns the shared state of a construction, or an error when
// the construction does not exist.
type StateLoader func(constructionID string) (*DocumentState, error)

type Room struct {
	constructionID string
	clients        map[string]*Client // clientID -> client
	presence       *PresenceManager
	state          *DocumentState
}

func NewRoom(constructionID string, state *DocumentState) *Room {
	return &Room{
		constructionID: constructionID,
		clients:        make(map[string]*Client),
		presence:       NewPresenceManager(),
		state:          state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // constructionID -> room
	register   chan *Client
	unregister chan *Client
	load       StateLoader
}

func NewHub(load StateLoader) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		load:       load,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	state, err := h.load(client.ConstructionID)
	if err != nil {
		slog.Warn("join refused", "error", err, "client", client.ClientID, "construction", client.ConstructionID)
		client.Send(errorMessage(err.Error()))
		client.closeSend()
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[client.ConstructionID]
	if !ok || room.state != state {
		room = NewRoom(client.ConstructionID, state)
		h.rooms[client.ConstructionID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, CanEdit: client.CanEdit})
	client.Send(&Message{Type: TypeWelcome, ConstructionID: client.ConstructionID, Payload: welcome})
	client.Send(syncMessage(room))

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
		CanEdit:     client.CanEdit,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.ConstructionID, joinMsg, client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "construction", client.ConstructionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ConstructionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.ConstructionID)
	}
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.ConstructionID, leaveMsg, "")

	slog.Info("client left", "client", client.ClientID, "construction", client.ConstructionID)
}

func (h *Hub) room(constructionID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[constructionID]
	return room, ok
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeSyncRequest:
		if room, ok := h.room(sender.ConstructionID); ok {
			sender.Send(syncMessage(room))
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.ConstructionID)
	if !ok {
		return
	}

	if !room.presence.Update(sender.ClientID, &presence) {
		sender.Send(errorMessage("point is being dragged by another client"))
	}

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.ConstructionID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "client", sender.ClientID)
		sender.Send(nackMessage("", "invalid payload"))
		return
	}
	op := submit.Operation

	if !sender.CanEdit {
		sender.Send(nackMessage(op.ID, "read-only connection"))
		return
	}

	room, ok := h.room(sender.ConstructionID)
	if !ok {
		sender.Send(nackMessage(op.ID, "not joined"))
		return
	}

	if id, ok := heldElsewhere(room, sender.ClientID, op); ok {
		sender.Send(nackMessage(op.ID, fmt.Sprintf("point %s is being dragged by another client", id)))
		return
	}

	applied, err := room.state.ApplyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "client", sender.ClientID)
		sender.Send(nackMessage(op.ID, err.Error()))
		return
	}

	ackPayload, _ := json.Marshal(OperationAckPayload{
		OperationID:     applied.Operation.ID,
		ServerSeq:       applied.ServerSeq,
		ServerTimestamp: GetServerTimestamp(),
		Result:          applied.Result,
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: applied.ServerSeq, Payload: ackPayload})

	h.BroadcastApplied(sender.ConstructionID, sender.ClientID, applied)
}

// BroadcastApplied sends an accepted operation and the resulting snapshot to
// every client in the room except the one that submitted it.
func (h *Hub) BroadcastApplied(constructionID, senderClientID string, applied *Applied) {
	payload, err := json.Marshal(OperationBroadcastPayload{
		Operation: applied.Operation,
		ClientID:  senderClientID,
		ServerSeq: applied.ServerSeq,
		Snapshot:  applied.Snapshot,
	})
	if err != nil {
		slog.Error("marshal op broadcast", "error", err)
		return
	}
	h.broadcastToRoom(constructionID, &Message{
		Type:           TypeOpBroadcast,
		ConstructionID: constructionID,
		ClientID:       senderClientID,
		Seq:            applied.ServerSeq,
		Payload:        payload,
	}, senderClientID)
}

// CloseRoom disconnects every client watching a construction.
func (h *Hub) CloseRoom(constructionID string) {
	h.disconnect(errorMessage("construction deleted"), func(id string) bool { return id == constructionID })
}

// Stop disconnects every client in every room.
func (h *Hub) Stop() {
	h.disconnect(errorMessage("server shutting down"), func(string) bool { return true })
}

func (h *Hub) disconnect(msg *Message, match func(constructionID string) bool) {
	h.mu.RLock()
	var clients []*Client
	for id, room := range h.rooms {
		if !match(id) {
			continue
		}
		for _, c := range room.clients {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
		c.closeSend()
	}
}

func (h *Hub) broadcastToRoom(constructionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[constructionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// heldElsewhere returns the first point touched by op that another client in
// the room is dragging.
func heldElsewhere(room *Room, clientID string, op Operation) (string, bool) {
	var ids []string
	switch op.Type {
	case OpPointMove, OpObjectDelete:
		ids = []string{op.ObjectID}
	case OpPointsTranslate:
		ids = slices.Sorted(maps.Keys(op.Originals))
	case OpPointsTransform:
		if op.Transform != nil {
			ids = slices.Sorted(maps.Keys(op.Transform.Vectors))
		}
	}
	for _, id := range ids {
		if owner, ok := room.presence.HeldBy(id); ok && owner != clientID {
			return id, true
		}
	}
	return "", false
}

func syncMessage(room *Room) *Message {
	snap, seq := room.state.Snapshot()
	payload, err := json.Marshal(SyncPayload{ServerSeq: seq, Snapshot: snap})
	if err != nil {
		slog.Error("marshal sync", "error", err)
		return errorMessage("sync failed")
	}
	return &Message{Type: TypeSync, ConstructionID: room.constructionID, Seq: seq, Payload: payload}
}

func nackMessage(opID, reason string) *Message {
	payload, _ := json.Marshal(OperationNackPayload{OperationID: opID, Reason: reason})
	return &Message{Type: TypeOpNack, Payload: payload}
}

func errorMessage(reason string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: reason})
	return &Message{Type: TypeError, Payload: payload}
}
