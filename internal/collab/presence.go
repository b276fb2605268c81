package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks what each client in a room is pointing at. A point
// named in a presence's Dragging field is held by that client until it lets
// go or leaves, and other clients cannot move it meanwhile.
type PresenceManager struct {
	mu       sync.RWMutex
	byClient map[string]*PresencePayload // clientID -> presence
	held     map[string]string           // objectID -> clientID dragging it
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		byClient: make(map[string]*PresencePayload),
		held:     make(map[string]string),
	}
}

// Update stores a client's presence. A drag on an object another client
// already holds is cleared from p and Update reports false.
func (pm *PresenceManager) Update(clientID string, p *PresencePayload) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.releaseLocked(clientID)

	granted := true
	if p.Dragging != "" {
		if owner, ok := pm.held[p.Dragging]; ok && owner != clientID {
			p.Dragging = ""
			granted = false
		} else {
			pm.held[p.Dragging] = clientID
		}
	}
	pm.byClient[clientID] = p
	return granted
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.releaseLocked(clientID)
	delete(pm.byClient, clientID)
}

func (pm *PresenceManager) releaseLocked(clientID string) {
	prev, ok := pm.byClient[clientID]
	if !ok || prev.Dragging == "" {
		return
	}
	if pm.held[prev.Dragging] == clientID {
		delete(pm.held, prev.Dragging)
	}
}

// HeldBy returns the client dragging objectID, if any.
func (pm *PresenceManager) HeldBy(objectID string) (string, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	clientID, ok := pm.held[objectID]
	return clientID, ok
}

func (pm *PresenceManager) All() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.byClient)
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.All()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
