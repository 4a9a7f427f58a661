package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/groceryhub/internal/grocery"
	"github.com/dukerupert/groceryhub/internal/model"
)

const (
	TypeSnapshot     = "snapshot"
	TypeError        = "error"
	TypeUsersChanged = "users_changed"
	TypeListDeleted  = "list_deleted"
)

// Message is one frame sent to a browser watching a list.
type Message struct {
	Type   string              `json:"type"`
	ListID string              `json:"list_id"`
	Items  []model.GroceryItem `json:"items,omitzero"`
	View   *grocery.View       `json:"view,omitzero"`
	Error  string              `json:"error,omitempty"`
}

// NewEvent creates a list-level event message with no payload.
func NewEvent(typ, listID string) Message {
	return Message{Type: typ, ListID: listID}
}

// Hub tracks connected clients by the list they watch.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.listID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.listID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set := h.clients[c.listID]
	if _, ok := set[c]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.listID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Broadcast sends a message to every client watching listID.
func (h *Hub) Broadcast(listID string, msg Message) {
	msg.ListID = listID
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[listID] {
		c.enqueue(data, false)
	}
}

// ClientCount returns the number of connected clients across all lists.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// ListClientCount returns the number of clients watching listID.
func (h *Hub) ListClientCount(listID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[listID])
}
