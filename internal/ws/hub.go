package ws

import (
	"encoding/json"
	"sync"
	"time"

	"cups_webapp/internal/logger"
)

const sendTimeout = 250 * time.Millisecond

// Router resolves renderer input to the owning game session
type Router interface {
	HasSession(sessionKey string) bool
	Pick(sessionKey string, cup int) error
}

// Hub tracks renderer connections per game session
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.SessionKey]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.SessionKey] = set
	}
	set[c] = struct{}{}
	logger.Debug("renderer registered", "session", c.SessionKey, "renderers", len(set))
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	set, ok := h.clients[c.SessionKey]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.SessionKey)
	}
	logger.Debug("renderer unregistered", "session", c.SessionKey, "renderers", len(set))
}

// CloseSession disconnects every renderer of the session
func (h *Hub) CloseSession(sessionKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[sessionKey] {
		h.unregisterLocked(c)
	}
}

// Count returns the number of renderers attached to the session
func (h *Hub) Count(sessionKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionKey])
}

// Broadcast sends msg to every renderer of the session
func (h *Hub) Broadcast(sessionKey string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws marshal failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[sessionKey] {
		h.enqueue(c, data, msg.Type)
	}
}

// SendTo sends msg to a single renderer if it is still registered
func (h *Hub) SendTo(c *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws marshal failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.SessionKey][c]; ok {
		h.enqueue(c, data, msg.Type)
	}
}

func (h *Hub) enqueue(c *Client, data []byte, msgType string) {
	select {
	case c.Send <- data:
	case <-time.After(sendTimeout):
		logger.Warn("ws send timeout, dropping message", "session", c.SessionKey, "type", msgType)
	}
}
