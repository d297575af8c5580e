package sse

import (
	"sync"

	"github.com/explore-with-me/ewm-service/internal/domain/notification"
)

// Hub manages SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*notification.Client),
	}
}

func (h *Hub) Register(client *notification.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishToAll sends msg to every connected client.
func (h *Hub) PublishToAll(msg *notification.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		trySend(c, msg)
	}
}

// PublishToUser sends msg to every connection of userID.
func (h *Hub) PublishToUser(userID int64, msg *notification.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID == userID {
			trySend(c, msg)
		}
	}
}

func (h *Hub) SendToClient(clientID string, msg *notification.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := h.clients[clientID]
	if c == nil {
		return notification.ErrClientNotFound
	}
	if !trySend(c, msg) {
		return notification.ErrChannelFull
	}
	return nil
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *notification.Client, msg *notification.Message) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
