package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/folio/logger"
)

// Broadcaster sends events to connected clients.
type Broadcaster interface {
	// Broadcast sends e to every client.
	Broadcast(e Event)
	// BroadcastToPattern sends e to clients whose id matches the glob
	// pattern, such as "pointer:*".
	BroadcastToPattern(pattern string, e Event)
}

type message struct {
	pattern string
	event   Event
}

// Hub keeps the client registry and routes broadcasts. Registration and
// broadcast run on the hub goroutine started by Run.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        logger.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("Client registered", map[string]interface{}{
				"client_id":     client.id,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("Client unregistered", map[string]interface{}{
				"client_id":     client.id,
				"total_clients": total,
			})

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop shuts the hub down and closes every client. Safe to call more than
// once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	h.log.Debug("All clients closed during shutdown")
}

// Register adds client. It returns false if the hub has stopped, in which
// case the client is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

// Unregister removes and closes client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Broadcast sends e to every client.
func (h *Hub) Broadcast(e Event) {
	h.BroadcastToPattern("*", e)
}

// BroadcastToPattern sends e to clients whose id matches pattern.
func (h *Hub) BroadcastToPattern(pattern string, e Event) {
	select {
	case h.broadcast <- message{pattern: pattern, event: e}:
	case <-h.done:
	}
}

func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := 0
	for id, client := range h.clients {
		ok, err := filepath.Match(msg.pattern, id)
		if err != nil {
			h.log.Error("Pattern match error", map[string]interface{}{
				"pattern":         msg.pattern,
				logger.FieldError: err.Error(),
			})
			return
		}
		if ok && client.Send(msg.event) {
			matched++
		}
	}
	h.log.Debug("Broadcast sent", map[string]interface{}{
		"event":       msg.event.Type,
		"pattern":     msg.pattern,
		"match_count": matched,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the ids of all connected clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
