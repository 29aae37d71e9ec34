package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/pointer"
)

// DefaultKeepAlive is the interval between keep-alive comments. It stays
// below common proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// Handler streams pointer samples and hub broadcasts to read-only viewers.
type Handler struct {
	hub       *Hub
	pointer   *pointer.Broadcaster
	keepAlive time.Duration
	log       *logger.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(d time.Duration) HandlerOption {
	return func(h *Handler) { h.keepAlive = d }
}

// NewHandler creates a handler. Each connection subscribes to b for its
// lifetime.
func NewHandler(hub *Hub, b *pointer.Broadcaster, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:       hub,
		pointer:   b,
		keepAlive: DefaultKeepAlive,
		log:       logger.WithComponent("sse"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := "pointer:" + uuid.NewString()
	log := h.log.WithFields(map[string]interface{}{
		"client_id":            clientID,
		logger.FieldRemoteAddr: r.RemoteAddr,
	})

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Long-lived streams must outlive the server's read and write timeouts.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Could not disable write deadline", logger.ErrorFields("deadline", err))
	}
	_ = rc.SetReadDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(clientID)
	if !h.hub.Register(client) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.hub.Unregister(client)

	connected, _ := NewEvent(EventTypeConnected, ConnectedEvent{ClientID: clientID})
	_, _ = connected.WriteTo(w)
	flusher.Flush()

	unsubscribe := h.pointer.Subscribe(func(x, y float64) {
		e, _ := NewEvent(EventTypePointer, PointerEvent{X: x, Y: y})
		client.SendLatest(e)
	})
	defer unsubscribe()

	log.Debug("Client connected")

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Client disconnected", map[string]interface{}{"reason": ctx.Err().Error()})
			return

		case e, ok := <-client.Events():
			if !ok {
				return
			}
			if !h.write(w, flusher, e) {
				return
			}

		case e, ok := <-client.Latest():
			if !ok {
				return
			}
			if !h.write(w, flusher, e) {
				return
			}

		case <-keepAlive.C:
			if _, err := fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) write(w http.ResponseWriter, f http.Flusher, e Event) bool {
	if _, err := e.WriteTo(w); err != nil {
		return false
	}
	f.Flush()
	return true
}
