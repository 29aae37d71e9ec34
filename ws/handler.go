package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/pointer"
)

const (
	// DefaultWriteTimeout bounds a single outgoing frame.
	DefaultWriteTimeout = 5 * time.Second
	// DefaultReadLimit is the largest accepted incoming frame in bytes.
	DefaultReadLimit = 512
)

// Pusher receives samples read from sockets. *pointer.Feed implements it.
type Pusher interface {
	Push(s pointer.Sample) bool
}

// Frame is an outgoing pointer message.
type Frame struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type inbound struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Handler upgrades requests to WebSocket connections.
type Handler struct {
	broadcaster    *pointer.Broadcaster
	feed           Pusher
	originPatterns []string
	writeTimeout   time.Duration
	readLimit      int64
	log            *logger.Logger
	conns          atomic.Int64

	// base is canceled by Close and ends every open socket.
	base   context.Context
	cancel context.CancelFunc
}

// Option configures a Handler.
type Option func(*Handler)

// WithOriginPatterns sets the host patterns allowed in the Origin header.
// Same-host requests are always allowed.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Handler) { h.originPatterns = patterns }
}

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) { h.writeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// NewHandler creates a handler that reads into feed and writes samples
// from b.
func NewHandler(b *pointer.Broadcaster, feed Pusher, opts ...Option) *Handler {
	h := &Handler{
		broadcaster:  b,
		feed:         feed,
		writeTimeout: DefaultWriteTimeout,
		readLimit:    DefaultReadLimit,
		log:          logger.WithComponent("ws"),
	}
	h.base, h.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connections returns the number of open sockets.
func (h *Handler) Connections() int {
	return int(h.conns.Load())
}

// Close ends every open socket with a going-away status and rejects new
// upgrades. Hijacked connections are not tracked by http.Server.Shutdown,
// so the server calls this when it shuts down.
func (h *Handler) Close() {
	h.cancel()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.base.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	// Sockets outlive the server's read and write timeouts.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn("WebSocket accept failed", map[string]interface{}{
			logger.FieldError:      err.Error(),
			logger.FieldRemoteAddr: r.RemoteAddr,
		})
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.readLimit)

	h.conns.Add(1)
	defer h.conns.Add(-1)

	log := h.log.WithFields(map[string]interface{}{
		"client_id":            uuid.NewString(),
		logger.FieldRemoteAddr: r.RemoteAddr,
	})
	log.Debug("Client connected")

	// Reads see only the request context. Canceling a Read context makes the
	// library drop the connection, which would swallow the going-away frame.
	wctx, stopWrites := context.WithCancel(r.Context())
	defer stopWrites()
	stopShutdown := context.AfterFunc(h.base, func() {
		stopWrites()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stopShutdown()

	// Holds at most one unsent sample; newer samples replace it.
	out := make(chan pointer.Sample, 1)
	unsubscribe := h.broadcaster.Subscribe(func(x, y float64) {
		select {
		case <-out:
		default:
		}
		select {
		case out <- pointer.Sample{X: x, Y: y}:
		default:
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := h.writeLoop(wctx, conn, out); err != nil {
			log.Debug("Write failed", logger.ErrorFields("write", err))
			// Unblocks the read loop.
			_ = conn.CloseNow()
		}
	}()

	err = h.readLoop(r.Context(), conn, log)
	stopWrites()
	wg.Wait()

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		log.Debug("Client disconnected")
	case errors.Is(err, context.Canceled):
		log.Debug("Connection closed")
	default:
		log.Debug("Connection ended", logger.ErrorFields("read", err))
	}
	if !stopShutdown() {
		// The shutdown hook owns the close handshake.
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, log *logger.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			log.Warn("Skipping non-text frame")
			continue
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil || in.X == nil || in.Y == nil {
			log.Warn("Skipping malformed frame", map[string]interface{}{"size": len(data)})
			continue
		}
		s := pointer.Sample{X: *in.X, Y: *in.Y}
		if !s.Valid() {
			log.Warn("Skipping non-finite sample")
			continue
		}
		h.feed.Push(s)
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan pointer.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-out:
			wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := wsjson.Write(wctx, conn, Frame{Type: "pointer", X: s.X, Y: s.Y})
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
