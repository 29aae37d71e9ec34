package sse

import (
	"sync"
	"sync/atomic"
)

const clientBuffer = 64

// Client is one connected SSE stream. Hub broadcasts are queued; pointer
// samples replace each other so a slow reader only ever sees the latest.
type Client struct {
	id     string
	events chan Event
	latest chan Event

	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

// NewClient creates a client with the given id.
func NewClient(id string) *Client {
	return &Client{
		id:     id,
		events: make(chan Event, clientBuffer),
		latest: make(chan Event, 1),
	}
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Events returns queued broadcast events.
func (c *Client) Events() <-chan Event { return c.events }

// Latest returns the most recent replaceable event.
func (c *Client) Latest() <-chan Event { return c.latest }

// Send queues e. It returns false when the client is closed or its queue
// is full.
func (c *Client) Send(e Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- e:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// SendLatest stores e as the latest event, replacing any unread one.
func (c *Client) SendLatest(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case <-c.latest:
		c.dropped.Add(1)
	default:
	}
	c.latest <- e
}

// Dropped returns how many events were discarded for this client.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// Close closes both channels. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
	close(c.latest)
}
