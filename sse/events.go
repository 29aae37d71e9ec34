package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event types sent to clients.
const (
	// EventTypeConnected is sent once when a client connects.
	EventTypeConnected = "connected"
	// EventTypePointer carries a shared pointer sample.
	EventTypePointer = "pointer"
	// EventTypeContentUpdated tells clients to refetch content.
	EventTypeContentUpdated = "content.updated"
)

// Event is a single Server-Sent Event.
type Event struct {
	Type string
	Data []byte
}

// NewEvent encodes v as the event's JSON data.
func NewEvent(eventType string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Data: data}, nil
}

// WriteTo writes the event in wire format. Multi-line data is split
// across data fields.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.Type != "" {
		b.WriteString("event: ")
		b.WriteString(e.Type)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(string(e.Data), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ConnectedEvent is the payload of EventTypeConnected.
type ConnectedEvent struct {
	ClientID string `json:"client_id"`
}

// PointerEvent is the payload of EventTypePointer.
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ContentUpdatedEvent is the payload of EventTypeContentUpdated.
type ContentUpdatedEvent struct {
	DocumentID string `json:"document_id,omitempty"`
	Type       string `json:"type,omitempty"`
}
