package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/folio/component"
)

// Component runs a Hub inside the component registry. The site mounts the
// pointer stream handler at path; content.updated events share the hub.
type Component struct {
	hub    *Hub
	path   string
	exited chan struct{}
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a component with a fresh Hub served at path.
func NewComponent(path string) *Component {
	return &Component{hub: NewHub(), path: path}
}

// Hub returns the underlying Hub.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

// Start launches the hub loop. A Hub runs once; starting again is an error.
func (c *Component) Start(_ context.Context) error {
	if c.exited != nil {
		return fmt.Errorf("sse: hub already started")
	}
	c.exited = make(chan struct{})
	go func() {
		defer close(c.exited)
		c.hub.Run()
	}()
	return nil
}

// Stop closes every stream and waits for the hub loop, or for ctx.
func (c *Component) Stop(ctx context.Context) error {
	c.hub.Stop()
	if c.exited == nil {
		return nil
	}
	select {
	case <-c.exited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sse: hub did not stop: %w", ctx.Err())
	}
}

func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	select {
	case <-c.hub.done:
		h.Status = component.StatusUnhealthy
		h.Message = "hub stopped"
	default:
		h.Message = fmt.Sprintf("%d streams open", c.hub.ClientCount())
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Pointer stream",
		Type:    "sse",
		Details: fmt.Sprintf("path=%s", c.path),
	}
}
