package pointer

import (
	"context"
	"fmt"

	"github.com/kbukum/folio/component"
)

// Component exposes a Broadcaster to the lifecycle registry. The
// Broadcaster needs no start-up work; on stop it only reports listeners
// that were never unsubscribed.
type Component struct {
	b *Broadcaster
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps b.
func NewComponent(b *Broadcaster) *Component {
	return &Component{b: b}
}

// Broadcaster returns the wrapped broadcaster.
func (c *Component) Broadcaster() *Broadcaster { return c.b }

// Name implements component.Component.
func (c *Component) Name() string { return "pointer" }

// Start implements component.Component.
func (c *Component) Start(ctx context.Context) error { return nil }

// Stop implements component.Component.
func (c *Component) Stop(ctx context.Context) error {
	if n := c.b.Subscribers(); n > 0 {
		c.b.log.Warn("Stopping with live subscribers", map[string]interface{}{
			"subscribers": n,
		})
	}
	return nil
}

// Health implements component.Component. The message carries the
// subscriber count so leaked listeners are visible.
func (c *Component) Health(ctx context.Context) component.Health {
	accepted, dropped := c.b.Stats()
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
		Message: fmt.Sprintf("subscribers=%d attached=%t accepted=%d dropped=%d",
			c.b.Subscribers(), c.b.Attached(), accepted, dropped),
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Pointer Broadcaster",
		Type:    "broadcaster",
		Details: fmt.Sprintf("interval=%s", c.b.Interval()),
	}
}
