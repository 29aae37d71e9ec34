package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kbukum/folio/component"
	"github.com/kbukum/folio/logger"
)

// ErrNotStarted is returned by the Component's key operations before Start
// has connected.
var ErrNotStarted = errors.New("redis: component not started")

// Component wraps Client for the component registry. Its Get, Set and Del
// forward to the client once started, so consumers can be wired before the
// connection exists.
type Component struct {
	client atomic.Pointer[Client]
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a Redis component. The client is created on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log,
	}
}

// Client returns the underlying *Client, or nil if not started.
func (c *Component) Client() *Client {
	return c.client.Load()
}

// Get forwards to the started client.
func (c *Component) Get(ctx context.Context, key string) ([]byte, bool, error) {
	client := c.client.Load()
	if client == nil {
		return nil, false, ErrNotStarted
	}
	return client.Get(ctx, key)
}

// Set forwards to the started client.
func (c *Component) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	client := c.client.Load()
	if client == nil {
		return ErrNotStarted
	}
	return client.Set(ctx, key, value, ttl)
}

// Del forwards to the started client.
func (c *Component) Del(ctx context.Context, keys ...string) error {
	client := c.client.Load()
	if client == nil {
		return ErrNotStarted
	}
	return client.Del(ctx, keys...)
}

func (c *Component) Name() string { return "redis" }

// Start creates the client and verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start ping: %w", err)
	}

	c.client.Store(client)
	c.log.Info("Redis component started")
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	client := c.client.Load()
	if client == nil {
		return nil
	}
	c.log.Info("Redis component stopping")
	return client.Close()
}

// Health pings the server. The cache degrades to memory-only when Redis
// is down, so a failed ping reports degraded rather than unhealthy.
func (c *Component) Health(ctx context.Context) component.Health {
	client := c.client.Load()
	if client == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "redis not initialized",
		}
	}

	if err := client.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Redis",
		Type:    "cache",
		Details: fmt.Sprintf("%s db=%d pool=%d prefix=%s", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize, c.cfg.KeyPrefix),
	}
}
