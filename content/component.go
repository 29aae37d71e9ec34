package content

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/folio/cache"
	"github.com/kbukum/folio/component"
	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/resilience"
)

// BreakerReporter exposes the upstream circuit breaker state.
type BreakerReporter interface {
	BreakerState() resilience.State
}

// Component runs the content layer inside the component registry.
type Component struct {
	cfg     Config
	service *Service
	webhook *Webhook
	breaker BreakerReporter
	memory  *cache.Memory
	warm    bool
	log     *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithBreaker reports the upstream breaker in health checks.
func WithBreaker(b BreakerReporter) ComponentOption {
	return func(c *Component) { c.breaker = b }
}

// WithMemoryCache hands the memory cache to the component so it is closed
// on Stop and its hit rate shows in health.
func WithMemoryCache(m *cache.Memory) ComponentOption {
	return func(c *Component) { c.memory = m }
}

// WithWarmup fetches every collection on Start.
func WithWarmup(warm bool) ComponentOption {
	return func(c *Component) { c.warm = warm }
}

// NewComponent creates the content component.
func NewComponent(cfg Config, service *Service, webhook *Webhook, opts ...ComponentOption) *Component {
	c := &Component{
		cfg:     cfg,
		service: service,
		webhook: webhook,
		log:     logger.WithComponent("content"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the content service.
func (c *Component) Service() *Service { return c.service }

// Webhook returns the webhook handler.
func (c *Component) Webhook() *Webhook { return c.webhook }

func (c *Component) Name() string { return "content" }

// Start warms the cache when enabled. A failed warmup is logged and does
// not stop the service; requests fetch on demand instead.
func (c *Component) Start(ctx context.Context) error {
	if !c.warm {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	start := time.Now()
	home, err := c.service.Home(ctx)
	if err != nil {
		c.log.Warn("Content warmup failed", logger.ErrorFields("warmup", err))
		return nil
	}
	c.log.Info("Content cache warmed", map[string]interface{}{
		"projects":           len(home.Projects),
		"videos":             len(home.Videos),
		"images":             len(home.Images),
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return nil
}

// Stop runs any pending webhook invalidation and closes the memory cache.
func (c *Component) Stop(_ context.Context) error {
	if c.webhook != nil {
		c.webhook.Stop()
	}
	if c.memory != nil {
		c.memory.Close()
	}
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	msg := fmt.Sprintf("dropped=%d", c.service.Dropped())
	if c.webhook != nil {
		accepted, invalidations := c.webhook.Stats()
		msg += fmt.Sprintf(" webhooks=%d invalidations=%d", accepted, invalidations)
	}
	if c.memory != nil {
		hits, misses := c.memory.Stats()
		msg += fmt.Sprintf(" cache_hits=%d cache_misses=%d", hits, misses)
	}

	status := component.StatusHealthy
	if c.breaker != nil && c.breaker.BreakerState() == resilience.StateOpen {
		status = component.StatusDegraded
		msg = "content store circuit open; " + msg
	}
	return component.Health{Name: c.Name(), Status: status, Message: msg}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "Content",
		Type: "content",
		Details: fmt.Sprintf("dataset=%s cdn=%t ttl=%s webhook_signed=%t",
			c.cfg.Dataset, c.cfg.CDN(), c.cfg.CacheTTL, c.cfg.WebhookSecret != ""),
	}
}
