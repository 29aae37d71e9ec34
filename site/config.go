package site

import (
	"fmt"
	"time"

	"github.com/kbukum/folio/config"
	"github.com/kbukum/folio/content"
	"github.com/kbukum/folio/observability"
	"github.com/kbukum/folio/pointer"
	"github.com/kbukum/folio/redis"
	"github.com/kbukum/folio/server"
	"github.com/kbukum/folio/sse"
	"github.com/kbukum/folio/ws"
)

// Config is the complete folio configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Pointer       PointerConfig        `yaml:"pointer" mapstructure:"pointer"`
	Content       content.Config       `yaml:"content" mapstructure:"content"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Webhook       WebhookLimitConfig   `yaml:"webhook" mapstructure:"webhook"`
}

// PointerConfig configures the shared pointer and its transports.
type PointerConfig struct {
	// Interval is the throttle window for incoming samples.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// KeepAlive is the SSE comment interval.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
	// WriteTimeout bounds a single WebSocket frame.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// OriginPatterns lists extra hosts allowed to open the WebSocket.
	OriginPatterns []string `yaml:"origin_patterns" mapstructure:"origin_patterns"`
}

// WebhookLimitConfig limits webhook calls per client IP.
type WebhookLimitConfig struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// ApplyDefaults fills in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Content.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()

	if c.Pointer.Interval <= 0 {
		c.Pointer.Interval = pointer.DefaultInterval
	}
	if c.Pointer.KeepAlive <= 0 {
		c.Pointer.KeepAlive = sse.DefaultKeepAlive
	}
	if c.Pointer.WriteTimeout <= 0 {
		c.Pointer.WriteTimeout = ws.DefaultWriteTimeout
	}
	if c.Webhook.Rate <= 0 {
		c.Webhook.Rate = 1
	}
	if c.Webhook.Burst <= 0 {
		c.Webhook.Burst = 10
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
