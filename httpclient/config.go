package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/folio/resilience"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to every request path that is not already absolute.
	BaseURL string
	// Timeout bounds a single attempt. Defaults to 30s.
	Timeout time.Duration
	// Auth is applied to every request unless the request overrides it.
	Auth Auth
	// Headers are default headers applied to all requests.
	Headers   map[string]string
	UserAgent string

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig
	// CircuitBreaker configures the breaker. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig
	// RateLimiter configures outbound rate limiting. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig

	// Transport replaces the default transport.
	Transport http.RoundTripper
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}

// DefaultRetryConfig returns a retry config that only retries transient
// HTTP failures.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a default circuit breaker config.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}

// DefaultRateLimiterConfig returns a default rate limiter config.
func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}
