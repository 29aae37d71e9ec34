package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/folio/httpclient"
	"github.com/kbukum/folio/resilience"
)

// queryResponse is the query API envelope.
type queryResponse struct {
	Ms     int             `json:"ms"`
	Query  string          `json:"query"`
	Result json.RawMessage `json:"result"`
}

// Querier runs a GROQ query and returns the raw result.
type Querier interface {
	Query(ctx context.Context, groq string) (json.RawMessage, error)
}

// Client queries a Sanity-compatible content API.
type Client struct {
	http    *httpclient.Client
	dataset string
}

var _ Querier = (*Client)(nil)

// ClientOption customizes the HTTP client used by NewClient.
type ClientOption func(*httpclient.Config)

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *httpclient.Config) { c.Transport = rt }
}

// WithRetry replaces the retry policy. Nil disables retries.
func WithRetry(cfg *resilience.RetryConfig) ClientOption {
	return func(c *httpclient.Config) { c.Retry = cfg }
}

// NewClient creates a client for cfg. Requests retry transient failures,
// pass through a circuit breaker, and are rate limited to stay under the
// API's per-project limits.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	retry := httpclient.DefaultRetryConfig()
	retry.MaxBackoff = 2 * time.Second
	hc := httpclient.Config{
		BaseURL:        cfg.Endpoint(),
		Timeout:        cfg.Timeout,
		Auth:           httpclient.BearerAuth(cfg.Token),
		UserAgent:      "folio",
		Headers:        map[string]string{"Accept": "application/json"},
		Retry:          retry,
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("content-store"),
		RateLimiter:    &resilience.RateLimiterConfig{Name: "content-store", Rate: 25, Burst: 50},
	}
	for _, opt := range opts {
		opt(&hc)
	}

	c, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("content client: %w", err)
	}
	return &Client{http: c, dataset: cfg.Dataset}, nil
}

// Query runs groq against the configured dataset.
func (c *Client) Query(ctx context.Context, groq string) (json.RawMessage, error) {
	resp, err := httpclient.GetJSON[queryResponse](ctx, c.http, "/data/query/"+c.dataset,
		httpclient.WithQueryParam("query", groq))
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// BreakerState reports the upstream circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.http.BreakerState()
}
