// Package httpclient is the outbound HTTP client used for the content
// store. It adds bearer auth, retry with backoff, a circuit breaker, and a
// token-bucket rate limiter around net/http, and classifies failures so
// callers can map them to API errors.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "https://abc123.apicdn.sanity.io/v2024-01-01",
//	    Auth:           httpclient.BearerAuth(token),
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("sanity"),
//	})
//
//	body, err := httpclient.GetJSON[queryResult](ctx, client, "/data/query/production",
//	    httpclient.WithQueryParam("query", groq))
package httpclient
