// Package resilience guards calls to the content store: a CircuitBreaker
// fails fast while the store is down, Retry retries transient errors with
// exponential backoff, and a RateLimiter caps outbound request rate.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("sanity"))
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 25, Burst: 50})
//
//	res, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Response, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    var r *Response
//	    err := cb.Execute(func() error { r, err = send(ctx); return err })
//	    return r, err
//	})
package resilience
