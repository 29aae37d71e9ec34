package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/resilience"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// Rate is tokens per second for each client.
	Rate float64
	// Burst is each client's bucket size.
	Burst int
	// KeyFunc picks the client key. Defaults to the client IP.
	KeyFunc func(*gin.Context) string
	// IdleTTL drops buckets unused for this long.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

// RateLimit answers 429 with a RATE_LIMITED AppError once a client empties
// its bucket. Idle buckets are pruned on access.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastPrune time.Time
	)

	get := func(key string, now time.Time) *resilience.RateLimiter {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastPrune) > cfg.IdleTTL {
			for k, b := range buckets {
				if now.Sub(b.lastSeen) > cfg.IdleTTL {
					delete(buckets, k)
				}
			}
			lastPrune = now
		}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
				Name:  "client:" + key,
				Rate:  cfg.Rate,
				Burst: cfg.Burst,
			})}
			buckets[key] = b
		}
		b.lastSeen = now
		return b.limiter
	}

	return func(c *gin.Context) {
		if !get(cfg.KeyFunc(c), time.Now()).Allow() {
			appErr := apperrors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
