package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Throttle wraps fn so it runs at most once per limit.
// The first call in a window runs immediately and its result is returned;
// calls arriving while the window is open are dropped and receive the cached
// result of the last executed call. There is no trailing execution.
func Throttle[T, R any](fn func(T) R, limit time.Duration, opts ...Option) func(T) R {
	return NewThrottler(fn, limit, opts...).Call
}

// Throttler is the stateful form of Throttle.
type Throttler[T, R any] struct {
	fn    func(T) R
	limit time.Duration
	clock Clock

	mu     sync.Mutex
	ran    bool
	last   time.Time
	result R

	executed atomic.Uint64
	dropped  atomic.Uint64
}

// NewThrottler creates a Throttler. A non-positive limit disables throttling.
func NewThrottler[T, R any](fn func(T) R, limit time.Duration, opts ...Option) *Throttler[T, R] {
	o := resolveOptions(opts)
	return &Throttler[T, R]{
		fn:    fn,
		limit: limit,
		clock: o.clock,
	}
}

// Call invokes fn unless a window is open. Executions are serialized, so fn
// must not call back into the same Throttler.
func (t *Throttler[T, R]) Call(arg T) R {
	r, _ := t.TryCall(arg)
	return r
}

// TryCall is Call that also reports whether fn ran.
func (t *Throttler[T, R]) TryCall(arg T) (R, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.ran && t.limit > 0 && now.Sub(t.last) < t.limit {
		t.dropped.Add(1)
		return t.result, false
	}

	t.ran = true
	t.last = now
	t.result = t.fn(arg)
	t.executed.Add(1)
	return t.result, true
}

// Stats returns how many calls executed and how many were dropped.
func (t *Throttler[T, R]) Stats() (executed, dropped uint64) {
	return t.executed.Load(), t.dropped.Load()
}

// Limit returns the configured window.
func (t *Throttler[T, R]) Limit() time.Duration {
	return t.limit
}
