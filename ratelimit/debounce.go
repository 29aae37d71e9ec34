package ratelimit

import (
	"sync"
	"time"
)

// Debounce wraps fn so that only the last call of a burst runs, wait after
// that call. Each call cancels the pending execution and schedules a new one.
// fn runs on the clock's timer goroutine; nothing is returned to the caller.
func Debounce[T any](fn func(T), wait time.Duration, opts ...Option) func(T) {
	return NewDebouncer(fn, wait, opts...).Call
}

// Debouncer is the stateful form of Debounce. Use it when the owner needs to
// flush or cancel the pending call on shutdown.
type Debouncer[T any] struct {
	fn    func(T)
	wait  time.Duration
	clock Clock

	mu      sync.Mutex
	timer   Timer
	arg     T
	pending bool
	gen     uint64
}

// NewDebouncer creates a Debouncer.
func NewDebouncer[T any](fn func(T), wait time.Duration, opts ...Option) *Debouncer[T] {
	o := resolveOptions(opts)
	return &Debouncer[T]{
		fn:    fn,
		wait:  wait,
		clock: o.clock,
	}
}

// Call records arg as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.arg = arg
	d.pending = true
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire runs the pending call if gen is still current. A timer that lost the
// race with a newer Call finds a different generation and does nothing.
func (d *Debouncer[T]) fire(gen uint64) {
	arg, ok := d.take(gen)
	if ok {
		d.fn(arg)
	}
}

func (d *Debouncer[T]) take(gen uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if !d.pending || gen != d.gen {
		return zero, false
	}
	arg := d.arg
	d.arg = zero
	d.pending = false
	d.timer = nil
	return arg, true
}

// Flush runs the pending call immediately on the caller's goroutine.
// Returns false if nothing was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()

	arg, ok := d.take(gen)
	if ok {
		d.fn(arg)
	}
	return ok
}

// Stop discards the pending call, if any.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.arg = zero
	d.pending = false
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
