// Package ratelimit provides the two call-scheduling primitives used by
// high-frequency input handlers: Throttle and Debounce.
//
// Throttle is leading-edge only. The first call in a window runs right
// away and later calls in the same window are dropped. They are not queued,
// and they return the cached result of the last call that ran. Nothing runs
// at the end of a window.
//
// Debounce is trailing-edge. Every call pushes the deadline back, and only
// the last call of a burst runs, once the burst has been quiet for the wait
// duration.
//
// # Usage
//
//	move := ratelimit.Throttle(func(s pointer.Sample) bool {
//	    return fanOut(s)
//	}, 16*time.Millisecond)
//
//	refresh := ratelimit.Debounce(func(reason string) {
//	    cache.Invalidate(ctx)
//	}, 2*time.Second)
//
// Both accept WithClock so tests can drive time by hand with a ManualClock.
package ratelimit
