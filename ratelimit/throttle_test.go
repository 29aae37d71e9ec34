package ratelimit

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestThrottle_FirstCallRunsImmediately(t *testing.T) {
	clock := NewManualClock(epoch)
	calls := 0
	fn := Throttle(func(n int) int {
		calls++
		return n * 10
	}, 16*time.Millisecond, WithClock(clock))

	if got := fn(1); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestThrottle_DropsWithinWindowAndReturnsCachedResult(t *testing.T) {
	clock := NewManualClock(epoch)
	var seen []int
	fn := Throttle(func(n int) int {
		seen = append(seen, n)
		return n
	}, 16*time.Millisecond, WithClock(clock))

	fn(1)
	clock.Advance(5 * time.Millisecond)
	if got := fn(2); got != 1 {
		t.Errorf("dropped call should return cached result 1, got %d", got)
	}
	clock.Advance(5 * time.Millisecond)
	if got := fn(3); got != 1 {
		t.Errorf("dropped call should return cached result 1, got %d", got)
	}

	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("expected only first call to run, got %v", seen)
	}
}

func TestThrottle_NoTrailingCall(t *testing.T) {
	clock := NewManualClock(epoch)
	var seen []int
	fn := Throttle(func(n int) int {
		seen = append(seen, n)
		return n
	}, 16*time.Millisecond, WithClock(clock))

	fn(1)
	fn(2)
	clock.Advance(time.Second)

	if len(seen) != 1 {
		t.Fatalf("dropped call must not run after the window closes, got %v", seen)
	}
	if clock.PendingTimers() != 0 {
		t.Errorf("throttle should not schedule timers, got %d", clock.PendingTimers())
	}
}

func TestThrottle_RunsAgainAfterWindow(t *testing.T) {
	clock := NewManualClock(epoch)
	var seen []int
	fn := Throttle(func(n int) int {
		seen = append(seen, n)
		return n
	}, 16*time.Millisecond, WithClock(clock))

	fn(1)
	clock.Advance(16 * time.Millisecond)
	if got := fn(2); got != 2 {
		t.Errorf("expected fresh result 2, got %d", got)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 executions, got %v", seen)
	}
}

func TestThrottle_BurstExecutesFewerTimesThanEvents(t *testing.T) {
	tests := []struct {
		name    string
		events  int
		spacing time.Duration
		limit   time.Duration
	}{
		{"dense burst", 100, time.Millisecond, 16 * time.Millisecond},
		{"just under limit", 10, 15 * time.Millisecond, 16 * time.Millisecond},
		{"two per window", 50, 8 * time.Millisecond, 16 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewManualClock(epoch)
			th := NewThrottler(func(n int) int { return n }, tc.limit, WithClock(clock))

			first := th.Call(0)
			for i := 1; i < tc.events; i++ {
				clock.Advance(tc.spacing)
				th.Call(i)
			}

			executed, dropped := th.Stats()
			if first != 0 {
				t.Errorf("first event of the burst must execute, got cached %d", first)
			}
			if executed >= uint64(tc.events) {
				t.Errorf("expected fewer executions than %d events, got %d", tc.events, executed)
			}
			if executed+dropped != uint64(tc.events) {
				t.Errorf("executed+dropped = %d, want %d", executed+dropped, tc.events)
			}
		})
	}
}

func TestThrottle_ZeroLimitDisablesThrottling(t *testing.T) {
	clock := NewManualClock(epoch)
	th := NewThrottler(func(n int) int { return n }, 0, WithClock(clock))
	for i := 0; i < 5; i++ {
		th.Call(i)
	}
	executed, dropped := th.Stats()
	if executed != 5 || dropped != 0 {
		t.Errorf("expected 5/0, got %d/%d", executed, dropped)
	}
}

func TestThrottle_ConcurrentCallsRunOncePerWindow(t *testing.T) {
	clock := NewManualClock(epoch)
	th := NewThrottler(func(n int) int { return n }, time.Hour, WithClock(clock))

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			th.Call(n)
		}(i)
	}
	wg.Wait()

	executed, dropped := th.Stats()
	if executed != 1 {
		t.Errorf("expected exactly 1 execution, got %d", executed)
	}
	if dropped != 63 {
		t.Errorf("expected 63 drops, got %d", dropped)
	}
}

func TestThrottler_TryCallReportsExecution(t *testing.T) {
	clock := NewManualClock(epoch)
	th := NewThrottler(func(s string) string { return "ran:" + s }, time.Second, WithClock(clock))

	r, ok := th.TryCall("a")
	if !ok || r != "ran:a" {
		t.Fatalf("expected first call to run, got %q %v", r, ok)
	}
	r, ok = th.TryCall("b")
	if ok || r != "ran:a" {
		t.Fatalf("expected drop with cached result, got %q %v", r, ok)
	}
	if th.Limit() != time.Second {
		t.Errorf("expected limit 1s, got %v", th.Limit())
	}
}
