package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestBreaker(now *fakeNow, maxFailures int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: maxFailures,
		OpenTimeout: time.Second,
		Now:         now.Now,
	})
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	cb := newTestBreaker(now, 3)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected errBoom, got %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("expected fast failure without calling fn, got %v called=%v", err, called)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	cb := newTestBreaker(now, 3)

	cb.Execute(fail)
	cb.Execute(fail)
	cb.Execute(succeed)
	if cb.Failures() != 0 {
		t.Errorf("expected failures reset, got %d", cb.Failures())
	}
	cb.Execute(fail)
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{"success closes", succeed, StateClosed},
		{"failure reopens", fail, StateOpen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := &fakeNow{t: time.Unix(0, 0)}
			cb := newTestBreaker(now, 1)
			cb.Execute(fail)

			now.Advance(time.Second)
			if cb.State() != StateHalfOpen {
				t.Fatalf("expected half-open after timeout, got %s", cb.State())
			}
			cb.Execute(tc.probe)
			if cb.State() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, cb.State())
			}
		})
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	cb := newTestBreaker(now, 1)
	cb.Execute(fail)
	now.Advance(time.Second)

	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error { <-release; return nil })
	}()

	// Wait until the probe has been admitted.
	deadline := time.Now().Add(time.Second)
	for {
		cb.mu.Lock()
		admitted := cb.halfOpenCalls
		cb.mu.Unlock()
		if admitted == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second probe should be rejected, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("probe failed: %v", err)
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	notCounted := errors.New("not found")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && err != notCounted },
	})
	cb.Execute(func() error { return notCounted })
	if cb.State() != StateClosed {
		t.Errorf("filtered error must not open the circuit, got %s", cb.State())
	}
}

func TestCircuitBreaker_StateChangeCallbackAndReset(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	var changes []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "sanity",
		MaxFailures: 1,
		OpenTimeout: time.Second,
		Now:         now.Now,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, name+":"+from.String()+"->"+to.String())
		},
	})

	cb.Execute(fail)
	cb.Reset()

	want := []string{"sanity:closed->open", "sanity:open->closed"}
	if len(changes) != 2 || changes[0] != want[0] || changes[1] != want[1] {
		t.Errorf("expected %v, got %v", want, changes)
	}
}

func TestState_String(t *testing.T) {
	if StateHalfOpen.String() != "half-open" || State(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
