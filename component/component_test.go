package component

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *fakeComponent) Name() string { return m.name }
func (m *fakeComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *fakeComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *fakeComponent) Health(ctx context.Context) Health { return m.health }

type describedComponent struct {
	fakeComponent
}

func (d *describedComponent) Describe() Description {
	return Description{Type: "broadcaster", Details: "interval=16ms"}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeComponent{name: "pointer"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "pointer"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeComponent{name: "sse"})

	if got := r.Get("sse"); got == nil || got.Name() != "sse" {
		t.Fatalf("expected registered component, got %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unregistered component")
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 component, got %d", len(r.All()))
	}
}

func TestStartAllInOrder(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&fakeComponent{name: "cache", startOrder: &order})
	r.Register(&describedComponent{fakeComponent{name: "pointer", startOrder: &order}})
	r.Register(&fakeComponent{name: "http", startOrder: &order})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if len(order) != 3 || order[0] != "cache" || order[1] != "pointer" || order[2] != "http" {
		t.Errorf("expected start order [cache pointer http], got %v", order)
	}
}

func TestStartAllError(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&fakeComponent{name: "redis", startErr: fmt.Errorf("connection refused")})
	r.Register(&fakeComponent{name: "http", startOrder: &order})

	if err := r.StartAll(context.Background()); err == nil {
		t.Error("expected error from StartAll")
	}
	if len(order) != 0 {
		t.Errorf("components after a failure must not start, got %v", order)
	}
}

func TestStartAllRollsBackOnFailure(t *testing.T) {
	r := NewRegistry()
	stopped := []string{}
	r.Register(&fakeComponent{name: "observability", stopOrder: &stopped})
	r.Register(&fakeComponent{name: "redis", stopOrder: &stopped})
	r.Register(&fakeComponent{name: "content", startErr: fmt.Errorf("warmup failed"), stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "warmup failed") {
		t.Fatalf("expected the start error, got %v", err)
	}
	if len(stopped) != 2 || stopped[0] != "redis" || stopped[1] != "observability" {
		t.Errorf("expected [redis observability] stopped, got %v", stopped)
	}

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if len(stopped) != 2 {
		t.Errorf("rolled back components must not stop twice, got %v", stopped)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&fakeComponent{name: "cache", stopOrder: &order})
	r.Register(&fakeComponent{name: "pointer", stopOrder: &order})
	r.Register(&fakeComponent{name: "http", stopOrder: &order})

	r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 3 || order[0] != "http" || order[1] != "pointer" || order[2] != "cache" {
		t.Errorf("expected reverse stop order [http pointer cache], got %v", order)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&fakeComponent{name: "cache", stopOrder: &order})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %d", len(order))
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&fakeComponent{name: "cache", stopOrder: &order})
	r.Register(&fakeComponent{name: "redis", stopErr: fmt.Errorf("stop failed"), stopOrder: &order})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to stop redis") {
		t.Errorf("expected redis stop error, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("a failed stop must not skip the rest, got %v", order)
	}
}

type deadlineComponent struct {
	fakeComponent
	remaining time.Duration
}

func (d *deadlineComponent) Stop(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		d.remaining = time.Until(dl)
	}
	return nil
}

func TestSetStopTimeout(t *testing.T) {
	r := NewRegistry()
	r.SetStopTimeout(0)
	r.SetStopTimeout(time.Second)
	c := &deadlineComponent{fakeComponent: fakeComponent{name: "sse"}}
	r.Register(c)
	r.StartAll(context.Background())
	r.StopAll(context.Background())

	if c.remaining <= 0 || c.remaining > time.Second {
		t.Errorf("expected a stop deadline within 1s, got %v", c.remaining)
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeComponent{name: "pointer", health: Health{Name: "pointer", Status: StatusHealthy}})
	r.Register(&fakeComponent{name: "redis", health: Health{Name: "redis", Status: StatusUnhealthy, Message: "timeout"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != StatusUnhealthy {
		t.Errorf("expected redis unhealthy, got %s", results[1].Status)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name string
		in   []Health
		want HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Health{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"one degraded", []Health{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", []Health{{Status: StatusDegraded}, {Status: StatusUnhealthy}}, StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overall(tc.in); got != tc.want {
				t.Errorf("Overall() = %s, want %s", got, tc.want)
			}
		})
	}
}
