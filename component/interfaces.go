package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed part of the service: the HTTP
// server, the pointer broadcaster, the content cache, the SSE hub.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information logged at startup.
type Description struct {
	// Name is the human-readable display name. Defaults to Name().
	Name string
	// Type categorizes the component: "server", "cache", "broadcaster", ...
	Type string
	// Details is a one-liner such as "0.0.0.0:8080" or "ttl=1m0s".
	Details string
}

// Describable is optionally implemented by Components to self-report how
// they are configured.
type Describable interface {
	Describe() Description
}

// Overall folds component health into a single status. Any unhealthy
// component makes the whole service unhealthy; any degraded one degrades it.
func Overall(healths []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range healths {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Route is one registered HTTP route, listed in the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is optionally implemented by Components that serve HTTP
// routes.
type RouteProvider interface {
	Routes() []Route
}
