package component

import "context"

// Component is a lifecycle-managed part of the process: the HTTP server or
// the template fetcher.
type Component interface {
	// Name is unique within a Registry.
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// HealthStatus is a component's self-reported state.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's entry in /health.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall folds component results into one status: any unhealthy result
// wins, then any degraded one. No results is healthy.
func Overall(results []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range results {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Description is a component's line in the startup summary.
type Description struct {
	// Name defaults to Component.Name when empty.
	Name string
	// Type is a short category such as "server" or "upstream".
	Type string
	// Details is a one-line configuration summary, e.g.
	// "https://api.imgflip.com/get_memes limit=10/1m0s ttl=5m0s".
	Details string
	Port    int
}

// Describable components appear in the infrastructure section of the
// startup summary.
type Describable interface {
	Describe() Description
}

// Route is one served HTTP route.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider components list their routes in the startup summary.
type RouteProvider interface {
	Routes() []Route
}
