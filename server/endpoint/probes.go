// Package endpoint holds the system handlers every memecraft server mounts:
// health and Kubernetes-style probes, build info and runtime statistics.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atul-1602/memecraft/component"
)

// HealthChecker reports the current health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// HealthResponse is the /health body.
type HealthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	Timestamp  time.Time              `json:"timestamp"`
	Components []component.Health     `json:"components"`
}

// ProbeResponse is the /liveness and /readiness body.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

func check(ctx context.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return []component.Health{}
	}
	return checker(ctx)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// Health reports every component and the overall status. Only an unhealthy
// component makes it a 503: a degraded fetcher still serves cached and
// rate-limited responses.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c.Request.Context(), checker)
		resp := HealthResponse{
			Status:     component.Overall(components),
			Service:    service,
			Timestamp:  now(),
			Components: components,
		}
		code := http.StatusOK
		if resp.Status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}

// Liveness answers 200 while the process can serve HTTP at all.
func Liveness(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ProbeResponse{Status: "alive", Service: service, Timestamp: now()})
	}
}

// Readiness answers 503 while any component is unhealthy.
func Readiness(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := ProbeResponse{Status: "ready", Service: service, Timestamp: now()}
		code := http.StatusOK
		if component.Overall(check(c.Request.Context(), checker)) == component.StatusUnhealthy {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}
