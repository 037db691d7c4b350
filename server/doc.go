// Package server provides the HTTP front of memecraft: a Gin engine mounted
// on a root ServeMux, served over HTTP/1.1 and h2c, with lifecycle hooks that
// plug into the component registry.
//
// # Middleware
//
// ApplyMiddleware installs the stack from server/middleware:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - CORS: cross-origin headers, including the rate limit headers
//   - RequestLogger: request logging with duration tracking
//   - Telemetry: one span and request metrics per matched route
//
// # Endpoints
//
// RegisterDefaultEndpoints adds (server/endpoint):
//
//   - /health: aggregated component health
//   - /liveness and /readiness: probes
//   - /info and /version: build information
//   - /metrics: Go runtime statistics
package server
