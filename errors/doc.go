// Package errors provides the unified application error type.
//
// An AppError carries a machine-readable code, a short user-facing message,
// the HTTP status the API should answer with, and optional details. The
// template fetch taxonomy (rate limit, timeout, network, upstream HTTP,
// upstream logical, unknown) is built on top of it in fetch.go; the API layer
// renders any AppError with ToResponse.
package errors
