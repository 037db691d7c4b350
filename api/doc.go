// Package api exposes the template fetcher over HTTP.
//
//	GET /api/templates?q=drake&limit=20
//	GET /api/templates/:id
//	GET /api/quota
//
// Template routes spend one unit of the fetcher's quota per request and
// report the limiter state in X-RateLimit-* headers. The quota route only
// reads it. Errors use the errors.ErrorResponse envelope; rate limited
// responses also carry Retry-After.
package api
