// Package resilience provides the admission and failure-isolation primitives
// used in front of the upstream template API.
//
// This package includes:
//   - RateLimiter: sliding-window log admission control
//   - CircuitBreaker: fails fast while an upstream path keeps failing
//
// Both accept an injectable Clock so window and timeout arithmetic can be
// tested without sleeping:
//
//	rl := resilience.NewRateLimiter(resilience.DefaultRateLimiterConfig("imgflip"))
//	if ok, wait := rl.Allow(); !ok {
//	    return errors.RateLimitExceeded(wait)
//	}
//	err := cb.Execute(func() error {
//	    return fetchDirect(ctx)
//	})
package resilience
