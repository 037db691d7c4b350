package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned (wrapped in *RateLimitError) when the window quota is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError reports a denied admission and how long until a slot frees up.
type RateLimitError struct {
	Name string
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %v (retry in %s)", e.Name, ErrRateLimited, e.Wait)
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RateLimiterConfig configures a sliding-window rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// MaxRequests is the number of admissions allowed inside one window.
	MaxRequests int
	// Window is the width of the trailing interval admissions are counted in.
	Window time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// OnLimit is called when a request is denied.
	OnLimit func(name string, wait time.Duration)
}

// DefaultRateLimiterConfig returns the imgflip-friendly defaults: 10 calls per minute.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:        name,
		MaxRequests: 10,
		Window:      time.Minute,
	}
}

// RateLimiter implements a sliding-window log limiter.
//
// Every admission instant is recorded, oldest first. Entries that have aged
// out of the window are dropped lazily whenever the limiter is consulted;
// nothing runs in the background.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	timestamps []time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = 10
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &RateLimiter{
		config:     config,
		timestamps: make([]time.Time, 0, config.MaxRequests),
	}
}

// Allow tries to take one slot. When denied it returns the time until the
// oldest counted admission leaves the window.
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	now := rl.config.Clock()
	rl.purge(now)

	if len(rl.timestamps) < rl.config.MaxRequests {
		rl.timestamps = append(rl.timestamps, now)
		rl.mu.Unlock()
		return true, 0
	}

	wait := rl.untilOldestExpires(now)
	rl.mu.Unlock()

	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name, wait)
	}
	return false, wait
}

// Execute runs fn if a slot is available, otherwise returns a *RateLimitError.
func (rl *RateLimiter) Execute(fn func() error) error {
	if ok, wait := rl.Allow(); !ok {
		return &RateLimitError{Name: rl.config.Name, Wait: wait}
	}
	return fn()
}

// Remaining returns how many admissions are left in the current window.
// It does not consume a slot.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.purge(rl.config.Clock())
	if n := rl.config.MaxRequests - len(rl.timestamps); n > 0 {
		return n
	}
	return 0
}

// TimeUntilReset returns how long until the oldest counted admission leaves
// the window, or 0 when nothing is counted.
func (rl *RateLimiter) TimeUntilReset() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.config.Clock()
	rl.purge(now)
	return rl.untilOldestExpires(now)
}

// Limit returns the configured quota per window.
func (rl *RateLimiter) Limit() int {
	return rl.config.MaxRequests
}

// Window returns the configured window width.
func (rl *RateLimiter) Window() time.Duration {
	return rl.config.Window
}

// purge drops timestamps whose age reached the window. Caller holds mu.
func (rl *RateLimiter) purge(now time.Time) {
	i := 0
	for i < len(rl.timestamps) && now.Sub(rl.timestamps[i]) >= rl.config.Window {
		i++
	}
	if i > 0 {
		rl.timestamps = append(rl.timestamps[:0], rl.timestamps[i:]...)
	}
}

// untilOldestExpires assumes a purged log. Caller holds mu.
func (rl *RateLimiter) untilOldestExpires(now time.Time) time.Duration {
	if len(rl.timestamps) == 0 {
		return 0
	}
	wait := rl.config.Window - now.Sub(rl.timestamps[0])
	if wait < 0 {
		return 0
	}
	return wait
}
