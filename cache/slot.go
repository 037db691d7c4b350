// Package cache holds the single-slot, time-to-live response cache that
// fronts the upstream template API.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a stored value stays fresh when Config.TTL is unset.
const DefaultTTL = 5 * time.Minute

// Config configures a Slot.
type Config struct {
	// TTL is the freshness window. A value stored at T is served while now-T < TTL.
	TTL time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Slot is a one-line cache with no key. Staleness is checked lazily on read;
// an expired value behaves exactly like an empty slot.
type Slot[T any] struct {
	ttl   time.Duration
	clock func() time.Time

	lock     sync.RWMutex
	value    T
	storedAt time.Time
	filled   bool
}

// New creates an empty slot.
func New[T any](cfg Config) *Slot[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Slot[T]{ttl: cfg.TTL, clock: cfg.Clock}
}

// Get returns the stored value if it is still fresh.
func (s *Slot[T]) Get() (T, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if !s.fresh(s.clock()) {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Set replaces the slot content wholesale and restarts its TTL.
func (s *Slot[T]) Set(value T) {
	now := s.clock()

	s.lock.Lock()
	defer s.lock.Unlock()

	s.value = value
	s.storedAt = now
	s.filled = true
}

// StoredAt reports when the current fresh value was written.
func (s *Slot[T]) StoredAt() (time.Time, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if !s.fresh(s.clock()) {
		return time.Time{}, false
	}
	return s.storedAt, true
}

// ExpiresAt reports the instant the current value stops being served.
func (s *Slot[T]) ExpiresAt() (time.Time, bool) {
	storedAt, ok := s.StoredAt()
	if !ok {
		return time.Time{}, false
	}
	return storedAt.Add(s.ttl), true
}

// TTL returns the configured freshness window.
func (s *Slot[T]) TTL() time.Duration {
	return s.ttl
}

func (s *Slot[T]) fresh(now time.Time) bool {
	return s.filled && now.Sub(s.storedAt) < s.ttl
}
