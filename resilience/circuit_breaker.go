package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is a breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

func (s State) String() string { return string(s) }

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded path in logs.
	Name string
	// MaxFailures consecutive failures open the breaker. Defaults to 3.
	MaxFailures int
	// OpenTimeout is how long calls are rejected before a probe is let
	// through. Defaults to one minute.
	OpenTimeout time.Duration
	// Ignore reports errors that count as neither success nor failure,
	// such as a caller abandoning the call.
	Ignore func(err error) bool
	// OnStateChange is called with the lock held; it must not call back
	// into the breaker.
	OnStateChange func(name string, from, to State)
	Clock         func() time.Time
}

// CircuitBreaker skips an upstream path that keeps failing. The fetcher
// puts one in front of the direct endpoint so a blocked origin costs one
// relay attempt per fetch instead of a timeout plus a relay attempt.
//
// After MaxFailures consecutive failures the breaker opens. Once
// OpenTimeout has passed it is half-open and admits exactly one probe:
// success closes it, failure opens it again. A call that finishes after the
// state it was admitted in has changed is not counted.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
	// generation increases on every state change.
	generation uint64
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute calls fn unless the breaker is open, in which case it returns
// ErrCircuitOpen without calling fn. fn's error is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, ok := cb.admit()
	if !ok {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil && cb.cfg.Ignore != nil && cb.cfg.Ignore(err) {
		cb.release(gen)
		return err
	}
	cb.record(gen, err == nil)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.refresh()
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Failures returns the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker and clears the failure run.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.probing = false
	cb.transition(StateClosed)
}

func (cb *CircuitBreaker) admit() (uint64, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.refresh() {
	case StateClosed:
		return cb.generation, true
	case StateHalfOpen:
		if cb.probing {
			return 0, false
		}
		cb.probing = true
		return cb.generation, true
	default:
		return 0, false
	}
}

// release frees the half-open slot without counting the call.
func (cb *CircuitBreaker) release(gen uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if gen == cb.generation && cb.state == StateHalfOpen {
		cb.probing = false
	}
}

func (cb *CircuitBreaker) record(gen uint64, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if gen != cb.generation {
		return
	}
	wasProbe := cb.probing
	cb.probing = false
	if ok {
		cb.failures = 0
		cb.transition(StateClosed)
		return
	}

	cb.failures++
	if wasProbe || cb.failures >= cb.cfg.MaxFailures {
		cb.openedAt = cb.cfg.Clock()
		cb.transition(StateOpen)
	}
}

// refresh moves an expired open breaker to half-open. Caller holds mu.
func (cb *CircuitBreaker) refresh() State {
	if cb.state == StateOpen && cb.cfg.Clock().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.generation++
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
