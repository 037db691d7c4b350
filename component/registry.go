package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atul-1602/memecraft/logger"
)

// StopTimeout bounds each component's Stop call.
const StopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse. Register dependencies first.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	byName     map[string]Component
	// components[:running] have been started and not yet stopped.
	running int
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Component{}}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components = append(r.components, c)
	r.byName[name] = c
	logger.Debug("Component registered", logger.Fields("component", name))
	return nil
}

// StartAll starts every component that is not running yet. When one fails,
// the components started before it are stopped again and the start error is
// returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("Starting components", logger.Fields("count", len(r.components)-r.running))
	for r.running < len(r.components) {
		c := r.components[r.running]
		if err := c.Start(ctx); err != nil {
			logger.Error("Component start failed", logger.MergeWithError(logger.Fields("component", c.Name()), err))
			if stopErr := r.stopRunning(context.WithoutCancel(ctx)); stopErr != nil {
				logger.Warn("Rollback after failed start incomplete", logger.MergeWithError(nil, stopErr))
			}
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.running++
		logger.Debug("Component started", logger.Fields("component", c.Name()))
	}
	return nil
}

// StopAll stops running components in reverse order. Every component gets
// its Stop call even when an earlier one fails; the failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("Stopping components", logger.Fields("count", r.running))
	return r.stopRunning(ctx)
}

func (r *Registry) stopRunning(ctx context.Context) error {
	var errs []error
	for ; r.running > 0; r.running-- {
		c := r.components[r.running-1]
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			logger.Error("Component stop failed", logger.MergeWithError(logger.Fields("component", c.Name()), err))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		logger.Debug("Component stopped", logger.Fields("component", c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll polls every registered component, running or not.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, len(r.components))
	for i, c := range r.components {
		results[i] = c.Health(ctx)
	}
	return results
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
