package memes

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/atul-1602/memecraft/cache"
	"github.com/atul-1602/memecraft/component"
	"github.com/atul-1602/memecraft/errors"
	"github.com/atul-1602/memecraft/httpclient"
	"github.com/atul-1602/memecraft/logger"
	"github.com/atul-1602/memecraft/observability"
	"github.com/atul-1602/memecraft/resilience"
)

const componentName = "memes"

// Outcomes reported to the metrics recorder besides lowercase error codes.
const (
	OutcomeSuccess  = "success"
	OutcomeCacheHit = "cache_hit"
)

// Recorder receives fetch and attempt measurements. *observability.Metrics
// satisfies it.
type Recorder interface {
	RecordFetch(ctx context.Context, outcome string, duration time.Duration)
	RecordAttempt(ctx context.Context, transport, outcome string, duration time.Duration)
}

// Fetcher retrieves the upstream template list behind a local sliding-window
// rate limit, a single-slot TTL cache, per-attempt deadlines and exactly one
// relay fallback. A single Fetcher is meant to be shared for the life of the
// process; it is safe for concurrent use.
type Fetcher struct {
	cfg      Config
	limiter  *resilience.RateLimiter
	slot     *cache.Slot[*TemplateList]
	primary  Transport
	fallback Transport
	breaker  *resilience.CircuitBreaker
	clock    func() time.Time
	log      *logger.Logger
	metrics  Recorder
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithClock replaces time.Now for the limiter, the cache and FetchedAt stamps.
func WithClock(clock func() time.Time) Option {
	return func(f *Fetcher) { f.clock = clock }
}

// WithLogger sets the logger. Defaults to the global logger's "memes" component.
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(f *Fetcher) { f.metrics = r }
}

// WithPrimary replaces the direct transport.
func WithPrimary(t Transport) Option {
	return func(f *Fetcher) { f.primary = t }
}

// WithFallback replaces the relay transport.
func WithFallback(t Transport) Option {
	return func(f *Fetcher) { f.fallback = t }
}

// WithBreaker puts a circuit breaker in front of the primary transport,
// overriding Config.PrimaryBreaker. Pass Abandoned as its Ignore func so
// callers that hang up do not count as upstream failures.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(f *Fetcher) { f.breaker = cb }
}

// NewFetcher builds a Fetcher and the limiter and cache it owns.
func NewFetcher(cfg Config, opts ...Option) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Fetcher{cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.WithComponent(componentName)
	}

	f.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Name:        componentName,
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
		Clock:       f.clock,
	})
	f.slot = cache.New[*TemplateList](cache.Config{TTL: cfg.CacheTTL, Clock: f.clock})

	if f.primary == nil || f.fallback == nil {
		client, err := httpclient.New(httpclient.Config{
			Timeout:          cfg.FallbackTimeout,
			UserAgent:        cfg.UserAgent,
			MaxResponseBytes: cfg.MaxResponseBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("memes: http client: %w", err)
		}
		if f.primary == nil {
			f.primary = NewDirectTransport(client, cfg.Endpoint, cfg.PrimaryTimeout)
		}
		if f.fallback == nil {
			f.fallback = NewRelayTransport(client, cfg.RelayPrefix, cfg.Endpoint, cfg.FallbackTimeout)
		}
	}

	if f.breaker == nil && cfg.PrimaryBreaker.Enabled {
		f.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        componentName + "." + f.primary.Name(),
			MaxFailures: cfg.PrimaryBreaker.MaxFailures,
			OpenTimeout: cfg.PrimaryBreaker.OpenTimeout,
			Ignore:      Abandoned,
			Clock:       f.clock,
			OnStateChange: func(name string, from, to resilience.State) {
				f.log.Warn("primary circuit breaker state changed", logger.Fields(
					"breaker", name, "from", from.String(), "to", to.String(),
				))
			},
		})
	}

	return f, nil
}

// FetchTemplates returns the template list.
//
// Admission is checked first and is spent even when the call is then served
// from cache: the quota counts calls to FetchTemplates, not upstream requests.
// On a cache miss the primary transport is tried once; any failure (transport,
// deadline, HTTP status, success=false, malformed body, open breaker) leads to
// exactly one relay attempt. A failed call leaves the cache untouched and
// returns an *errors.AppError; when both attempts fail the relay's
// classification is returned and the primary's code is kept in the
// "primary_error" detail.
//
// The returned list is shared with the cache and must not be modified.
func (f *Fetcher) FetchTemplates(ctx context.Context) (*TemplateList, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanFetchTemplates)
	defer span.End()

	var list *TemplateList
	err := f.limiter.Execute(func() error {
		var fetchErr error
		list, fetchErr = f.fetchAdmitted(ctx, span, start)
		return fetchErr
	})

	var denied *resilience.RateLimitError
	if stderrors.As(err, &denied) {
		err = errors.RateLimitExceeded(denied.Wait)
		f.log.Warn("template fetch rate limited", logger.Fields(
			"wait_ms", denied.Wait.Milliseconds(),
			"limit", f.limiter.Limit(),
		))
	}
	if err != nil {
		f.finish(ctx, span, start, err)
		return nil, err
	}
	return list, nil
}

// fetchAdmitted serves an admitted call from the cache or the upstream.
// Upstream failures are logged here and recorded by the caller.
func (f *Fetcher) fetchAdmitted(ctx context.Context, span trace.Span, start time.Time) (*TemplateList, error) {
	if list, ok := f.slot.Get(); ok {
		f.log.Debug("template cache hit", logger.Fields("count", list.Len()))
		span.SetAttributes(attribute.Bool(observability.AttrCacheHit, true))
		f.recordFetch(ctx, OutcomeCacheHit, start)
		return list, nil
	}
	span.SetAttributes(attribute.Bool(observability.AttrCacheHit, false))

	list, err := f.fetchUpstream(ctx)
	if err != nil {
		f.log.Error("template fetch failed", logger.MergeWithError(logger.Fields(
			"code", string(errors.CodeOf(err)),
		), err))
		return nil, err
	}

	f.log.Info("templates fetched", logger.Fields(
		"source", string(list.Source),
		"count", list.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	))
	f.finish(ctx, span, start, nil)
	return list, nil
}

// RemainingCapacity returns the admissions left in the current window.
// It never consumes one.
func (f *Fetcher) RemainingCapacity() int {
	return f.limiter.Remaining()
}

// TimeUntilWindowClears returns the time until the oldest counted admission
// leaves the window, or 0 when none is counted.
func (f *Fetcher) TimeUntilWindowClears() time.Duration {
	return f.limiter.TimeUntilReset()
}

// CacheExpiresIn returns how long the cached list stays fresh, or 0 when
// nothing fresh is cached.
func (f *Fetcher) CacheExpiresIn() time.Duration {
	expires, ok := f.slot.ExpiresAt()
	if !ok {
		return 0
	}
	if d := expires.Sub(f.clock()); d > 0 {
		return d
	}
	return 0
}

// Limit returns the admission quota per window.
func (f *Fetcher) Limit() int {
	return f.limiter.Limit()
}

// Config returns the effective configuration.
func (f *Fetcher) Config() Config {
	return f.cfg
}

func (f *Fetcher) fetchUpstream(ctx context.Context) (*TemplateList, error) {
	templates, primaryErr := f.attempt(ctx, f.primary, f.primaryFetch)
	if primaryErr == nil {
		return f.store(templates, SourcePrimary), nil
	}

	if ctx.Err() != nil {
		return nil, errors.Unknown(ctx.Err()).
			WithDetail(errors.DetailTransport, f.primary.Name()).
			WithDetail(errors.DetailPrimaryError, string(primaryErr.Code))
	}

	f.log.Warn("primary transport failed, trying relay", logger.Fields(
		"transport", f.primary.Name(),
		"code", string(primaryErr.Code),
		"error", primaryErr.Error(),
	))

	templates, fallbackErr := f.attempt(ctx, f.fallback, f.fallback.Fetch)
	if fallbackErr == nil {
		return f.store(templates, SourceFallback), nil
	}
	return nil, fallbackErr.WithDetail(errors.DetailPrimaryError, string(primaryErr.Code))
}

// attempt runs one transport call under its own deadline and classifies any
// failure.
func (f *Fetcher) attempt(ctx context.Context, t Transport, fetch func(context.Context) ([]Template, error)) ([]Template, *errors.AppError) {
	start := time.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, t.Timeout())
	defer cancel()

	attemptCtx, span := observability.StartSpan(attemptCtx, observability.SpanUpstreamAttempt,
		trace.WithAttributes(attribute.String(observability.AttrTransport, t.Name())))
	defer span.End()

	templates, err := fetch(attemptCtx)
	if err == nil {
		f.recordAttempt(ctx, t.Name(), OutcomeSuccess, start)
		span.SetAttributes(attribute.Int(observability.AttrTemplateCount, len(templates)))
		return templates, nil
	}

	deadlineHit := stderrors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	appErr := classify(err, deadlineHit).WithDetail(errors.DetailTransport, t.Name())

	span.RecordError(err)
	span.SetStatus(codes.Error, string(appErr.Code))
	f.recordAttempt(ctx, t.Name(), outcomeOf(appErr), start)
	return nil, appErr
}

// Abandoned reports whether err comes from the caller canceling the fetch
// rather than from the upstream.
func Abandoned(err error) bool {
	return httpclient.Is(err, httpclient.KindCanceled) || stderrors.Is(err, context.Canceled)
}

func (f *Fetcher) primaryFetch(ctx context.Context) ([]Template, error) {
	if f.breaker == nil {
		return f.primary.Fetch(ctx)
	}
	var templates []Template
	err := f.breaker.Execute(func() error {
		var fetchErr error
		templates, fetchErr = f.primary.Fetch(ctx)
		return fetchErr
	})
	return templates, err
}

func (f *Fetcher) store(templates []Template, source Source) *TemplateList {
	list := &TemplateList{Templates: templates, Source: source, FetchedAt: f.clock()}
	f.slot.Set(list)
	return list
}

func (f *Fetcher) finish(ctx context.Context, span trace.Span, start time.Time, err error) {
	if err == nil {
		f.recordFetch(ctx, OutcomeSuccess, start)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(errors.CodeOf(err)))
	f.recordFetch(ctx, outcomeOf(err), start)
}

func (f *Fetcher) recordFetch(ctx context.Context, outcome string, start time.Time) {
	if f.metrics != nil {
		f.metrics.RecordFetch(ctx, outcome, time.Since(start))
	}
}

func (f *Fetcher) recordAttempt(ctx context.Context, transport, outcome string, start time.Time) {
	if f.metrics != nil {
		f.metrics.RecordAttempt(ctx, transport, outcome, time.Since(start))
	}
}

// Name implements component.Component.
func (f *Fetcher) Name() string { return componentName }

// Start implements component.Component. State is built in NewFetcher.
func (f *Fetcher) Start(context.Context) error {
	f.log.Info("template fetcher ready", logger.Fields(
		"endpoint", f.cfg.Endpoint,
		"max_requests", f.cfg.MaxRequests,
		"window", f.cfg.Window.String(),
		"cache_ttl", f.cfg.CacheTTL.String(),
	))
	return nil
}

// Stop implements component.Component.
func (f *Fetcher) Stop(context.Context) error { return nil }

// Health reports degraded while the local quota is exhausted or the primary
// breaker is open.
func (f *Fetcher) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if f.RemainingCapacity() == 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("rate limit reached, window clears in %s", f.TimeUntilWindowClears().Round(time.Second))
		return h
	}
	if f.breaker != nil && f.breaker.State() == resilience.StateOpen {
		h.Status = component.StatusDegraded
		h.Message = "primary upstream circuit open, serving through relay"
	}
	return h
}

// Describe implements component.Describable.
func (f *Fetcher) Describe() component.Description {
	return component.Description{
		Name:    "Template Fetcher",
		Type:    "upstream",
		Details: fmt.Sprintf("%s limit=%d/%s ttl=%s", f.cfg.Endpoint, f.cfg.MaxRequests, f.cfg.Window, f.cfg.CacheTTL),
	}
}
