package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/atul-1602/memecraft/logger"
)

// MeterConfig controls metric export over OTLP/HTTP.
type MeterConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	ServiceName    string `yaml:"-" mapstructure:"-"`
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`
}

// DefaultMeterConfig targets a local collector with a 15s export interval.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
		ServiceName: serviceName,
		Environment: "development",
	}
}

// InitMeter installs a periodic OTLP meter provider as the global provider.
// The caller owns Shutdown.
func InitMeter(ctx context.Context, cfg *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("Meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the service instruments: inbound HTTP requests, template
// fetches and the upstream attempts behind them.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
	fetchTotal      metric.Int64Counter
	fetchDuration   metric.Float64Histogram
	attemptTotal    metric.Int64Counter
	attemptDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	b := instruments{meter: meter}
	m := &Metrics{
		requestTotal:    b.counter("http.request.total", "HTTP requests by route and status"),
		requestDuration: b.seconds("http.request.duration", "HTTP request duration"),
		requestActive:   b.gauge("http.request.active", "In-flight HTTP requests"),
		fetchTotal:      b.counter("memes.fetch.total", "Template fetch calls by outcome"),
		fetchDuration:   b.seconds("memes.fetch.duration", "Template fetch duration"),
		attemptTotal:    b.counter("memes.upstream.attempt.total", "Upstream attempts by transport and outcome"),
		attemptDuration: b.seconds("memes.upstream.attempt.duration", "Upstream attempt duration"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// instruments creates instruments until the first error, then no-ops.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) counter(name, desc string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		b.err = fmt.Errorf("counter %s: %w", name, err)
	}
	return c
}

func (b *instruments) seconds(name, desc string) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		b.err = fmt.Errorf("histogram %s: %w", name, err)
	}
	return h
}

func (b *instruments) gauge(name, desc string) metric.Int64UpDownCounter {
	if b.err != nil {
		return nil
	}
	g, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		b.err = fmt.Errorf("up-down counter %s: %w", name, err)
	}
	return g
}

// RecordRequestStart counts a request as in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd records a completed request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, route, status string, elapsed time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
	))
}

// RecordFetch records one FetchTemplates call.
func (m *Metrics) RecordFetch(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.fetchTotal.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordAttempt records one upstream attempt on the named transport.
func (m *Metrics) RecordAttempt(ctx context.Context, transport, outcome string, elapsed time.Duration) {
	m.attemptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("outcome", outcome),
	))
	m.attemptDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("transport", transport),
	))
}
