package app

import (
	"context"
	"fmt"

	"github.com/atul-1602/memecraft/api"
	"github.com/atul-1602/memecraft/bootstrap"
	"github.com/atul-1602/memecraft/logger"
	"github.com/atul-1602/memecraft/memes"
	"github.com/atul-1602/memecraft/observability"
	"github.com/atul-1602/memecraft/server"
)

// Service is a wired memecraft process.
type Service struct {
	App     *bootstrap.App[*Config]
	Fetcher *memes.Fetcher
	Server  *server.Server
	Metrics *observability.Metrics
}

// Options tune Build.
type Options struct {
	// WithoutServer skips the HTTP server, for one-shot commands.
	WithoutServer bool
	Bootstrap     []bootstrap.Option
	Fetcher       []memes.Option
}

// Build validates cfg, sets up telemetry and wires the fetcher and, unless
// disabled, the HTTP server into a bootstrap app. Nothing is started.
func Build(ctx context.Context, cfg *Config, opts Options) (*Service, error) {
	a, err := bootstrap.NewApp(cfg, opts.Bootstrap...)
	if err != nil {
		return nil, err
	}
	svc := &Service{App: a}

	if err := svc.initTelemetry(ctx); err != nil {
		return nil, err
	}

	fetcherOpts := append([]memes.Option{
		memes.WithMetrics(svc.Metrics),
		memes.WithLogger(a.Logger.WithComponent("memes")),
	}, opts.Fetcher...)
	svc.Fetcher, err = memes.NewFetcher(cfg.Upstream, fetcherOpts...)
	if err != nil {
		return nil, fmt.Errorf("template fetcher: %w", err)
	}
	if err := a.RegisterComponent(svc.Fetcher); err != nil {
		return nil, err
	}

	if opts.WithoutServer {
		return svc, nil
	}

	svc.Server = server.New(cfg.Server, a.Logger)
	svc.Server.ApplyDefaults(cfg.Name, svc.Metrics, a.Components.HealthAll)
	api.NewHandler(svc.Fetcher, a.Logger).Register(svc.Server.GinEngine())
	if err := a.RegisterComponent(server.NewComponent(svc.Server)); err != nil {
		return nil, err
	}
	return svc, nil
}

// initTelemetry installs the OTLP tracer and meter providers when enabled
// and registers their shutdown. Disabled exporters leave the global no-op
// providers in place; instruments are still created against them.
func (s *Service) initTelemetry(ctx context.Context) error {
	cfg := s.App.Cfg

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		s.App.OnStop(tp.Shutdown)
	}
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, &cfg.Metrics)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		s.App.OnStop(mp.Shutdown)
	}

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return fmt.Errorf("metrics instruments: %w", err)
	}
	s.Metrics = metrics

	s.App.Logger.Debug("Telemetry configured", logger.Fields(
		"tracing", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled,
	))
	return nil
}
