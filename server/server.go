package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/atul-1602/memecraft/logger"
	"github.com/atul-1602/memecraft/observability"
	"github.com/atul-1602/memecraft/server/endpoint"
	"github.com/atul-1602/memecraft/server/middleware"
)

// Server serves the Gin engine from a root ServeMux, over HTTP/1.1 and h2c
// on one port. Server-level middleware wraps the mux.
type Server struct {
	cfg     Config
	log     *logger.Logger
	engine  *gin.Engine
	mux     *http.ServeMux
	handler http.Handler
	srv     *http.Server
	addr    atomic.Pointer[string]
}

// New builds a Server with no middleware installed.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	s := &Server{
		cfg:    cfg,
		log:    log.WithComponent("server"),
		engine: gin.New(),
		mux:    http.NewServeMux(),
	}
	s.mux.Handle("/", s.engine)
	s.handler = s.mux

	h2 := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: cfg.IdleTimeout}
	s.srv = &http.Server{
		Addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler: h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.handler.ServeHTTP(w, r)
		}), h2),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// GinEngine is where API routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Handle mounts h on the root mux next to the Gin engine.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
	s.log.Debug("Handler mounted", logger.Fields("pattern", pattern))
}

// Start binds the listener and serves in the background. It returns once
// the port is bound.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	addr := ln.Addr().String()
	s.addr.Store(&addr)

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("HTTP server listening", logger.Fields("addr", addr))
	return nil
}

// Stop drains in-flight requests for at most the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Listening reports whether Start has bound the port.
func (s *Server) Listening() bool { return s.addr.Load() != nil }

// Addr is the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	if a := s.addr.Load(); a != nil {
		return *a
	}
	return s.srv.Addr
}

// ApplyMiddleware installs the standard stack. Recovery, request IDs, CORS
// and request logging wrap the root mux. Telemetry runs inside Gin so spans
// and metrics carry the matched route template.
func (s *Server) ApplyMiddleware(service string, metrics *observability.Metrics) {
	s.engine.Use(middleware.Telemetry(service, metrics))
	s.handler = middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.cfg.CORS),
		middleware.RequestLogger(s.log),
	)(s.mux)
}

// RegisterDefaultEndpoints mounts the system routes listed in systemPaths.
func (s *Server) RegisterDefaultEndpoints(service string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(service, checker))
	s.engine.GET("/liveness", endpoint.Liveness(service))
	s.engine.GET("/readiness", endpoint.Readiness(service, checker))
	s.engine.GET("/info", endpoint.Info(service))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/metrics", endpoint.Runtime())
}

// ApplyDefaults is ApplyMiddleware followed by RegisterDefaultEndpoints.
func (s *Server) ApplyDefaults(service string, metrics *observability.Metrics, checker endpoint.HealthChecker) {
	s.ApplyMiddleware(service, metrics)
	s.RegisterDefaultEndpoints(service, checker)
}
