package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"turfgame/exporter/pkg/config"
	"turfgame/exporter/pkg/server/middleware"
	"turfgame/exporter/pkg/telemetry/health"
	"turfgame/exporter/pkg/telemetry/tracing"
)

// MetricsPath serves the Turf user metrics. Prometheus scrape configs written
// for the previous exporter point here, so it is not configurable.
const MetricsPath = "/metrics"

// PingPath answers "success" for simple uptime probes.
const PingPath = "/ping"

// Routes holds the handlers the server mounts.
type Routes struct {
	// Metrics serves the Turf user metrics on MetricsPath.
	Metrics http.Handler

	// SelfMetrics serves the exporter's own metrics. Nil disables the path.
	SelfMetrics http.Handler

	// Health holds the liveness, readiness, version and ping handlers.
	Health health.HealthCheckHandlers
}

// Server is the exporter's HTTP server.
type Server struct {
	config    *config.ServerConfig
	telemetry *config.TelemetryConfig
	routes    Routes
	logger    *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. Routes.Metrics is required.
func New(cfg *config.Config, routes Routes, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if routes.Metrics == nil {
		return nil, errors.New("server: metrics handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config:    &cfg.Server,
		telemetry: &cfg.Telemetry,
		routes:    routes,
		logger:    logger.With("component", "server"),
	}, nil
}

// Start listens on the configured address and serves until ctx is cancelled
// or the listener fails. On cancellation it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "address", ln.Addr().String())

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("http server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET "+MetricsPath, s.routes.Metrics)

	h := s.telemetry.Health
	mount := func(path string, handler http.HandlerFunc) {
		if path != "" && handler != nil {
			mux.Handle(path, handler)
		}
	}
	mount(PingPath, s.routes.Health.PingHandler)
	mount(h.LivenessPath, s.routes.Health.LivenessHandler)
	mount(h.ReadinessPath, s.routes.Health.ReadinessHandler)
	mount(h.VersionPath, s.routes.Health.VersionHandler)

	if s.routes.SelfMetrics != nil && s.telemetry.Metrics.IsEnabled() && s.telemetry.Metrics.Path != "" {
		mux.Handle("GET "+s.telemetry.Metrics.Path, s.routes.SelfMetrics)
	}

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
