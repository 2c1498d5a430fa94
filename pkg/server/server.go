package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/runner"
	"mercator-hq/retainer/pkg/security/auth"
	"mercator-hq/retainer/pkg/server/middleware"
	"mercator-hq/retainer/pkg/telemetry/health"
)

// StatusReader serves the read-only status routes.
// *lifecycle.Manager satisfies it.
type StatusReader interface {
	ListIndices(ctx context.Context) ([]string, error)
	ListIndexSettings(ctx context.Context) (map[string]lifecycle.IndexSettings, error)
	ListAliases(ctx context.Context) (lifecycle.AliasState, error)
}

// OperationRunner executes lifecycle operations. *runner.Runner satisfies it.
type OperationRunner interface {
	Run(ctx context.Context, op runner.Operation, trigger runner.Trigger) (*history.Run, error)
}

// Deps are the collaborators behind the routes. Status, Runner and Health
// are required; a nil History disables /history and a nil Metrics handler
// disables the metrics route. Auth guards the action routes; nil leaves
// them open.
type Deps struct {
	Status  StatusReader
	Runner  OperationRunner
	History history.Store
	Health  *health.Checker
	Version health.VersionInfo
	Metrics http.Handler
	Auth    *auth.Validator
}

// Server is the retainer HTTP server.
type Server struct {
	config      config.ServerConfig
	metricsPath string
	deps        Deps
	actions     *rate.Limiter

	statusMu sync.RWMutex
	status   StatusReader

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// New creates a server for cfg. metricsPath is where deps.Metrics is mounted.
func New(cfg config.ServerConfig, metricsPath string, deps Deps) *Server {
	return &Server{
		config:      cfg,
		metricsPath: metricsPath,
		deps:        deps,
		actions:     middleware.NewLimiter(cfg.ActionsPerMinute, cfg.ActionBurst),
		status:      deps.Status,
		logger:      slog.Default().With("component", "server"),
	}
}

// SetStatusReader swaps the reader behind the status routes after a
// configuration reload.
func (s *Server) SetStatusReader(r StatusReader) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = r
}

func (s *Server) statusReader() StatusReader {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		listener.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", listener.Addr().String())

		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
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

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("HTTP server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status/indices", s.handleIndices)
	mux.HandleFunc("GET /status/settings", s.handleSettings)
	mux.HandleFunc("GET /status/aliases", s.handleAliases)
	var action http.Handler = http.HandlerFunc(s.handleAction)
	action = auth.Middleware(s.deps.Auth)(action)
	action = middleware.RateLimit(s.actions)(action)
	mux.Handle("POST /actions/{operation}", action)

	if s.deps.History != nil {
		mux.HandleFunc("GET /history", s.handleHistory)
		mux.HandleFunc("GET /history/{id}", s.handleRun)
	}

	mux.HandleFunc("GET /health", s.deps.Health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.deps.Health.ReadinessHandler())
	mux.HandleFunc("GET /version", health.VersionHandler(s.deps.Version))

	quiet := []string{"/health", "/ready"}
	if s.deps.Metrics != nil && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.deps.Metrics)
		quiet = append(quiet, s.metricsPath)
	}

	var handler http.Handler = mux
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(quiet...)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
