package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/proxy/handlers"
	"mercator-hq/quotegate/pkg/proxy/middleware"
	sectls "mercator-hq/quotegate/pkg/security/tls"
	"mercator-hq/quotegate/pkg/telemetry/health"
	"mercator-hq/quotegate/pkg/telemetry/metrics"
	"mercator-hq/quotegate/pkg/telemetry/tracing"
)

// Preview routes. /api/preview is kept for clients of the first release.
const (
	PreviewPath      = "/v1/preview"
	PreviewAliasPath = "/api/preview"
	HealthPath       = "/health"
	ReadyPath        = "/ready"
	VersionPath      = "/version"
)

// BuildInfo is reported by the version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Dependencies are the components the server routes to. Submitter is
// required; the others may be nil.
type Dependencies struct {
	// Submitter answers previews, normally the bridge.
	Submitter handlers.Submitter

	// Health serves /health and /ready. A checker without checks is used
	// when nil.
	Health *health.Checker

	// Metrics is exposed at MetricsPath and records every request.
	Metrics     *metrics.Collector
	MetricsPath string

	// Tracer starts a server span per request.
	Tracer *tracing.Tracer

	Build BuildInfo
}

// Server is the HTTP server of the preview API.
type Server struct {
	config         *config.ServerConfig
	securityConfig *config.SecurityConfig
	deps           Dependencies
	httpServer     *http.Server
	listener       net.Listener
	shutdownChan   chan struct{}
	stopOnce       sync.Once
	shutdownOnce   sync.Once
	mu             sync.RWMutex
	isRunning      bool
	logger         *slog.Logger
}

// NewServer creates a new server.
func NewServer(cfg *config.ServerConfig, securityCfg *config.SecurityConfig, deps Dependencies) *Server {
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	return &Server{
		config:         cfg,
		securityConfig: securityCfg,
		deps:           deps,
		shutdownChan:   make(chan struct{}),
		logger:         slog.Default().With("component", "server"),
	}
}

// Start listens on the configured address and serves until ctx ends, a
// SIGINT or SIGTERM arrives, Stop is called or serving fails. It then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	var reloader *sectls.CertificateReloader
	tlsEnabled := s.securityConfig != nil && s.securityConfig.TLS.Enabled
	if tlsEnabled {
		tlsConfig, r, err := sectls.NewServerConfig(s.securityConfig.TLS)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig
		reloader = r
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	if reloader != nil {
		reloadCtx, stopReload := context.WithCancel(ctx)
		defer stopReload()
		go reloader.Run(reloadCtx)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", ln.Addr().String(),
			"tls_enabled", tlsEnabled,
		)

		var err error
		if tlsEnabled {
			// Certificates come from TLSConfig.GetCertificate.
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server. In-flight previews get up to
// ShutdownTimeout to finish; their submissions release the input slot when
// their contexts end.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	preview := handlers.NewPreviewHandler(s.deps.Submitter, s.config.MaxBodyBytes, s.config.BuildMarker)
	mux.Handle(PreviewPath, preview)
	mux.Handle(PreviewAliasPath, preview)

	mux.Handle(HealthPath, s.deps.Health.LivenessHandler())
	mux.Handle(ReadyPath, s.deps.Health.ReadinessHandler())
	mux.Handle(VersionPath, health.VersionHandler(s.deps.Build.Version, s.deps.Build.Commit, s.deps.Build.BuildTime))

	if s.deps.Metrics != nil && s.deps.MetricsPath != "" {
		mux.Handle(s.deps.MetricsPath, s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux

	// Timeout middleware
	handler = middleware.TimeoutMiddleware(s.config.WriteTimeout)(handler)

	// CORS middleware
	handler = middleware.CORSMiddleware(s.config.CORS)(handler)

	// Metrics middleware
	if s.deps.Metrics != nil {
		handler = middleware.MetricsMiddleware(s.deps.Metrics)(handler)
	}

	// Logging middleware
	handler = middleware.LoggingMiddleware(handler)

	// Request ID middleware, outside logging so completion lines carry it
	handler = middleware.RequestIDMiddleware(handler)

	// Tracing middleware
	if s.deps.Tracer != nil {
		handler = tracing.Middleware(s.deps.Tracer)(handler)
	}

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
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

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
