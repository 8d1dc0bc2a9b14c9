// Package server provides the HTTP server of the preview API.
//
// The server ties the preview handler, the health endpoints and the metrics
// endpoint to one mux, wraps it in the middleware chain and manages the
// listener lifecycle: TLS, signals and graceful shutdown.
//
// # Basic Usage
//
//	b := bridge.New(eng, bridge.SettingsFromConfig(cfg), bridge.WithObserver(collector))
//
//	checker := health.New(5 * time.Second)
//	checker.Register("engine", health.EngineCheck(eng))
//
//	srv := server.NewServer(&cfg.Server, &cfg.Security, server.Dependencies{
//	    Submitter:   b,
//	    Health:      checker,
//	    Metrics:     collector,
//	    MetricsPath: cfg.Telemetry.Metrics.Path,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// # Routes
//
//   - POST /v1/preview, POST /api/preview: pricing preview
//   - GET /health: liveness, always 200
//   - GET /ready: readiness, one engine read
//   - GET /version: build information
//   - GET /metrics (telemetry.metrics.path): Prometheus exposition
//
// # Graceful Shutdown
//
// Start returns after SIGINT, SIGTERM, Stop or the end of its context. The
// listener closes at once and in-flight previews get server.shutdown_timeout
// to finish.
//
// # TLS Support
//
//	security:
//	  tls:
//	    enabled: true
//	    cert_file: "/path/to/cert.pem"
//	    key_file: "/path/to/key.pem"
//	    min_version: "1.3"
//	    reload_interval: 5m
//
// The files are checked every reload_interval while the server runs and a
// renewed pair is picked up without a restart (see security/tls).
package server
