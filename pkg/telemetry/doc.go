// Package telemetry groups the observability packages of quotegate.
//
// # Components
//
//   - logging: slog setup with redaction of emails and credentials
//   - metrics: Prometheus counters and histograms for HTTP requests and
//     bridge submissions
//   - tracing: OpenTelemetry spans for requests and submissions
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.Setup(logging.ConfigFromSettings(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	defer tracer.Shutdown(ctx)
//
//	b := bridge.New(eng, settings,
//		bridge.WithObserver(collector),
//		bridge.WithTracer(tracer),
//		bridge.WithLogger(logger),
//	)
//
// Metrics and tracing each have an enabled flag under telemetry.
package telemetry
