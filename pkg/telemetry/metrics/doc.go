// Package metrics provides Prometheus metrics for quotegate.
//
// # Metrics
//
//   - quotegate_bridge_submissions_total{status}
//   - quotegate_bridge_submit_duration_seconds
//   - quotegate_bridge_poll_attempts
//   - quotegate_bridge_stale_reads_total
//   - quotegate_bridge_gate_wait_seconds{outcome}
//   - quotegate_bridge_gate_held
//   - quotegate_engine_errors_total{op}
//   - quotegate_http_requests_total{path,status}
//   - quotegate_http_request_duration_seconds{path}
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	b := bridge.New(eng, settings, bridge.WithObserver(collector))
//	mux.Handle("/metrics", collector.Handler())
//
// Every metric lives in the collector's own registry rather than the
// Prometheus default registry, so tests can build collectors freely.
// HTTP path labels are capped by a CardinalityLimiter; paths past the cap
// are reported as "other".
package metrics
