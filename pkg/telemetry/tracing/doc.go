// Package tracing wires OpenTelemetry into quotegate.
//
// Each submit produces a bridge.submit span with two children: bridge.write
// for the input and token writes, and bridge.poll for the convergence loop.
// The spans carry the correlation token, the number of poll attempts and
// stale reads, and the terminal status.
//
// Exporters:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    exporter: otlp        # gRPC, see endpoint and insecure
//	    endpoint: localhost:4317
//
//	    exporter: stdout      # pretty-printed JSON spans on stdout
//
// With tracing disabled, New returns a Tracer whose spans are noops.
package tracing
