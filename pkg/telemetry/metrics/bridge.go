package metrics

import (
	"time"

	"mercator-hq/quotegate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BridgeMetrics tracks the synchronization bridge.
//
// Metrics:
//   - quotegate_bridge_submissions_total: submits by terminal status
//   - quotegate_bridge_submit_duration_seconds: submit wall time
//   - quotegate_bridge_poll_attempts: engine reads per submit
//   - quotegate_bridge_stale_reads_total: reads carrying another token
//   - quotegate_bridge_gate_wait_seconds: time queued for the gate
//   - quotegate_bridge_gate_held: 1 while a submit owns the engine
type BridgeMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitDuration   prometheus.Histogram
	pollAttempts     prometheus.Histogram
	staleReadsTotal  prometheus.Counter
	gateWait         *prometheus.HistogramVec
	gateHeld         prometheus.Gauge
}

// NewBridgeMetrics creates and registers bridge metrics.
func NewBridgeMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *BridgeMetrics {
	bm := &BridgeMetrics{
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "submissions_total",
				Help:      "Total number of submits by terminal status",
			},
			[]string{"status"},
		),

		submitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "submit_duration_seconds",
				Help:      "Duration of submits in seconds, gate wait included",
				Buckets:   cfg.DurationBuckets,
			},
		),

		pollAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "poll_attempts",
				Help:      "Number of output reads per submit",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
			},
		),

		staleReadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "stale_reads_total",
				Help:      "Total number of output reads whose token did not match",
			},
		),

		gateWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "gate_wait_seconds",
				Help:      "Time spent waiting for the serialization gate",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"outcome"},
		),

		gateHeld: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "bridge",
				Name:      "gate_held",
				Help:      "1 while a submit holds the serialization gate",
			},
		),
	}

	registry.MustRegister(
		bm.submissionsTotal,
		bm.submitDuration,
		bm.pollAttempts,
		bm.staleReadsTotal,
		bm.gateWait,
		bm.gateHeld,
	)

	return bm
}

// RecordSubmission records a finished submit.
func (bm *BridgeMetrics) RecordSubmission(status string, duration time.Duration, attempts, staleReads int) {
	bm.submissionsTotal.WithLabelValues(status).Inc()
	bm.submitDuration.Observe(duration.Seconds())
	if attempts > 0 {
		bm.pollAttempts.Observe(float64(attempts))
	}
	if staleReads > 0 {
		bm.staleReadsTotal.Add(float64(staleReads))
	}
}

// RecordGateWait records a gate acquisition attempt.
func (bm *BridgeMetrics) RecordGateWait(wait time.Duration, acquired bool) {
	outcome := "acquired"
	if !acquired {
		outcome = "abandoned"
	}
	bm.gateWait.WithLabelValues(outcome).Observe(wait.Seconds())
}

// SetGateHeld sets the gate occupancy gauge.
func (bm *BridgeMetrics) SetGateHeld(held bool) {
	if held {
		bm.gateHeld.Set(1)
		return
	}
	bm.gateHeld.Set(0)
}
