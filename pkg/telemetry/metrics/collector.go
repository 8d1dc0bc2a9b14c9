package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/quotegate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every quotegate metric and the registry they live in.
//
// A nil *Collector is valid and records nothing, so components can be built
// without metrics in tests.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	bridgeMetrics *BridgeMetrics
	engineMetrics *EngineMetrics
	httpMetrics   *HTTPMetrics

	// pathLimiter bounds the set of distinct HTTP path labels.
	pathLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		// Submit latencies sit between one poll interval and the deadline.
		cfg.DurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16}
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		bridgeMetrics: NewBridgeMetrics(cfg, registry),
		engineMetrics: NewEngineMetrics(cfg, registry),
		httpMetrics:   NewHTTPMetrics(cfg, registry),
		pathLimiter:   NewCardinalityLimiter(64),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordSubmission records a finished submit.
//
// Parameters:
//   - status: "ready", "timeout", "transport", "contract", "busy",
//     "canceled" or "invalid"
//   - duration: wall time of the whole submit
//   - attempts: engine reads made by the poller
//   - staleReads: reads that carried a foreign or missing token
func (c *Collector) RecordSubmission(status string, duration time.Duration, attempts, staleReads int) {
	if !c.enabled() {
		return
	}
	c.bridgeMetrics.RecordSubmission(status, duration, attempts, staleReads)
}

// RecordGateWait records how long a submit queued for the gate.
func (c *Collector) RecordGateWait(wait time.Duration, acquired bool) {
	if !c.enabled() {
		return
	}
	c.bridgeMetrics.RecordGateWait(wait, acquired)
}

// SetGateHeld sets the gate occupancy gauge (1 held, 0 free).
func (c *Collector) SetGateHeld(held bool) {
	if !c.enabled() {
		return
	}
	c.bridgeMetrics.SetGateHeld(held)
}

// RecordEngineError records a failed engine call. op is "write" or "read".
func (c *Collector) RecordEngineError(op string) {
	if !c.enabled() {
		return
	}
	c.engineMetrics.RecordError(op)
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(path string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.pathLimiter.Allow(path) {
		path = "other"
	}
	c.httpMetrics.RecordRequest(path, strconv.Itoa(status), duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
