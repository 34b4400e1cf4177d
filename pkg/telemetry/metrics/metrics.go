// Package metrics provides Prometheus instrumentation for the evidence
// core: access decisions, integrity checks, and audit log writes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Namespace is the Prometheus metric namespace.
	// Default: "custodia"
	Namespace string

	// Subsystem is the Prometheus metric subsystem.
	// Default: "evidence"
	Subsystem string
}

// Collector registers and records all Prometheus metrics for the evidence
// core. All methods are safe for concurrent use; a nil *Collector is a
// no-op so instrumentation stays optional.
type Collector struct {
	registry *prometheus.Registry

	decisions      *prometheus.CounterVec
	decisionTime   prometheus.Histogram
	integrityTotal *prometheus.CounterVec
	hashDuration   prometheus.Histogram
	auditWrites    *prometheus.CounterVec
	auditDropped   prometheus.Counter
}

// NewCollector creates a metrics collector registered against the given
// registry. If registry is nil, a fresh private registry is used, which
// keeps repeated construction (tests, CLI runs) free of duplicate
// registration panics.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "custodia"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "evidence"
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "access_decisions_total",
			Help:      "Access control decisions by action, result, and denial reason.",
		}, []string{"action", "result", "reason"}),

		decisionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "access_decision_duration_seconds",
			Help:      "Latency of the in-memory access decision pipeline.",
			// The decision path is I/O-free; sub-millisecond buckets.
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
		}),

		integrityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "integrity_checks_total",
			Help:      "Integrity verifications by outcome (verified, failed, corrupted).",
		}, []string{"status"}),

		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "hash_duration_seconds",
			Help:      "Duration of digest computation over evidence content.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),

		auditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "audit_writes_total",
			Help:      "Audit log append attempts by outcome (ok, error).",
		}, []string{"outcome"}),

		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "audit_entries_dropped_total",
			Help:      "Audit entries dropped because the async buffer was full.",
		}),
	}

	registry.MustRegister(
		c.decisions,
		c.decisionTime,
		c.integrityTotal,
		c.hashDuration,
		c.auditWrites,
		c.auditDropped,
	)

	return c
}

// Registry returns the Prometheus registry the collector is bound to.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveDecision records one access decision.
func (c *Collector) ObserveDecision(action, result, reason string, duration time.Duration) {
	if c == nil {
		return
	}
	c.decisions.WithLabelValues(action, result, reason).Inc()
	c.decisionTime.Observe(duration.Seconds())
}

// ObserveIntegrityCheck records one integrity verification outcome.
func (c *Collector) ObserveIntegrityCheck(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.integrityTotal.WithLabelValues(status).Inc()
	c.hashDuration.Observe(duration.Seconds())
}

// ObserveAuditWrite records one audit append attempt.
func (c *Collector) ObserveAuditWrite(ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.auditWrites.WithLabelValues(outcome).Inc()
}

// ObserveAuditDropped records an audit entry lost to a full buffer.
func (c *Collector) ObserveAuditDropped() {
	if c == nil {
		return
	}
	c.auditDropped.Inc()
}
