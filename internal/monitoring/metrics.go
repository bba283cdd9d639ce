// Package monitoring records Prometheus metrics for element operations.
//
// Metrics are registered on a caller-supplied registerer or on a private
// registry, never on the global default. A nil *Metrics is valid and records
// nothing.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "domkit"

// Sanitize operations
const (
	OpSet = "set"
	OpGet = "get"
)

// Script outcomes
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ElementsCreated prometheus.Counter
	HTMLSanitized   *prometheus.CounterVec
	ScriptsExecuted *prometheus.CounterVec
	ScriptDuration  prometheus.Histogram

	// Snapshot for callers without a scrape endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values
type Snapshot struct {
	ElementsCreated int64
	Sanitized       int64
	ScriptsOK       int64
	ScriptsFailed   int64
	ScriptsSkipped  int64
	ScriptSeconds   float64
}

// NewMetrics creates a metrics collector. A nil registerer gets a private
// registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ElementsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "elements_created_total",
				Help:      "Total number of elements created from descriptors",
			},
		),
		HTMLSanitized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "html_sanitized_total",
				Help:      "Total number of markup sanitization passes",
			},
			[]string{"op"},
		),
		ScriptsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scripts_executed_total",
				Help:      "Total number of re-inserted scripts by outcome",
			},
			[]string{"status"},
		),
		ScriptDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "script_duration_seconds",
				Help:      "Script evaluation duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
	}
}

// IncElementsCreated records one created element
func (m *Metrics) IncElementsCreated() {
	if m == nil {
		return
	}
	m.ElementsCreated.Inc()

	m.mu.Lock()
	m.snapshot.ElementsCreated++
	m.mu.Unlock()
}

// RecordSanitize records a sanitization pass for op ("set" or "get")
func (m *Metrics) RecordSanitize(op string) {
	if m == nil {
		return
	}
	m.HTMLSanitized.WithLabelValues(op).Inc()

	m.mu.Lock()
	m.snapshot.Sanitized++
	m.mu.Unlock()
}

// RecordScript records a script outcome. Duration is observed only for
// scripts that were evaluated.
func (m *Metrics) RecordScript(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ScriptsExecuted.WithLabelValues(status).Inc()
	if status != StatusSkipped {
		m.ScriptDuration.Observe(duration.Seconds())
	}

	m.mu.Lock()
	switch status {
	case StatusOK:
		m.snapshot.ScriptsOK++
	case StatusError:
		m.snapshot.ScriptsFailed++
	case StatusSkipped:
		m.snapshot.ScriptsSkipped++
	}
	if status != StatusSkipped {
		m.snapshot.ScriptSeconds += duration.Seconds()
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of the current values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
