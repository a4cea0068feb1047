// Package metrics exposes pipeline counters in Prometheus format. Collectors
// live on a private registry that is written to a node-exporter textfile at
// the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fwtriage"

// Metrics collects pipeline counters. A nil *Metrics discards observations.
type Metrics struct {
	registry *prometheus.Registry

	linesProcessed  prometheus.Counter
	events          *prometheus.CounterVec
	criticalWindows prometheus.Counter
	filesSkipped    *prometheus.CounterVec
	releaseAccepted prometheus.Gauge
	runDuration     prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		linesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_processed_total",
			Help:      "Total number of log lines read",
		}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of error events by category",
		}, []string{"category"}),

		criticalWindows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critical_windows_total",
			Help:      "Total number of hourly windows at or above the threshold",
		}),

		filesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Total number of input files skipped",
		}, []string{"reason"}),

		releaseAccepted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "release_accepted",
			Help:      "1 if the last evaluated release was accepted, 0 otherwise",
		}),

		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AddLines records n processed lines.
func (m *Metrics) AddLines(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.linesProcessed.Add(float64(n))
}

// AddEvents records n events of a category.
func (m *Metrics) AddEvents(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.events.WithLabelValues(category).Add(float64(n))
}

// AddCriticalWindows records n critical windows.
func (m *Metrics) AddCriticalWindows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.criticalWindows.Add(float64(n))
}

// FileSkipped records a skipped input file.
func (m *Metrics) FileSkipped(reason string) {
	if m == nil {
		return
	}
	m.filesSkipped.WithLabelValues(reason).Inc()
}

// SetVerdict records the release decision.
func (m *Metrics) SetVerdict(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.releaseAccepted.Set(1)
		return
	}
	m.releaseAccepted.Set(0)
}

// ObserveDuration records the run's wall time.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
}

// WriteTextfile writes all collected metrics to path in the Prometheus text
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
