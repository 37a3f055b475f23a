// Package metrics exposes Prometheus metrics for photo processing and the
// gallery.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Processing outcomes.
const (
	OutcomeGenerated    = "generated"
	OutcomeAnalyzedOnly = "analyzed_only"
	OutcomeUploadOnly   = "upload_only"
	OutcomeFailed       = "failed"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	processOutcomes *prometheus.CounterVec
	photosDeleted   prometheus.Counter
	modelDuration   *prometheus.HistogramVec
}

func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		processOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kissthem_process_outcomes_total",
				Help: "Processed photos partitioned by pipeline outcome.",
			},
			[]string{"outcome"},
		),
		photosDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kissthem_photos_deleted_total",
				Help: "Photos removed from galleries.",
			},
		),
		modelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kissthem_model_call_duration_seconds",
				Help:    "Latency of generative model calls.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			},
			[]string{"operation", "status"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.processOutcomes.Describe(ch)
	m.photosDeleted.Describe(ch)
	m.modelDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.processOutcomes.Collect(ch)
	m.photosDeleted.Collect(ch)
	m.modelDuration.Collect(ch)
}

func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.processOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPhotosDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.photosDeleted.Add(float64(n))
}

// ObserveModelCall records how long a model operation took.
func (m *Metrics) ObserveModelCall(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.modelDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}
