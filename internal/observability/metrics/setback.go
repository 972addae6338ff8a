// Package metrics provides Prometheus metric collectors for the
// application's components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SetbackMetrics contains Prometheus metrics for validation requests and
// compliance evaluation.
type SetbackMetrics struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	validationDuration prometheus.Histogram
	parseErrorsTotal   prometheus.Counter
	entitiesPerDrawing prometheus.Histogram
}

// NewSetbackMetrics creates and registers new setback metrics
func NewSetbackMetrics(registry *prometheus.Registry) (*SetbackMetrics, error) {
	m := &SetbackMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SetbackMetrics) initMetrics() {
	m.validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setback_validations_total",
			Help: "Total number of setback validations by verdict",
		},
		[]string{"verdict"}, // compliant, non_compliant, error
	)

	m.validationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "setback_validation_duration_seconds",
			Help:    "Time taken to run a full validation including conversion",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	m.parseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "setback_parse_errors_total",
			Help: "Total number of drawings that failed to parse",
		},
	)

	m.entitiesPerDrawing = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "setback_entities_per_drawing",
			Help:    "Number of entities extracted per parsed drawing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
}

// Describe implements the prometheus.Collector interface
func (m *SetbackMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.validationsTotal.Describe(ch)
	m.validationDuration.Describe(ch)
	m.parseErrorsTotal.Describe(ch)
	m.entitiesPerDrawing.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *SetbackMetrics) Collect(ch chan<- prometheus.Metric) {
	m.validationsTotal.Collect(ch)
	m.validationDuration.Collect(ch)
	m.parseErrorsTotal.Collect(ch)
	m.entitiesPerDrawing.Collect(ch)
}

// RecordValidation increments the validation counter for a verdict.
func (m *SetbackMetrics) RecordValidation(verdict string) {
	m.validationsTotal.WithLabelValues(verdict).Inc()
}

// RecordValidationDuration observes the duration of a validation.
func (m *SetbackMetrics) RecordValidationDuration(seconds float64) {
	m.validationDuration.Observe(seconds)
}

// RecordParseError increments the parse error counter.
func (m *SetbackMetrics) RecordParseError() {
	m.parseErrorsTotal.Inc()
}

// RecordEntityCount observes the number of entities in a parsed drawing.
func (m *SetbackMetrics) RecordEntityCount(count int) {
	m.entitiesPerDrawing.Observe(float64(count))
}
