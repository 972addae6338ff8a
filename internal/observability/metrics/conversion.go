package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConversionMetrics contains Prometheus metrics for the remote CAD
// conversion client.
type ConversionMetrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	conversionDuration prometheus.Histogram
	cacheHitsTotal     prometheus.Counter
	cacheMissesTotal   prometheus.Counter
}

// NewConversionMetrics creates and registers new conversion metrics
func NewConversionMetrics(registry *prometheus.Registry) (*ConversionMetrics, error) {
	m := &ConversionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ConversionMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_requests_total",
			Help: "Total number of conversion requests by status",
		},
		[]string{"status"}, // success, error
	)

	m.conversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_duration_seconds",
			Help:    "Time taken by the remote conversion round trip",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	m.cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversion_cache_hits_total",
			Help: "Total number of conversions served from the content cache",
		},
	)

	m.cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversion_cache_misses_total",
			Help: "Total number of conversions that required a remote call",
		},
	)
}

// Describe implements the prometheus.Collector interface
func (m *ConversionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.conversionDuration.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
	m.cacheMissesTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *ConversionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.conversionDuration.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
	m.cacheMissesTotal.Collect(ch)
}

// RecordRequest increments the request counter for a status.
func (m *ConversionMetrics) RecordRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordDuration observes the duration of a conversion round trip.
func (m *ConversionMetrics) RecordDuration(seconds float64) {
	m.conversionDuration.Observe(seconds)
}

// RecordCacheHit increments the cache hit counter.
func (m *ConversionMetrics) RecordCacheHit() {
	m.cacheHitsTotal.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (m *ConversionMetrics) RecordCacheMiss() {
	m.cacheMissesTotal.Inc()
}
