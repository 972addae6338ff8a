// Package observability provides metrics and monitoring capabilities for
// the application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plancheck/plancheck/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Setback    *metrics.SetbackMetrics
	Conversion *metrics.ConversionMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	setbackMetrics, err := metrics.NewSetbackMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create setback metrics: %w", err)
	}

	conversionMetrics, err := metrics.NewConversionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		Setback:    setbackMetrics,
		Conversion: conversionMetrics,
	}, nil
}

// Handler returns an http.Handler exposing the registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
