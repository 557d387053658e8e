package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the application counters exposed on /metrics.
type Metrics struct {
	Predictions        prometheus.Counter
	PredictionFailures prometheus.Counter
	WhatIfs            prometheus.Counter
	DeletedRows        prometheus.Counter
	PredictionDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics registers the application metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heartrisk",
			Name:      "predictions_total",
			Help:      "Predictions served and logged to history.",
		}),
		PredictionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heartrisk",
			Name:      "prediction_failures_total",
			Help:      "Predictions that failed to score, explain or persist.",
		}),
		WhatIfs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heartrisk",
			Name:      "whatif_total",
			Help:      "What-if re-scores.",
		}),
		DeletedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heartrisk",
			Name:      "history_deleted_rows_total",
			Help:      "History rows removed.",
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heartrisk",
			Name:      "prediction_duration_seconds",
			Help:      "Time to encode, score and explain one record.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Predictions,
		m.PredictionFailures,
		m.WhatIfs,
		m.DeletedRows,
		m.PredictionDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
