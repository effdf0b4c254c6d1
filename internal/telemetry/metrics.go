// Package telemetry defines the Prometheus collectors for the ingestion and
// query pipelines and exposes the scrape handler.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	IngestsTotal   *prometheus.CounterVec
	IngestDuration prometheus.Histogram
	ChunksIndexed  prometheus.Counter
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		IngestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docuchat_ingests_total",
				Help: "Total PDF ingestions by outcome.",
			},
			[]string{"status"},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docuchat_ingest_duration_seconds",
				Help:    "End-to-end ingestion latency in seconds.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		ChunksIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docuchat_chunks_indexed_total",
				Help: "Total chunks appended to the shared store.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docuchat_queries_total",
				Help: "Total chat queries by outcome (answered, not_trained, no_match, error).",
			},
			[]string{"status"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docuchat_query_duration_seconds",
				Help:    "End-to-end query latency in seconds.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.IngestsTotal,
		m.IngestDuration,
		m.ChunksIndexed,
		m.QueriesTotal,
		m.QueryDuration,
	)
	return m
}

// Handler returns the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
