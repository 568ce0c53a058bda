// Package metrics defines the Prometheus metric collectors used across the
// library and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the library.
type Metrics struct {
	registry *prometheus.Registry

	EventsIngestedTotal *prometheus.CounterVec
	EventsEvictedTotal  prometheus.Counter
	IndexedDocs         prometheus.Gauge
	IndexedTerms        prometheus.Gauge
	SearchesTotal       *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	FuzzyCandidates     prometheus.Histogram
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viperlog_events_ingested_total",
				Help: "Total log events ingested, by level.",
			},
			[]string{"level"},
		),
		EventsEvictedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "viperlog_events_evicted_total",
				Help: "Total log events evicted by retention.",
			},
		),
		IndexedDocs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "viperlog_indexed_documents",
				Help: "Number of documents currently in the inverted index.",
			},
		),
		IndexedTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "viperlog_indexed_terms",
				Help: "Number of distinct terms currently in the inverted index.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viperlog_searches_total",
				Help: "Total searches by kind (term, fuzzy, boolean, query) and outcome (ok, empty, error).",
			},
			[]string{"kind", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "viperlog_search_latency_seconds",
				Help:    "Search latency in seconds, by kind.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		FuzzyCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "viperlog_fuzzy_candidates",
				Help:    "Vocabulary candidates compared per fuzzy search.",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "viperlog_query_cache_hits_total",
				Help: "Total boolean query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "viperlog_query_cache_misses_total",
				Help: "Total boolean query cache misses.",
			},
		),
	}
	m.registry.MustRegister(
		m.EventsIngestedTotal,
		m.EventsEvictedTotal,
		m.IndexedDocs,
		m.IndexedTerms,
		m.SearchesTotal,
		m.SearchLatency,
		m.FuzzyCandidates,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler returns an http.Handler serving the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a metrics server on addr. It blocks, so callers normally run
// it in a goroutine.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
