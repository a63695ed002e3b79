// Package metrics exposes the Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobradar"

var (
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"mode", "status"}, // mode: vector/filter
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "search_duration_seconds",
			Help:      "Retrieval request duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	QdrantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qdrant",
			Name:      "requests_total",
			Help:      "Total number of requests to the Qdrant backend",
		},
		[]string{"op", "status"},
	)

	CardsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "cards_rendered_total",
			Help:      "Total number of summary cards rendered",
		},
		[]string{"path"}, // path: full/fallback
	)

	FacetSnapshotSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "facets",
			Name:      "snapshot_size",
			Help:      "Number of distinct values in the last facet snapshot",
		},
		[]string{"facet"}, // facet: role/area
	)
)

// Serve starts the metrics endpoint on the given address. It blocks, so
// callers run it in a goroutine; errors other than a clean shutdown are
// returned to the caller.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return http.ListenAndServe(addr, mux)
}
