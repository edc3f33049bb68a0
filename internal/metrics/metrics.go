package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "addon",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	DirectoryRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "directory_requests_total",
		Help:      "Indexer directory lookups by result status.",
	}, []string{"status"})

	IndexerRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "indexer_requests_total",
		Help:      "Per-indexer search requests by indexer id and result status.",
	}, []string{"indexer", "status"})

	IndexerRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "addon",
		Name:      "indexer_request_duration_seconds",
		Help:      "Per-indexer search duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"indexer"})

	SearchCompletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "search_completions_total",
		Help:      "Completed searches by trigger (all_replied, deadline, no_indexers, cancelled).",
	}, []string{"trigger"})

	LateResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "late_results_total",
		Help:      "Indexer responses discarded because the search had already completed.",
	})

	ResolveOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "resolve_outcomes_total",
		Help:      "Locator resolution outcomes (magnet, torrent, no_locator, failed).",
	}, []string{"outcome"})

	MetaCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "meta_cache_hits_total",
		Help:      "Total number of metadata cache hits.",
	})

	MetaCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "addon",
		Name:      "meta_cache_misses_total",
		Help:      "Total number of metadata cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		DirectoryRequestsTotal,
		IndexerRequestsTotal,
		IndexerRequestDuration,
		SearchCompletionsTotal,
		LateResultsTotal,
		ResolveOutcomesTotal,
		MetaCacheHitsTotal,
		MetaCacheMissesTotal,
	)
}
