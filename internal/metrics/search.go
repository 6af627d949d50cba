package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Total number of search queries",
		},
		[]string{"kind"}, // "text" / "browse"
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search engine query duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of matching documents per query before paging",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	indexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents held by the live search engine",
		},
	)

	indexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Total number of index builds",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(searchQueriesTotal, searchDuration, searchResults, indexedDocuments, indexBuildsTotal)
}

// ObserveSearch records one executed query.
func ObserveSearch(text string, total int, elapsed time.Duration) {
	kind := "text"
	if text == "" {
		kind = "browse"
	}
	searchQueriesTotal.WithLabelValues(kind).Inc()
	searchDuration.Observe(elapsed.Seconds())
	searchResults.Observe(float64(total))
}

// SetIndexedDocuments records the size of the live engine.
func SetIndexedDocuments(n int) {
	indexedDocuments.Set(float64(n))
}

// ObserveBuild records the outcome of one index build.
func ObserveBuild(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	indexBuildsTotal.WithLabelValues(status).Inc()
}
