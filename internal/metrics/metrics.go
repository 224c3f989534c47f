// package metrics registers the prometheus collectors for searches and the HTTP surface
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booksearch_searches_total",
		Help: "Total number of catalog searches by outcome",
	}, []string{"status"})

	SearchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booksearch_search_failures_total",
		Help: "Failed catalog searches by failure kind",
	}, []string{"kind"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booksearch_search_duration_seconds",
		Help:    "Duration of catalog searches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booksearch_search_results",
		Help:    "Number of books returned per successful search",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})

	SearchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booksearch_search_in_flight",
		Help: "1 while a search is in flight",
	})

	SharesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booksearch_shares_total",
		Help: "Share artifacts prepared by outcome",
	}, []string{"status"})

	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booksearch_http_requests_total",
		Help: "Total number of HTTP requests to the API server",
	}, []string{"method", "path", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booksearch_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)
