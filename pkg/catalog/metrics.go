package catalog

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_upstream_requests_total",
			Help: "Count of upstream fetches by strategy and outcome",
		},
		[]string{"strategy", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_upstream_duration_seconds",
			Help:    "Time taken by upstream fetches",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"strategy"},
	)
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_operations_total",
			Help: "Count of response cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			UpstreamRequests,
			UpstreamDuration,
			CacheOperations,
		)
	})
}

func observeUpstream(strategy, status string, start time.Time) {
	UpstreamRequests.WithLabelValues(strategy, status).Inc()
	UpstreamDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
