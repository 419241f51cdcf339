package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync metrics - Track cache synchronization runs
var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdcache_sync_runs_total",
			Help: "Total number of sync runs by outcome",
		},
		[]string{"status"},
	)

	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdcache_pages_fetched_total",
		Help: "Total number of ledger pages fetched",
	})

	ProjectsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdcache_projects_inserted_total",
		Help: "Total number of project records inserted into the cache",
	})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdcache_sync_duration_seconds",
		Help:    "Time taken by a full sync run",
		Buckets: prometheus.DefBuckets,
	})
)

// State metrics - Track current cache state
var (
	CachedProjects = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crowdcache_cached_projects",
		Help: "Number of project records currently cached",
	})
)

// API metrics - Track read-path usage
var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdcache_api_requests_total",
			Help: "Total number of API requests by endpoint",
		},
		[]string{"endpoint"},
	)
)
