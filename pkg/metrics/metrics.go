// Package metrics defines the engine's prometheus collectors. Collectors
// are package-level and registered through promauto; callers record
// directly without dependency injection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogLoads counts catalog loads by outcome
	CatalogLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_engine_catalog_loads_total",
		Help: "Total catalog loads by status",
	}, []string{"status"}) // "loaded", "failed", "suppressed"

	// CatalogLoadDuration tracks catalog load latency
	CatalogLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_engine_catalog_load_duration_seconds",
		Help:    "Catalog load duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"status"})

	// QueryExecutions counts query executions by mode and outcome
	QueryExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_engine_query_executions_total",
		Help: "Total query executions by mode and status",
	}, []string{"mode", "status"}) // mode: "preview", "builder", "adhoc", "natural"

	// QueryDuration tracks execution latency by mode
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_engine_query_duration_seconds",
		Help:    "Query execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~80s
	}, []string{"mode"})

	// ResultRows tracks rows returned per execution
	ResultRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explorer_engine_result_rows",
		Help:    "Rows returned per query execution",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
	})

	// InjectionRejections counts executions aborted by the injection guard
	InjectionRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_engine_injection_rejections_total",
		Help: "Executions aborted by the SQL injection guard",
	})

	// StaleResults counts execution results discarded as stale
	StaleResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_engine_stale_results_total",
		Help: "Execution results discarded because the session moved on",
	})

	// ActiveSessions gauges live explorer sessions
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_engine_active_sessions",
		Help: "Number of live explorer sessions",
	})

	// HTTPRequestDuration tracks handler latency by route pattern. The
	// route label is the registered mux pattern, not the raw path, so
	// cardinality stays bounded.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_engine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
