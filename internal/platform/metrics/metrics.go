package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SearchesCreated prometheus.Counter
	JobsCompleted   prometheus.Counter
	JobsFailed      prometheus.Counter
	ScoringDuration prometheus.Histogram
	ResultsExported prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SearchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pastcheck_searches_created_total",
			Help: "Total number of verification searches submitted",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pastcheck_jobs_completed_total",
			Help: "Total number of jobs that reached completed",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pastcheck_jobs_failed_total",
			Help: "Total number of jobs that reached failed",
		}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pastcheck_scoring_duration_seconds",
			Help:    "Time spent computing a risk score at job completion",
			Buckets: prometheus.DefBuckets,
		}),
		ResultsExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pastcheck_results_exported_total",
			Help: "Total number of completed results handed to the export renderer",
		}),
	}
}
