// Package observability holds the Prometheus collectors exported on
// /metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by method, route template and
	// status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_tracker_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expense_tracker_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ErrorsTotal counts failed requests by error kind.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_tracker_errors_total",
			Help: "Failed requests by error kind",
		},
		[]string{"kind"},
	)

	RecurringOccurrencesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expense_tracker_recurring_occurrences_total",
			Help: "Expenses created from recurring templates",
		},
	)

	// WorkerJobsTotal counts recurring worker jobs by outcome
	// (processed, failed, dropped).
	WorkerJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_tracker_worker_jobs_total",
			Help: "Recurring worker jobs",
		},
		[]string{"outcome"},
	)

	WorkerQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "expense_tracker_worker_queue_depth",
			Help: "Jobs waiting per worker partition",
		},
		[]string{"partition"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ErrorsTotal,
		RecurringOccurrencesTotal,
		WorkerJobsTotal,
		WorkerQueueDepth,
	)
}
