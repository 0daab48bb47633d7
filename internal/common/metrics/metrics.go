// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExportJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	ExportJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	ExportJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "export_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	ExportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_rows_total",
			Help: "Total number of submission rows written to export artifacts",
		},
		[]string{"format"},
	)

	SignatureFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signature_fetch_failures_total",
			Help: "Signature images replaced by the unavailable placeholder",
		},
	)
)
