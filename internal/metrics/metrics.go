package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission stages that can fail
const (
	StageValidate = "validate"
	StageUpload   = "upload"
	StageRegister = "register"
)

var (
	// Counters
	JobsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_jobs_submitted_total",
			Help: "Total number of jobs uploaded and registered",
		},
		[]string{"engine"},
	)

	SubmitFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_submit_failures_total",
			Help: "Total number of submissions that failed, by stage",
		},
		[]string{"stage"}, // validate, upload, register
	)

	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_status_changes_total",
			Help: "Total number of observed job status transitions",
		},
		[]string{"status"},
	)

	RefreshErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_refresh_errors_total",
			Help: "Total number of failed per-job status queries",
		},
	)

	ResultsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_results_fetched_total",
			Help: "Total number of result downloads",
		},
		[]string{"success"}, // "true" or "false"
	)

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_cancellations_total",
			Help: "Total number of cancellation attempts",
		},
		[]string{"cancelled"},
	)

	// Gauges
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "render_history_size",
			Help: "Current number of jobs tracked in history",
		},
	)

	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "render_active_jobs",
			Help: "Current number of PENDING or IN_PROGRESS jobs",
		},
	)

	// Histogram of a full refresh run; buckets from 50ms to ~100s
	RefreshDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "render_refresh_duration_seconds",
			Help:    "Duration of a refresh over all active jobs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

// BoolLabel renders a label value for true/false dimensions
func BoolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
