package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aioseo_workflow_runs_total",
			Help: "Total number of workflow runs by outcome",
		},
		[]string{"outcome"},
	)

	WorkflowStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aioseo_workflow_steps_total",
			Help: "Total number of workflow steps by step name and status",
		},
		[]string{"step", "status"},
	)

	WorkflowRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aioseo_workflow_run_duration_seconds",
			Help:    "Duration of workflow runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"outcome"},
	)

	RunHistoryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aioseo_run_history_errors_total",
			Help: "Run history writes that failed and were dropped",
		},
	)
)
