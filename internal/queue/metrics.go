package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics for Prometheus monitoring.
var (
	TasksEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_queue_tasks_enqueued_total",
			Help: "Total number of dispatch tasks enqueued",
		},
	)

	TasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_tasks_processed_total",
			Help: "Total number of dispatch tasks processed by status",
		},
		[]string{"status"}, // ok, failed, dlq
	)

	TaskProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_queue_task_processing_duration_seconds",
			Help:    "Duration of dispatch task processing",
			Buckets: prometheus.DefBuckets,
		},
	)

	DLQTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_dlq_tasks_total",
			Help: "Total number of tasks moved to the DLQ by reason",
		},
		[]string{"reason"},
	)
)
