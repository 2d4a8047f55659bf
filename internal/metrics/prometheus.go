package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enqueue metrics
var (
	MessagesEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_messages_enqueued_total",
			Help: "Total number of message records created and queued",
		},
		[]string{"template"},
	)

	DuplicatesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_duplicates_skipped_total",
			Help: "Total number of enqueue calls deduplicated by fingerprint",
		},
	)

	EnqueueRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_enqueue_rejected_total",
			Help: "Total number of enqueue calls rejected before a record was created",
		},
		[]string{"reason"}, // empty_recipient, store_error, queue_error
	)
)

// Dispatch metrics
var (
	DispatchOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_outcome_total",
			Help: "Total number of dispatch attempts by terminal outcome",
		},
		[]string{"outcome"}, // sent, suppressed, failed, skipped
	)

	SuppressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_suppressions_total",
			Help: "Total number of suppressed messages by cause",
		},
		[]string{"cause"}, // template_disabled, template_missing, opt_out
	)

	RenderDefectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_render_defects_total",
			Help: "Total number of messages failed due to unresolved template tokens",
		},
		[]string{"part"}, // subject, body
	)

	ProviderSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_provider_send_duration_seconds",
			Help:    "Duration of delivery provider send calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
