package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	PostsAttempted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tx_enqueue_posts_attempted_total",
			Help: "Total number of job submissions received",
		},
	)

	PostsSucceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tx_enqueue_posts_succeeded_total",
			Help: "Total number of jobs accepted and enqueued",
		},
	)

	PostsInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tx_enqueue_posts_invalid_total",
			Help: "Total number of submissions rejected by payload validation",
		},
	)

	PostsErrored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tx_enqueue_posts_errored_total",
			Help: "Total number of submissions that failed on an unavailable collaborator",
		},
	)

	// Gauges, sampled per request
	QueueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tx_enqueue_queue_length",
			Help: "Pending jobs on the destination queue at enqueue time",
		},
		[]string{"queue"},
	)

	FailedQueueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tx_enqueue_failed_queue_length",
			Help: "Live failed jobs attributed to the destination queue after pruning",
		},
		[]string{"queue"},
	)

	WorkersAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tx_enqueue_workers_available",
			Help: "Workers registered against the destination queue",
		},
		[]string{"queue"},
	)
)
