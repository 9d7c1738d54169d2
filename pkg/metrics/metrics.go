package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notifier metrics are package-level: the notification pipeline is spread
// across orchestrator, scanners and sweeper, and they all share one set of
// counters.
var (
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered, by channel",
	}, []string{"channel"})

	NotificationSendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "notification_send_failures_total",
		Help:      "Channel delivery attempts that failed",
	}, []string{"channel"})

	NotificationsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "notifications_scheduled_total",
		Help:      "Deliveries deferred by a quiet window, by reason",
	}, []string{"reason"})

	NotificationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "notifications_skipped_total",
		Help:      "Notifications suppressed before dispatch, by reason",
	}, []string{"reason"})

	ScanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "scan_runs_total",
		Help:      "Scanner executions, by scanner and status",
	}, []string{"scanner", "status"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "backoffice",
		Name:      "scan_duration_seconds",
		Help:      "Time spent per scanner run",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"scanner"})

	PendingSweepReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "pending_deliveries_released_total",
		Help:      "Deferred deliveries released by the sweeper",
	})
)

// Metrics holds the infrastructure metrics threaded through the outbox
// processor and stores.
type Metrics struct {
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxQueueSize         prometheus.Gauge
	OutboxRetries           *prometheus.CounterVec

	DatabaseOperations  *prometheus.CounterVec
	DatabaseLatency     *prometheus.HistogramVec
	DatabaseConnections prometheus.Gauge

	RedisOperations  *prometheus.CounterVec
	RedisLatency     *prometheus.HistogramVec
	RedisConnections prometheus.Gauge
}

// NewMetrics creates and registers all infrastructure metrics.
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_queue_size",
			Help:      "Current number of events in the outbox queue",
		}),
		OutboxRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DatabaseConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_connections",
			Help:      "Current number of database connections",
		}),

		RedisOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
		RedisLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operation_duration_seconds",
			Help:      "Duration of Redis operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
		RedisConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_connections",
			Help:      "Current number of Redis connections",
		}),
	}
}
