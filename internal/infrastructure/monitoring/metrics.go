package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status_code"},
	)
)

var (
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement attempts by payment method and outcome",
		},
		[]string{"method", "outcome"},
	)

	PaymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Payment intents by terminal outcome",
		},
		[]string{"outcome"},
	)

	PaymentPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_polls_total",
			Help: "Total number of gateway status polls",
		},
	)

	PaymentWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_wait_duration_seconds",
			Help:    "Time from gateway acceptance to confirmation",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	ReconciliationQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_queued_total",
			Help: "Payment references parked for manual reconciliation",
		},
		[]string{"reason"},
	)

	ReconciliationConfirmedLateTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_confirmed_late_total",
			Help: "Parked references the provider later reported completed",
		},
	)
)

var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

var (
	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Duration of Redis commands in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"command"},
	)

	RedisLockAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_lock_attempts_total",
			Help: "Total number of settlement lock attempts",
		},
		[]string{"lock_type"},
	)

	RedisLockSuccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_lock_success_total",
			Help: "Total number of successful lock acquisitions",
		},
		[]string{"lock_type"},
	)

	RedisLockFailureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_lock_failure_total",
			Help: "Total number of failed lock acquisitions",
		},
		[]string{"lock_type", "reason"},
	)
)

func TimeDBQuery(queryType, table string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start).Seconds()
		DBQueryDuration.WithLabelValues(queryType, table).Observe(duration)
	}
}

func RecordSettlement(method, outcome string) {
	SettlementsTotal.WithLabelValues(method, outcome).Inc()
}

func RecordIntentOutcome(outcome string) {
	PaymentIntentsTotal.WithLabelValues(outcome).Inc()
}

func RecordIntentPoll() {
	PaymentPollsTotal.Inc()
}

func ObservePaymentWait(d time.Duration) {
	PaymentWaitDuration.Observe(d.Seconds())
}

func RecordReconciliationQueued(reason string) {
	ReconciliationQueuedTotal.WithLabelValues(reason).Inc()
}

func RecordLateConfirmation() {
	ReconciliationConfirmedLateTotal.Inc()
}

func RecordLockAttempt(lockType string) {
	RedisLockAttemptsTotal.WithLabelValues(lockType).Inc()
}

func RecordLockSuccess(lockType string) {
	RedisLockSuccessTotal.WithLabelValues(lockType).Inc()
}

func RecordLockFailure(lockType, reason string) {
	RedisLockFailureTotal.WithLabelValues(lockType, reason).Inc()
}
