// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// IntentResolutionsTotal tracks resolved intents by type and source.
	IntentResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_resolutions_total",
			Help: "Total intents resolved, by intent type and resolution source",
		},
		[]string{"intent", "source"},
	)

	// CloudEscalationsTotal tracks remote escalation attempts by outcome.
	CloudEscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloud_escalations_total",
			Help: "Total remote inference escalations, by outcome",
		},
		[]string{"outcome"},
	)

	// RemoteLatency tracks remote completion latency.
	RemoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_completion_duration_seconds",
			Help:    "Remote inference completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	// BookingsTotal tracks booking attempts by result.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_bookings_total",
			Help: "Total booking attempts, by result",
		},
		[]string{"result"},
	)

	// BookingConflictsTotal tracks appointments that lost a conflict check.
	BookingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_booking_conflicts_total",
			Help: "Total booking attempts rejected due to interval conflicts",
		},
	)

	// TasksCreatedTotal tracks created tasks.
	TasksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total tasks created",
		},
	)

	// MediaJobsTotal tracks background media analysis jobs by status.
	MediaJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_jobs_total",
			Help: "Total background media analysis jobs, by status",
		},
		[]string{"status"},
	)

	// ActiveSessions tracks the number of live conversational sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_sessions_active",
			Help: "Number of sessions currently held in the session store",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordIntent records a resolved intent.
func RecordIntent(intent, source string) {
	IntentResolutionsTotal.WithLabelValues(intent, source).Inc()
}

// RecordEscalation records a remote escalation outcome.
func RecordEscalation(outcome string) {
	CloudEscalationsTotal.WithLabelValues(outcome).Inc()
}
