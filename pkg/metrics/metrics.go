package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all scheduling metrics
type Metrics struct {
	// Appointment lifecycle metrics
	AppointmentsCreated *prometheus.CounterVec
	AppointmentsDeleted prometheus.Counter
	StatusToggles       prometheus.Counter

	// Recurrence metrics
	RecurrenceRequests    prometheus.Counter
	RecurrenceOccurrences prometheus.Histogram
	RecurrenceRejected    prometheus.Counter

	// Drag metrics
	DragCommits   prometheus.Counter
	DragRollbacks prometheus.Counter

	// Export metrics
	Exports *prometheus.CounterVec
}

// NewMetrics creates and registers all scheduling metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AppointmentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Total number of appointments created",
		}, []string{"origin"}),
		AppointmentsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_deleted_total",
			Help:      "Total number of appointments deleted",
		}),
		StatusToggles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_toggles_total",
			Help:      "Total number of done/not-done quick toggles",
		}),
		RecurrenceRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurrence_requests_total",
			Help:      "Total number of recurrence generation requests",
		}),
		RecurrenceOccurrences: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recurrence_occurrences",
			Help:      "Number of occurrences generated per recurrence request",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200},
		}),
		RecurrenceRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurrence_rejected_total",
			Help:      "Total number of recurrence requests rejected by validation",
		}),
		DragCommits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_commits_total",
			Help:      "Total number of drag reschedules persisted",
		}),
		DragRollbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_rollbacks_total",
			Help:      "Total number of drag reschedules rolled back after a failed write",
		}),
		Exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of export operations",
		}, []string{"kind"}),
	}
}
