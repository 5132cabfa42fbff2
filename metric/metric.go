// Package metric exposes Prometheus instrumentation for the cadence engine.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOps counts Task Store operations by operation name and outcome.
	StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "store_ops_total",
		Help:      "Task Store operations by operation and outcome.",
	}, []string{"op", "outcome"})

	// OverdueTasks reports the overdue open-task count from the last sweep.
	OverdueTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cadence",
		Name:      "overdue_tasks",
		Help:      "Overdue open tasks observed by the last sweep.",
	})

	// BlockedTasks reports the blocked open-task count from the last sweep.
	BlockedTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cadence",
		Name:      "blocked_tasks",
		Help:      "Blocked open tasks observed by the last sweep.",
	})

	// FocusBatches counts focused-batch computations by selection tier.
	FocusBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "focus_batches_total",
		Help:      "Focused-batch computations by selection tier.",
	}, []string{"tier"})

	// NotesAppended counts notes written through the tracker.
	NotesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "notes_appended_total",
		Help:      "Notes appended to tasks.",
	})

	// ClockRestarts counts confirmed restart-the-clock transitions.
	ClockRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "clock_restarts_total",
		Help:      "Confirmed restart-the-clock transitions.",
	})
)

// RecordStoreOp records one store operation outcome.
func RecordStoreOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOps.WithLabelValues(op, outcome).Inc()
}
