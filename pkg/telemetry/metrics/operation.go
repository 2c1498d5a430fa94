package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics tracks lifecycle operation runs and their effects.
//
// Metrics:
//   - retainer_operations_total: runs by operation and status
//   - retainer_operation_duration_seconds: run duration histogram
//   - retainer_indices_deleted_total: indices removed by retention
//   - retainer_alias_actions_total: alias add/remove actions applied
//   - retainer_replica_updates_total: indices whose replica count was set
//   - retainer_history_pruned_total: history records removed by pruning
type OperationMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	indicesDeleted    prometheus.Counter
	aliasActions      *prometheus.CounterVec
	replicaUpdates    prometheus.Counter
	historyPruned     prometheus.Counter
}

// NewOperationMetrics creates and registers operation metrics.
func NewOperationMetrics(namespace string, registry prometheus.Registerer) *OperationMetrics {
	om := &OperationMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of lifecycle operation runs",
			},
			[]string{"operation", "status"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of lifecycle operation runs in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),

		indicesDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indices_deleted_total",
				Help:      "Total number of indices deleted by retention",
			},
		),

		aliasActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alias_actions_total",
				Help:      "Total number of alias actions applied",
			},
			[]string{"action"},
		),

		replicaUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replica_updates_total",
				Help:      "Total number of index replica count updates",
			},
		),

		historyPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_pruned_total",
				Help:      "Total number of run history records pruned",
			},
		),
	}

	registry.MustRegister(
		om.operationsTotal,
		om.operationDuration,
		om.indicesDeleted,
		om.aliasActions,
		om.replicaUpdates,
		om.historyPruned,
	)

	return om
}

// RecordRun records one finished operation run.
func (om *OperationMetrics) RecordRun(operation, status string, duration time.Duration) {
	om.operationsTotal.WithLabelValues(operation, status).Inc()
	om.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
