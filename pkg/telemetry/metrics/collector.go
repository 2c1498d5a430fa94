package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/retainer/pkg/config"
)

// Collector owns every retainer metric and the registry they live in.
//
// It implements elastic.Observer for backend requests and
// lifecycle.Recorder for the changes each operation applies, so it can be
// handed directly to the gateway client and the lifecycle manager.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	operations *OperationMetrics
	backend    *BackendMetrics
}

// NewCollector creates a collector that registers its metrics in registry.
// A nil registry gets a fresh one with the Go runtime and process
// collectors attached.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		operations: NewOperationMetrics(cfg.Namespace, registry),
		backend:    NewBackendMetrics(cfg.Namespace, registry),
	}
}

// RecordOperation records one finished run of operation with status
// "success" or "failure".
func (c *Collector) RecordOperation(operation, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.operations.RecordRun(operation, status, duration)
}

// RecordHistoryPruned records runs removed from history.
func (c *Collector) RecordHistoryPruned(n int64) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.operations.historyPruned.Add(float64(n))
}

// IndicesDeleted implements lifecycle.Recorder.
func (c *Collector) IndicesDeleted(n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.operations.indicesDeleted.Add(float64(n))
}

// AliasActionsApplied implements lifecycle.Recorder.
func (c *Collector) AliasActionsApplied(removes, adds int) {
	if !c.config.Enabled {
		return
	}
	if removes > 0 {
		c.operations.aliasActions.WithLabelValues("remove").Add(float64(removes))
	}
	if adds > 0 {
		c.operations.aliasActions.WithLabelValues("add").Add(float64(adds))
	}
}

// ReplicasUpdated implements lifecycle.Recorder.
func (c *Collector) ReplicasUpdated(n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.operations.replicaUpdates.Add(float64(n))
}

// ObserveRequest implements elastic.Observer.
func (c *Collector) ObserveRequest(method string, statusCode int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.backend.RecordRequest(method, statusCode, duration)
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
