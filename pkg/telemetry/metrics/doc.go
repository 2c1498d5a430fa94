// Package metrics provides Prometheus metrics for retainer.
//
// # Metrics Categories
//
//   - Operation metrics: runs per operation and status, run duration
//   - Change metrics: indices deleted, alias actions, replica updates
//   - Backend metrics: Elasticsearch requests by method and status code
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	client.SetObserver(collector)    // backend requests
//	manager.SetRecorder(collector)   // applied changes
//
//	collector.RecordOperation("clear_indices", "success", time.Second)
//
//	mux.Handle("/metrics", collector.Handler())
//
// When metrics are disabled in the configuration every Record call is a
// no-op, so callers never need to check.
package metrics
