package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics tracks requests made to Elasticsearch.
//
// Metrics:
//   - retainer_backend_requests_total: requests by method and status code
//   - retainer_backend_request_duration_seconds: request latency by method
//
// Requests that failed before a response arrived carry status "error".
type BackendMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewBackendMetrics creates and registers backend request metrics.
func NewBackendMetrics(namespace string, registry prometheus.Registerer) *BackendMetrics {
	bm := &BackendMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Total number of Elasticsearch requests",
			},
			[]string{"method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Duration of Elasticsearch requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(bm.requestsTotal, bm.requestDuration)

	return bm
}

// RecordRequest records one completed backend request.
func (bm *BackendMetrics) RecordRequest(method string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	bm.requestsTotal.WithLabelValues(method, status).Inc()
	bm.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
