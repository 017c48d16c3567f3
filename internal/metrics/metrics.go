// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kittygram"

// Metrics groups the collectors registered by the API.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	throttled    *prometheus.CounterVec
	denied       *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by a throttle.",
		}, []string{"throttle"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denied_total",
			Help:      "Requests rejected by a permission policy.",
		}, []string{"resource", "action"}),
	}

	m.Registry.MustRegister(m.httpInFlight, m.httpRequests, m.httpDuration, m.throttled, m.denied)
	return m
}

func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }

func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordThrottled(throttle string) {
	m.throttled.WithLabelValues(throttle).Inc()
}

func (m *Metrics) RecordDenied(resource, action string) {
	m.denied.WithLabelValues(resource, action).Inc()
}

// Throttled returns the rejection counter of one throttle.
func (m *Metrics) Throttled(throttle string) prometheus.Counter {
	return m.throttled.WithLabelValues(throttle)
}

// Denied returns the permission denial counter of one resource action.
func (m *Metrics) Denied(resource, action string) prometheus.Counter {
	return m.denied.WithLabelValues(resource, action)
}

// HTTPRequests returns the request counter for one method, route and status.
func (m *Metrics) HTTPRequests(method, path, status string) prometheus.Counter {
	return m.httpRequests.WithLabelValues(method, path, status)
}
