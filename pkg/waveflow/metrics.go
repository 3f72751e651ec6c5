package waveflow

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for gateway calls. It uses its own
// registry so embedding applications decide whether and where to expose it.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	callErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers the gateway collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveflow_client_calls_total",
				Help: "Total number of WaveFlow Studio calls by operation and outcome",
			},
			[]string{"operation", "method", "outcome"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waveflow_client_call_duration_seconds",
				Help:    "WaveFlow Studio call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),

		callErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveflow_client_call_errors_total",
				Help: "Total number of failed WaveFlow Studio calls by error kind",
			},
			[]string{"operation", "kind"},
		),

		registry: registry,
	}

	registry.MustRegister(m.callsTotal, m.callDuration, m.callErrors)
	return m
}

func (m *Metrics) observe(op, method, outcome string, elapsed time.Duration) {
	m.callsTotal.WithLabelValues(op, method, outcome).Inc()
	m.callDuration.WithLabelValues(op, method).Observe(elapsed.Seconds())
	if outcome != "success" {
		m.callErrors.WithLabelValues(op, outcome).Inc()
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
