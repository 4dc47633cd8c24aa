// Package monitoring exposes Prometheus metrics for the minify pipeline and
// the playground server.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minplay"

// PipelineMetrics implements pipeline.Metrics on a private registry.
type PipelineMetrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	superseded  prometheus.Counter
	sourceBytes prometheus.Gauge
	resultBytes prometheus.Gauge
	clients     prometheus.Gauge
}

// NewPipelineMetrics creates and registers the collectors. withRuntime adds
// the Go runtime and process collectors.
func NewPipelineMetrics(withRuntime bool) *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "evaluations_total",
			Help:      "Settled minify evaluations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "engine_duration_seconds",
			Help:      "Time spent inside the minification engine.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "superseded_total",
			Help:      "Scheduled evaluations replaced by a newer edit before they ran.",
		}),
		sourceBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "source_bytes",
			Help:      "Size of the current source text in bytes.",
		}),
		resultBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "result_bytes",
			Help:      "Size of the last successful result in bytes.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	m.registry.MustRegister(m.evaluations, m.duration, m.superseded, m.sourceBytes, m.resultBytes, m.clients)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveEvaluation records a settled evaluation.
func (m *PipelineMetrics) ObserveEvaluation(outcome string, duration time.Duration) {
	m.evaluations.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}

// ObserveSuperseded records a debounced request dropped for a newer one.
func (m *PipelineMetrics) ObserveSuperseded() {
	m.superseded.Inc()
}

// SetSourceBytes records the current source size.
func (m *PipelineMetrics) SetSourceBytes(n int) {
	m.sourceBytes.Set(float64(n))
}

// SetResultBytes records the current result size.
func (m *PipelineMetrics) SetResultBytes(n int) {
	m.resultBytes.Set(float64(n))
}

// SetClients records the number of connected websocket clients.
func (m *PipelineMetrics) SetClients(n int) {
	m.clients.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
