// Package metrics exposes the process state machine through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slaughterhouse"

// Recorder owns its registry so tests and parallel instances never collide on the global one.
type Recorder struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder also registers the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "State machine operations by outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent in state machine operations, lock wait included.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Committed stage changes.",
		}, []string{"from", "to"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Timeline entries the audit sink rejected after commit.",
		}, []string{"operation"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.durations,
		r.transitions,
		r.auditFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveTransition(from, to process.Stage) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (r *Recorder) ObserveAuditFailure(operation string) {
	r.auditFailures.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
