// Package metrics exposes the pipeline's Prometheus collectors on a
// private registry (never the global default, so multiple Controllers
// in tests don't collide) and builds the read-time dashboard/
// pipeline-status JSON views from registry snapshots.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector the pipeline records against.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	PhaseDuration      *prometheus.HistogramVec
	PhaseFallbackTotal *prometheus.CounterVec
	PersistenceTotal   *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
	ActiveJobs         prometheus.Gauge
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry constructs and registers every collector on a fresh,
// private prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total number of processing requests, labeled by outcome.",
		}, []string{"outcome"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_phase_duration_seconds",
			Help:    "Duration of each extraction phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		PhaseFallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_phase_fallback_total",
			Help: "Count of phase executions that fell back to a degraded result.",
		}, []string{"phase"}),
		PersistenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_persistence_total",
			Help: "Count of datastore persistence attempts, labeled by outcome.",
		}, []string{"outcome"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_circuit_breaker_state",
			Help: "Circuit breaker state per dependency: 0=closed, 1=half_open, 2=open.",
		}, []string{"dependency"}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_active_jobs",
			Help: "Number of jobs currently tracked (any status).",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_http_request_duration_seconds",
			Help:    "Duration of HTTP handler calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.PhaseDuration,
		r.PhaseFallbackTotal,
		r.PersistenceTotal,
		r.CircuitBreakerState,
		r.ActiveJobs,
		r.HTTPRequestDuration,
	)

	return r
}

// Gatherer exposes the underlying registry for the /metrics HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObservePhase records a phase's duration and, if it fell back,
// increments the fallback counter.
func (r *Registry) ObservePhase(phase string, duration time.Duration, fallbackUsed bool) {
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	if fallbackUsed {
		r.PhaseFallbackTotal.WithLabelValues(phase).Inc()
	}
}

// ObserveRequest increments the requests counter for a terminal outcome
// ("success", "partial", "error").
func (r *Registry) ObserveRequest(outcome string) {
	r.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObservePersistence increments the persistence counter for an outcome
// ("ok", "skipped", "error").
func (r *Registry) ObservePersistence(outcome string) {
	r.PersistenceTotal.WithLabelValues(outcome).Inc()
}

// SetBreakerState records a dependency's current breaker state (0/1/2).
func (r *Registry) SetBreakerState(dependency string, value float64) {
	r.CircuitBreakerState.WithLabelValues(dependency).Set(value)
}

// SetActiveJobs records the current job count.
func (r *Registry) SetActiveJobs(count int) {
	r.ActiveJobs.Set(float64(count))
}

// ObserveHTTPRequest records one HTTP handler call's duration.
func (r *Registry) ObserveHTTPRequest(route, status string, duration time.Duration) {
	r.HTTPRequestDuration.WithLabelValues(route, status).Observe(duration.Seconds())
}
