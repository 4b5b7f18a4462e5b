// Package metrics provides Prometheus instrumentation for the batch engine.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the engine's Prometheus collectors.
type Registry struct {
	registry *prometheus.Registry

	SnapshotsRecalculated prometheus.Counter
	TasksGenerated        *prometheus.CounterVec
	TasksConverted        prometheus.Counter
	RevenueCreditedCents  prometheus.Counter
	PassDuration          *prometheus.HistogramVec
	PassFailures          *prometheus.CounterVec
}

// New creates a Registry with all engine collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	r := &Registry{
		registry: reg,
		SnapshotsRecalculated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfv_snapshots_recalculated_total",
			Help: "Customer metric snapshots written by recalculation passes.",
		}),
		TasksGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfv_tasks_generated_total",
			Help: "Outreach tasks generated, by task type.",
		}, []string{"task_type"}),
		TasksConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfv_tasks_converted_total",
			Help: "Tasks closed as converted by the revenue attributor.",
		}),
		RevenueCreditedCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfv_revenue_credited_cents_total",
			Help: "Revenue credited to outreach tasks, in cents.",
		}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfv_pass_duration_seconds",
			Help:    "Duration of engine batch passes.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pass"}),
		PassFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfv_pass_failures_total",
			Help: "Engine batch passes that failed and were left retryable.",
		}, []string{"pass"}),
	}

	reg.MustRegister(
		r.SnapshotsRecalculated,
		r.TasksGenerated,
		r.TasksConverted,
		r.RevenueCreditedCents,
		r.PassDuration,
		r.PassFailures,
	)

	return r
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
