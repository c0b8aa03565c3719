// Package metrics holds the Prometheus instruments shared by the site's
// packages. Collectors are package globals; Register attaches them to a
// registry, which the App exposes on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mevoq"

var (
	BackendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Backend calls by operation and result.",
		}, []string{"op", "result"})

	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Backend call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"})

	SampleFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_fallbacks_total",
			Help:      "Reads answered with sample records because the collection was empty.",
		}, []string{"collection"})

	ContactSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by result.",
		}, []string{"result"})

	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Admin image uploads by result.",
		}, []string{"result"})

	GateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_gate_transitions_total",
			Help:      "Authentication gate state changes by target state.",
		}, []string{"state"})

	AdminMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_mutations_total",
			Help:      "Admin create, update and delete operations by kind and result.",
		}, []string{"kind", "op", "result"})
)

func all() []prometheus.Collector {
	return []prometheus.Collector{
		BackendCalls, BackendLatency, SampleFallbacks, ContactSubmissions,
		Uploads, GateTransitions, AdminMutations,
	}
}

// Register attaches every collector to reg. Collectors already present are
// skipped so a registry can be shared.
func Register(reg prometheus.Registerer) error {
	for _, c := range all() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Result labels an outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveBackendCall records one call that began at start.
func ObserveBackendCall(op string, start time.Time, err error) {
	BackendCalls.WithLabelValues(op, Result(err)).Inc()
	BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
