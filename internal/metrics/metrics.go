// Package metrics exposes Prometheus collectors for the model registry.
//
// A Metrics value owns its own prometheus.Registry so that several builds in
// one process never collide on collector registration. It implements both
// canonical.Observer and isolation.Observer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/buildmodels/internal/modelerr"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
)

const namespace = "buildmodels"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
)

// Metrics holds the collectors of one build.
type Metrics struct {
	registry *prometheus.Registry

	modelsPosted    prometheus.Counter
	realizations    *prometheus.CounterVec
	realizeDuration prometheus.Histogram
	isolatedCopies  *prometheus.CounterVec
	requests        *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry. The
// build ID is attached to every series as a constant label.
func New(buildID string) *Metrics {
	constLabels := prometheus.Labels{}
	if buildID != "" {
		constLabels["build_id"] = buildID
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modelsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "models_posted_total",
			Help:        "Number of models posted to the registry.",
			ConstLabels: constLabels,
		}),
		realizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "realizations_total",
			Help:        "Number of model computations that finished, by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		realizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "realization_duration_seconds",
			Help:        "Time spent running model work.",
			Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 10),
			ConstLabels: constLabels,
		}),
		isolatedCopies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "isolated_copies_total",
			Help:        "Isolated copy lookups, by outcome (miss creates a copy).",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "model_requests_total",
			Help:        "Model requests through build model handles, by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.modelsPosted,
		m.realizations,
		m.realizeDuration,
		m.isolatedCopies,
		m.requests,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Outcome returns the label for err: "success" or the failure kind.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return modelerr.Label(modelerr.KindOf(err))
}

// ModelPosted implements canonical.Observer.
func (m *Metrics) ModelPosted(modelkey.Key) {
	m.modelsPosted.Inc()
}

// RealizationFinished implements canonical.Observer.
func (m *Metrics) RealizationFinished(_ modelkey.Key, elapsed time.Duration, err error) {
	m.realizations.WithLabelValues(Outcome(err)).Inc()
	m.realizeDuration.Observe(elapsed.Seconds())
}

// CopyCreated implements isolation.Observer.
func (m *Metrics) CopyCreated(modelkey.Key, string) {
	m.isolatedCopies.WithLabelValues(OutcomeMiss).Inc()
}

// CopyReused implements isolation.Observer.
func (m *Metrics) CopyReused(modelkey.Key, string) {
	m.isolatedCopies.WithLabelValues(OutcomeHit).Inc()
}

// CopyFailed implements isolation.Observer.
func (m *Metrics) CopyFailed(_ modelkey.Key, _ string, err error) {
	m.isolatedCopies.WithLabelValues(Outcome(err)).Inc()
}

// RequestFinished records one Handle.Get call.
func (m *Metrics) RequestFinished(_ modelkey.Key, err error) {
	m.requests.WithLabelValues(Outcome(err)).Inc()
}
