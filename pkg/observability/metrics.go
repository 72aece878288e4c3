package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "triage"

// Metrics holds the collectors fed by engine events.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted *prometheus.CounterVec
	Answers         *prometheus.CounterVec
	Outcomes        *prometheus.CounterVec
	ConfigErrors    *prometheus.CounterVec
	Steps           *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a private registry,
// so several engines can live in one process (and in tests).
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions positioned at an entry node.",
		}, []string{"module_id"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers recorded, by node and contributed severity.",
		}, []string{"module_id", "node_id", "severity"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Sessions that reached a terminal status.",
		}, []string{"module_id", "status", "outcome"}),
		ConfigErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_errors_total",
			Help:      "Malformed graph references met at traversal time.",
		}, []string{"module_id"}),
		Steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_steps",
			Help:      "Questions answered before a session ended.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}, []string{"module_id", "status"}),
	}
	m.registry.MustRegister(m.SessionsStarted, m.Answers, m.Outcomes, m.ConfigErrors, m.Steps)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	end := func(_ context.Context, e *domain.SessionEvent) {
		outcome := e.Severity.Outcome()
		if e.Status == domain.StatusCriticalStop {
			outcome = domain.OutcomeEmergencyCall
		}
		m.Outcomes.WithLabelValues(e.ModuleID, string(e.Status), string(outcome)).Inc()
		m.Steps.WithLabelValues(e.ModuleID, string(e.Status)).Observe(float64(e.Steps))
	}
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsStarted.WithLabelValues(e.ModuleID).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			m.Answers.WithLabelValues(e.ModuleID, e.NodeID, e.Contributed.String()).Inc()
		},
		OnCriticalStop: end,
		OnComplete:     end,
		OnConfigError: func(_ context.Context, e *domain.ConfigErrorEvent) {
			m.ConfigErrors.WithLabelValues(e.ModuleID).Inc()
		},
	}
}
