// Package metrics exposes Prometheus collectors for survey and gateway activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "surveyassist"

// Answer outcomes
const (
	AnswerAccepted      = "accepted"
	AnswerInvalid       = "invalid"
	AnswerOutOfSequence = "out_of_sequence"
	AnswerReplayed      = "replayed"
)

// Metrics holds every collector the service reports. It satisfies
// flow.Recorder so the engine can report gateway and follow-up events.
type Metrics struct {
	// SessionsStarted counts sessions that presented their first question
	SessionsStarted prometheus.Counter
	// SessionsCompleted counts sessions that reached the end of the survey
	SessionsCompleted prometheus.Counter
	// Answers counts submissions. Labels: outcome
	Answers *prometheus.CounterVec
	// GatewayRequests counts classification calls. Labels: kind, outcome
	GatewayRequests *prometheus.CounterVec
	// GatewayDuration measures classification call latency. Labels: kind
	GatewayDuration *prometheus.HistogramVec
	// Followups counts follow-up decisions. Labels: kind, outcome
	Followups *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer for
// the /metrics endpoint or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Survey sessions started",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Survey sessions completed",
		}),
		Answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer submissions by outcome",
		}, []string{"outcome"}),
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Classification gateway calls by kind and outcome",
		}, []string{"kind", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_duration_seconds",
			Help:      "Classification gateway call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		Followups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followups_total",
			Help:      "Dynamic follow-up questions by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// GatewayCall records one classification call
func (m *Metrics) GatewayCall(kind, outcome string, elapsed time.Duration) {
	m.GatewayRequests.WithLabelValues(kind, outcome).Inc()
	m.GatewayDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Followup records a follow-up being queued, presented or discarded
func (m *Metrics) Followup(kind, outcome string) {
	m.Followups.WithLabelValues(kind, outcome).Inc()
}

// SessionStarted records a new session
func (m *Metrics) SessionStarted() {
	m.SessionsStarted.Inc()
}

// SessionCompleted records a finished session
func (m *Metrics) SessionCompleted() {
	m.SessionsCompleted.Inc()
}

// Answer records a submission outcome
func (m *Metrics) Answer(outcome string) {
	m.Answers.WithLabelValues(outcome).Inc()
}
