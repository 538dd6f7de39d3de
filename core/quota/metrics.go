package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels a recorded decision.
type Outcome string

const (
	OutcomeAllowed Outcome = "allowed"
	OutcomeDenied  Outcome = "denied"
	OutcomeReset   Outcome = "reset"
	OutcomeError   Outcome = "error"
)

// Recorder observes quota decisions.
type Recorder interface {
	Decision(class Class, outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) Decision(Class, Outcome) {}

// PrometheusRecorder counts decisions per class and outcome.
type PrometheusRecorder struct {
	decisions *prometheus.CounterVec
}

// NewPrometheusRecorder registers the quota counters on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billforge",
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Quota decisions by identity class and outcome.",
		}, []string{"class", "outcome"}),
	}
}

func (r *PrometheusRecorder) Decision(class Class, outcome Outcome) {
	r.decisions.WithLabelValues(class.String(), string(outcome)).Inc()
}

// Counter exposes the underlying counter for one label pair.
func (r *PrometheusRecorder) Counter(class Class, outcome Outcome) prometheus.Counter {
	return r.decisions.WithLabelValues(class.String(), string(outcome))
}
