package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline step names
const (
	StepTranscribe = "transcribe"
	StepSummarize  = "summarize"
	StepImprove    = "improve"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	analyses     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_analyzer_analyses_total",
			Help: "Analyses attempted, by outcome.",
		}, []string{"outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_analyzer_step_duration_seconds",
			Help:    "Duration of each pipeline step.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"step"}),
	}
	reg.MustRegister(m.analyses, m.stepDuration)
	return m
}

func (m *Metrics) ObserveStep(step string, start time.Time) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func (m *Metrics) CountAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}
