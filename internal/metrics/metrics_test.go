package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountAnalysis(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CountAnalysis("success")
	m.CountAnalysis("success")
	m.CountAnalysis("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("error")))
}

func TestObserveStep(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveStep(StepTranscribe, time.Now().Add(-time.Second))

	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountAnalysis("success")
		m.ObserveStep(StepSummarize, time.Now())
	})
}
