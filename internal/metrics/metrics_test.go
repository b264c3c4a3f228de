package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

func TestObserveAnalysis(t *testing.T) {
	m := New(prometheus.NewRegistry())
	rep := &analysis.Report{Confidence: analysis.ConfidenceAnalysis{Percentage: 80}}

	m.ObserveAnalysis("api", rep, 3*time.Millisecond)
	m.ObserveAnalysis("api", rep, time.Millisecond)
	m.ObserveAnalysis("decision", rep, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Analyses.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("decision")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Confidence))
}

func TestObserveWhatIf(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveWhatIf(whatif.Outcome{FromCache: true})
	m.ObserveWhatIf(whatif.Outcome{WinnerChanged: true})
	m.SetSessions(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WhatIfEvaluations.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WhatIfEvaluations.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WhatIfWinnerChange))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.WhatIfSessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis("api", &analysis.Report{}, time.Second)
		m.ObserveWhatIf(whatif.Outcome{})
		m.SetSessions(1)
	})
}
