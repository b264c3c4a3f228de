package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

const namespace = "choicease"

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Analyses           *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	Confidence         prometheus.Histogram
	WhatIfSessions     prometheus.Gauge
	WhatIfEvaluations  *prometheus.CounterVec
	WhatIfWinnerChange prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed decision analyses by source.",
		}, []string{"source"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of a full analysis including the stability simulation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence_percent",
			Help:      "Distribution of reported winner confidence.",
			Buckets:   prometheus.LinearBuckets(5, 10, 10),
		}),
		WhatIfSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "whatif_sessions",
			Help:      "Open what-if sessions.",
		}),
		WhatIfEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whatif_evaluations_total",
			Help:      "What-if evaluations by cache result.",
		}, []string{"cache"}),
		WhatIfWinnerChange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whatif_winner_changes_total",
			Help:      "What-if evaluations that changed the winner.",
		}),
	}
	reg.MustRegister(
		m.Analyses,
		m.AnalysisDuration,
		m.Confidence,
		m.WhatIfSessions,
		m.WhatIfEvaluations,
		m.WhatIfWinnerChange,
	)
	return m
}

// ObserveAnalysis records one completed analysis.
func (m *Metrics) ObserveAnalysis(source string, rep *analysis.Report, took time.Duration) {
	if m == nil || rep == nil {
		return
	}
	m.Analyses.WithLabelValues(source).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
	m.Confidence.Observe(float64(rep.Confidence.Percentage))
}

// ObserveWhatIf records one what-if evaluation.
func (m *Metrics) ObserveWhatIf(out whatif.Outcome) {
	if m == nil {
		return
	}
	label := "miss"
	if out.FromCache {
		label = "hit"
	}
	m.WhatIfEvaluations.WithLabelValues(label).Inc()
	if out.WinnerChanged {
		m.WhatIfWinnerChange.Inc()
	}
}

// SetSessions publishes the open session count.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.WhatIfSessions.Set(float64(n))
}
