package analysis

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// Settings tunes the Analyzer. Zero values fall back to the defaults.
type Settings struct {
	StabilityTrials     int
	StabilityNoise      float64
	SatisficerThreshold float64
	// Seed fixes the stability simulation. Zero seeds from the clock.
	Seed int64
}

// WeightEntry is one criterion's share of the decision.
type WeightEntry struct {
	CriterionID int     `json:"criterion_id"`
	Criterion   string  `json:"criterion"`
	Importance  int     `json:"importance"`
	Weight      float64 `json:"weight"`
	Rounded     int     `json:"rounded"`
}

// Report bundles every analysis of one decision.
type Report struct {
	Title       string                 `json:"title"`
	GeneratedAt time.Time              `json:"generated_at"`
	Fingerprint string                 `json:"fingerprint"`
	Weights     []WeightEntry          `json:"weights"`
	Results     []scoring.RankedResult `json:"results"`
	Winners     []string               `json:"winners"`
	Confidence  ConfidenceAnalysis     `json:"confidence"`
	Sensitivity []FlipPoint            `json:"sensitivity"`
	Risk        RiskProfile            `json:"risk"`
	Satisficers SatisficerReport       `json:"satisficers"`
	Impact      ImpactReport           `json:"impact"`
	Dominated   []scoring.Domination   `json:"dominated"`
}

// Analyzer runs the full analysis pipeline. It holds no per-decision state
// and is safe for concurrent use.
type Analyzer struct {
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

func NewAnalyzer(settings Settings, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.StabilityTrials <= 0 {
		settings.StabilityTrials = DefaultStabilityTrials
	}
	if settings.StabilityNoise <= 0 {
		settings.StabilityNoise = DefaultStabilityNoise
	}
	if settings.SatisficerThreshold <= 0 {
		settings.SatisficerThreshold = DefaultSatisficerThreshold
	}
	return &Analyzer{settings: settings, logger: logger, now: time.Now}
}

// Settings returns the effective settings after defaults were applied.
func (a *Analyzer) Settings() Settings {
	return a.settings
}

// Analyze normalizes the model's importances and runs every analysis.
func (a *Analyzer) Analyze(m *decision.Model) (*Report, error) {
	return a.AnalyzeWithWeights(m, scoring.Normalize(m.Importances()))
}

// AnalyzeWithWeights runs every analysis against an explicit weight vector.
// Entries for criteria not in the model are ignored.
func (a *Analyzer) AnalyzeWithWeights(m *decision.Model, w scoring.Weights) (*Report, error) {
	if len(m.Options()) == 0 {
		return nil, decision.ErrNoOptions
	}
	if len(m.Criteria()) == 0 {
		return nil, decision.ErrNoCriteria
	}
	start := a.now()

	ranked := scoring.Rank(scoring.Score(m, w))
	flips := AnalyzeSensitivity(ranked)

	rep := &Report{
		Title:       m.Title,
		GeneratedAt: start.UTC(),
		Fingerprint: w.Fingerprint(),
		Weights:     weightEntries(m, w),
		Results:     ranked,
		Winners:     winnerNames(ranked),
		Confidence:  AnalyzeConfidence(ranked, flips, a.simulator()),
		Sensitivity: flips,
		Risk:        AnalyzeRisk(ranked),
		Satisficers: FindSatisficers(ranked, a.settings.SatisficerThreshold),
		Impact:      AnalyzeImpact(ranked),
		Dominated:   scoring.DominatedOptions(scoring.ResultsOf(ranked)),
	}
	if rep.Sensitivity == nil {
		rep.Sensitivity = []FlipPoint{}
	}
	if rep.Dominated == nil {
		rep.Dominated = []scoring.Domination{}
	}

	a.logger.Debug("decision analyzed",
		"title", m.Title,
		"options", len(ranked),
		"winners", rep.Winners,
		"confidence", rep.Confidence.Percentage,
		"duration", time.Since(start),
	)
	return rep, nil
}

// simulator returns a fresh Simulator per run so concurrent analyses never
// share a rand.Rand.
func (a *Analyzer) simulator() *Simulator {
	var src rand.Source
	if a.settings.Seed != 0 {
		src = rand.NewSource(a.settings.Seed)
	}
	return NewSimulator(src, a.settings.StabilityTrials, a.settings.StabilityNoise)
}

func weightEntries(m *decision.Model, w scoring.Weights) []WeightEntry {
	live := make(scoring.Weights, len(w))
	for _, c := range m.Criteria() {
		live[c.ID] = w.Get(c.ID)
	}
	rounded := live.Rounded()

	out := make([]WeightEntry, 0, len(live))
	for _, c := range m.Criteria() {
		out = append(out, WeightEntry{
			CriterionID: c.ID,
			Criterion:   c.Name,
			Importance:  c.Importance,
			Weight:      live[c.ID],
			Rounded:     rounded[c.ID],
		})
	}
	return out
}

func winnerNames(ranked []scoring.RankedResult) []string {
	var names []string
	for _, r := range scoring.Winners(ranked) {
		names = append(names, r.Option.Name)
	}
	return names
}
