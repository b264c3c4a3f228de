package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// Level is the qualitative confidence band.
type Level string

const (
	LevelVeryHigh Level = "very-high"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very-low"
)

const (
	neutralConfidence = 50
	minConfidence     = 5.0
	maxConfidence     = 95.0

	// maxExpectedGap is 40% of the theoretical 5.0 maximum gap.
	maxExpectedGap       = 2.0
	effectSizeSaturation = 1.5
	spreadSaturation     = 2.0
	stdDevFloor          = 0.01
	nearZeroMultiplier   = 20.0

	criticalFlipPenalty = 12.0
	moderateFlipPenalty = 6.0
)

// ConfidenceBreakdown exposes every signal behind the confidence number.
type ConfidenceBreakdown struct {
	GapConfidence          float64 `json:"gap_confidence"`
	StatisticalConfidence  float64 `json:"statistical_confidence"`
	DistributionConfidence float64 `json:"distribution_confidence"`
	SampleSizeBonus        float64 `json:"sample_size_bonus"`
	SensitivityPenalty     float64 `json:"sensitivity_penalty"`
	RawConfidence          float64 `json:"raw_confidence"`
	EffectSize             float64 `json:"effect_size"`
	Mean                   float64 `json:"mean"`
	StdDev                 float64 `json:"std_dev"`
	Spread                 float64 `json:"spread"`
}

// ConfidenceAnalysis is the bounded confidence estimate for the winner.
type ConfidenceAnalysis struct {
	Percentage  int                 `json:"percentage"`
	Level       Level               `json:"level"`
	Explanation string              `json:"explanation"`
	Gap         float64             `json:"gap"`
	Breakdown   ConfidenceBreakdown `json:"breakdown"`
	Stability   *StabilityResult    `json:"stability,omitempty"`
}

// NeutralConfidence is returned when there is nothing to compare against.
func NeutralConfidence() ConfidenceAnalysis {
	return ConfidenceAnalysis{
		Percentage:  neutralConfidence,
		Level:       LevelMedium,
		Explanation: "Only one option was evaluated, so there is no runner-up to measure confidence against.",
	}
}

// AnalyzeConfidence combines gap, effect size, spread, sample size and
// flip-point fragility into a percentage clamped to [5, 95]. flips may be
// nil when sensitivity analysis has not run. sim may be nil to skip the
// stability simulation.
func AnalyzeConfidence(ranked []scoring.RankedResult, flips []FlipPoint, sim *Simulator) ConfidenceAnalysis {
	if len(ranked) < 2 {
		return NeutralConfidence()
	}

	scores := scoring.Scores(ranked)
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	gap := scores[0] - scores[1]
	mean, stdDev := meanStdDev(scores)

	var effectSize float64
	if stdDev > stdDevFloor {
		effectSize = gap / stdDev
	} else {
		effectSize = gap * nearZeroMultiplier
	}
	spread := scores[0] - scores[len(scores)-1]

	b := ConfidenceBreakdown{
		GapConfidence:          math.Min(gap/maxExpectedGap, 1) * 100,
		StatisticalConfidence:  math.Min(math.Abs(effectSize)/effectSizeSaturation, 1) * 100,
		DistributionConfidence: math.Min(spread/spreadSaturation, 1) * 100,
		SampleSizeBonus:        math.Min(float64(len(scores)-2)*5, 15),
		SensitivityPenalty:     sensitivityPenalty(flips),
		EffectSize:             effectSize,
		Mean:                   mean,
		StdDev:                 stdDev,
		Spread:                 spread,
	}
	b.RawConfidence = 0.35*b.GapConfidence +
		0.25*b.StatisticalConfidence +
		0.20*b.DistributionConfidence +
		b.SampleSizeBonus -
		b.SensitivityPenalty

	pct := int(math.Round(clamp(b.RawConfidence, minConfidence, maxConfidence)))

	ca := ConfidenceAnalysis{
		Percentage:  pct,
		Level:       LevelFor(pct),
		Gap:         gap,
		Breakdown:   b,
		Explanation: explainConfidence(gap, effectSize, flips),
	}
	if sim != nil {
		st := sim.Run(scoring.Scores(ranked))
		ca.Stability = &st
	}
	return ca
}

// LevelFor maps a percentage onto the qualitative bands.
func LevelFor(pct int) Level {
	switch {
	case pct >= 80:
		return LevelVeryHigh
	case pct >= 65:
		return LevelHigh
	case pct >= 45:
		return LevelMedium
	case pct >= 25:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

func sensitivityPenalty(flips []FlipPoint) float64 {
	var penalty float64
	for _, f := range flips {
		switch f.Criticality {
		case CriticalityCritical:
			penalty += criticalFlipPenalty
		case CriticalityModerate:
			penalty += moderateFlipPenalty
		}
	}
	return penalty
}

func explainConfidence(gap, effectSize float64, flips []FlipPoint) string {
	var parts []string
	switch {
	case gap >= 1.0:
		parts = append(parts, fmt.Sprintf("The winner leads by a wide margin of %.2f points.", gap))
	case gap >= 0.5:
		parts = append(parts, fmt.Sprintf("The winner leads by a clear margin of %.2f points.", gap))
	case gap >= 0.2:
		parts = append(parts, fmt.Sprintf("The winner leads by a modest margin of %.2f points.", gap))
	case gap > 0:
		parts = append(parts, fmt.Sprintf("The winner leads by a narrow margin of only %.2f points.", gap))
	default:
		parts = append(parts, "The top options are tied.")
	}

	switch es := math.Abs(effectSize); {
	case es >= 1.5:
		parts = append(parts, "The lead is large compared to how spread out the scores are.")
	case es >= 0.8:
		parts = append(parts, "The lead is meaningful compared to the spread of scores.")
	case es >= 0.3:
		parts = append(parts, "The lead is small compared to the spread of scores.")
	default:
		parts = append(parts, "The lead is negligible compared to the spread of scores.")
	}

	critical := 0
	for _, f := range flips {
		if f.Criticality == CriticalityCritical {
			critical++
		}
	}
	if critical == 1 {
		parts = append(parts, "One criterion could flip the result with a small weight change.")
	} else if critical > 1 {
		parts = append(parts, fmt.Sprintf("%d criteria could flip the result with small weight changes.", critical))
	}
	return strings.Join(parts, " ")
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
