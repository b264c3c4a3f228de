package analysis

import (
	"math"
	"sort"

	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// Criticality classifies how easily a criterion's weight could flip the winner.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityModerate Criticality = "moderate"
	CriticalityStable   Criticality = "stable"
)

// Direction is the weight change that would favour the runner-up.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionNone     Direction = "none"
)

const (
	noImpactRatingDiff = 0.1
	criticalFlipChange = 15.0
	moderateFlipChange = 30.0
)

var criticalityOrder = map[Criticality]int{
	CriticalityCritical: 0,
	CriticalityModerate: 1,
	CriticalityStable:   2,
}

// FlipPoint estimates the weight change on one criterion that would close
// the winner/runner-up gap.
type FlipPoint struct {
	CriterionID        int         `json:"criterion_id"`
	Criterion          string      `json:"criterion"`
	CurrentWeight      float64     `json:"current_weight"`
	WinnerRating       float64     `json:"winner_rating"`
	RunnerUpRating     float64     `json:"runner_up_rating"`
	RatingDiff         float64     `json:"rating_diff"`
	WeightChangeNeeded float64     `json:"weight_change_needed"`
	Direction          Direction   `json:"direction"`
	Criticality        Criticality `json:"criticality"`
	Impact             float64     `json:"impact"`
	NoImpact           bool        `json:"no_impact"`
}

// AnalyzeSensitivity computes a flip point per criterion from the winner
// and runner-up only:
//
//	weightChangeNeeded = gap / |runnerUpRating - winnerRating| * 100
//
// This holds every other weight fixed while one moves, which is not an exact
// re-optimization of a normalized vector; it is an estimate of how close the
// decision is to flipping. Results are ordered critical first, then by
// impact (|ratingDiff| * weight / 100) descending.
func AnalyzeSensitivity(ranked []scoring.RankedResult) []FlipPoint {
	if len(ranked) < 2 {
		return nil
	}
	winner, runnerUp := ranked[0], ranked[1]
	gap := winner.TotalScore - runnerUp.TotalScore

	flips := make([]FlipPoint, 0, len(winner.Breakdown))
	for _, wc := range winner.Breakdown {
		ruRating := runnerUp.RatingFor(wc.CriterionID)
		diff := ruRating - wc.Rating
		fp := FlipPoint{
			CriterionID:    wc.CriterionID,
			Criterion:      wc.Criterion,
			CurrentWeight:  wc.Weight,
			WinnerRating:   wc.Rating,
			RunnerUpRating: ruRating,
			RatingDiff:     diff,
			Impact:         math.Abs(diff) * wc.Weight / 100,
		}
		if math.Abs(diff) < noImpactRatingDiff {
			fp.NoImpact = true
			fp.Direction = DirectionNone
			fp.Criticality = CriticalityStable
			flips = append(flips, fp)
			continue
		}
		fp.WeightChangeNeeded = gap / math.Abs(diff) * 100
		if diff > 0 {
			fp.Direction = DirectionIncrease
		} else {
			fp.Direction = DirectionDecrease
		}
		fp.Criticality = classifyFlip(fp.WeightChangeNeeded)
		flips = append(flips, fp)
	}

	sort.SliceStable(flips, func(i, j int) bool {
		ci, cj := criticalityOrder[flips[i].Criticality], criticalityOrder[flips[j].Criticality]
		if ci != cj {
			return ci < cj
		}
		return flips[i].Impact > flips[j].Impact
	})
	return flips
}

func classifyFlip(change float64) Criticality {
	switch {
	case change < criticalFlipChange:
		return CriticalityCritical
	case change < moderateFlipChange:
		return CriticalityModerate
	default:
		return CriticalityStable
	}
}
