package analysis

import (
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// DefaultSatisficerThreshold is the first threshold tried.
const DefaultSatisficerThreshold = 3.0

// relaxedThresholds are tried in order when nothing meets the default.
var relaxedThresholds = []float64{2.5, 2.0}

const (
	strongRating = 4.0
	watchRating  = 3.5
	wellRounded  = 3
)

// Satisficer labels.
const (
	LabelWellRounded = "Well-Rounded"
	LabelSafeChoice  = "Safe Choice"
	LabelBalanced    = "Balanced Option"
)

// Satisficer is an option rated at or above the threshold on every criterion.
type Satisficer struct {
	OptionID    int     `json:"option_id"`
	Option      string  `json:"option"`
	Rank        int     `json:"rank"`
	Score       float64 `json:"score"`
	MinRating   float64 `json:"min_rating"`
	StrongCount int     `json:"strong_count"`
	WatchCount  int     `json:"watch_count"`
	Label       string  `json:"label"`
}

// SatisficerReport records which threshold produced the qualifying set.
type SatisficerReport struct {
	Threshold   float64      `json:"threshold"`
	Relaxed     bool         `json:"relaxed"`
	Satisficers []Satisficer `json:"satisficers"`
}

// FindSatisficers tries threshold, then each relaxed threshold below it,
// stopping at the first that qualifies at least one option. A non-positive
// threshold uses DefaultSatisficerThreshold.
func FindSatisficers(ranked []scoring.RankedResult, threshold float64) SatisficerReport {
	if threshold <= 0 {
		threshold = DefaultSatisficerThreshold
	}
	chain := []float64{threshold}
	for _, t := range relaxedThresholds {
		if t < threshold {
			chain = append(chain, t)
		}
	}

	rep := SatisficerReport{Threshold: threshold, Satisficers: []Satisficer{}}
	for i, t := range chain {
		found := satisficersAt(ranked, t)
		if len(found) > 0 || i == len(chain)-1 {
			rep.Threshold = t
			rep.Relaxed = i > 0
			rep.Satisficers = found
			break
		}
	}
	return rep
}

func satisficersAt(ranked []scoring.RankedResult, threshold float64) []Satisficer {
	out := []Satisficer{}
	for _, r := range ranked {
		if len(r.Breakdown) == 0 {
			continue
		}
		s := Satisficer{
			OptionID:  r.Option.ID,
			Option:    r.Option.Name,
			Rank:      r.Rank,
			Score:     r.TotalScore,
			MinRating: r.Breakdown[0].Rating,
		}
		ok := true
		for _, c := range r.Breakdown {
			if c.Rating < threshold {
				ok = false
				break
			}
			if c.Rating < s.MinRating {
				s.MinRating = c.Rating
			}
			if c.Rating >= strongRating {
				s.StrongCount++
			}
			if c.Rating < watchRating {
				s.WatchCount++
			}
		}
		if !ok {
			continue
		}
		switch {
		case s.StrongCount >= wellRounded:
			s.Label = LabelWellRounded
		case s.WatchCount == 0:
			s.Label = LabelSafeChoice
		default:
			s.Label = LabelBalanced
		}
		out = append(out, s)
	}
	return out
}
