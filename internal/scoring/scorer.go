package scoring

import (
	"github.com/arunkumarkundra/choicease/internal/decision"
)

// Contribution captures one criterion's share of an option's total score.
type Contribution struct {
	CriterionID int     `json:"criterion_id"`
	Criterion   string  `json:"criterion"`
	Rating      float64 `json:"rating"`
	Weight      float64 `json:"weight"`
	Weighted    float64 `json:"weighted"`
	Defaulted   bool    `json:"defaulted"`
}

// ScoredResult is one option's weighted total and its per-criterion breakdown.
type ScoredResult struct {
	Option     decision.Option `json:"option"`
	TotalScore float64         `json:"total_score"`
	Breakdown  []Contribution  `json:"breakdown"`
}

// Contribution returns the breakdown entry for a criterion.
func (r ScoredResult) Contribution(criterionID int) (Contribution, bool) {
	for _, c := range r.Breakdown {
		if c.CriterionID == criterionID {
			return c, true
		}
	}
	return Contribution{}, false
}

// RatingFor returns the rating used for a criterion, DefaultRating when the
// criterion is not in the breakdown.
func (r ScoredResult) RatingFor(criterionID int) float64 {
	if c, ok := r.Contribution(criterionID); ok {
		return c.Rating
	}
	return decision.DefaultRating
}

// Score computes every option's weighted total against the given weights:
//
//	total = Σ rating(option, c) * weight(c) / 100
//
// Only live options and criteria are visited, so orphaned ratings or weight
// entries are ignored. A criterion without a weight entry contributes zero.
// Score is pure: it reads the model and weights and mutates neither.
func Score(m *decision.Model, w Weights) []ScoredResult {
	options := m.Options()
	criteria := m.Criteria()
	results := make([]ScoredResult, 0, len(options))

	for _, o := range options {
		res := ScoredResult{
			Option:    o,
			Breakdown: make([]Contribution, 0, len(criteria)),
		}
		var total float64
		for _, c := range criteria {
			rating := m.Rating(o.ID, c.ID)
			weight := w.Get(c.ID)
			weighted := rating * weight / 100
			res.Breakdown = append(res.Breakdown, Contribution{
				CriterionID: c.ID,
				Criterion:   c.Name,
				Rating:      rating,
				Weight:      weight,
				Weighted:    weighted,
				Defaulted:   !m.HasRating(o.ID, c.ID),
			})
			total += weighted
		}
		res.TotalScore = clamp(total, decision.MinRating, decision.MaxRating)
		results = append(results, res)
	}
	return results
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
