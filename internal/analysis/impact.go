package analysis

import (
	"sort"

	"github.com/arunkumarkundra/choicease/internal/scoring"
)

const impactListSize = 3

// CriteriaImpact measures how much a criterion separates the options.
type CriteriaImpact struct {
	CriterionID int     `json:"criterion_id"`
	Criterion   string  `json:"criterion"`
	Weight      float64 `json:"weight"`
	Variance    float64 `json:"variance"`
	ImpactScore float64 `json:"impact_score"`
}

// ImpactReport lists every criterion by impact, plus the key drivers and
// the non-discriminating criteria.
type ImpactReport struct {
	Criteria []CriteriaImpact `json:"criteria"`
	Maximum  []CriteriaImpact `json:"maximum_impact"`
	Minimum  []CriteriaImpact `json:"minimum_impact"`
}

// AnalyzeImpact computes impactScore = variance × weight for each
// criterion, using the population variance of its ratings across options.
// A single rating has zero variance.
func AnalyzeImpact(results []scoring.RankedResult) ImpactReport {
	rep := ImpactReport{
		Criteria: []CriteriaImpact{},
		Maximum:  []CriteriaImpact{},
		Minimum:  []CriteriaImpact{},
	}
	if len(results) == 0 {
		return rep
	}

	for _, c := range results[0].Breakdown {
		ratings := make([]float64, 0, len(results))
		for _, r := range results {
			ratings = append(ratings, r.RatingFor(c.CriterionID))
		}
		_, sd := meanStdDev(ratings)
		variance := sd * sd
		rep.Criteria = append(rep.Criteria, CriteriaImpact{
			CriterionID: c.CriterionID,
			Criterion:   c.Criterion,
			Weight:      c.Weight,
			Variance:    variance,
			ImpactScore: variance * (c.Weight / 100) * 100,
		})
	}
	sort.SliceStable(rep.Criteria, func(i, j int) bool {
		return rep.Criteria[i].ImpactScore > rep.Criteria[j].ImpactScore
	})

	k := impactListSize
	if n := len(rep.Criteria); n < 2*impactListSize {
		k = n / 2
	}
	n := len(rep.Criteria)
	rep.Maximum = append(rep.Maximum, rep.Criteria[:k]...)
	for i := n - 1; i >= n-k; i-- {
		rep.Minimum = append(rep.Minimum, rep.Criteria[i])
	}
	return rep
}
