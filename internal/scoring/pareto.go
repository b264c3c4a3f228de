package scoring

// Domination records that an option is beaten on every criterion.
type Domination struct {
	OptionID      int    `json:"option_id"`
	Option        string `json:"option"`
	DominatedByID int    `json:"dominated_by_id"`
	DominatedBy   string `json:"dominated_by"`
}

// DominatedOptions returns every option that some other option dominates.
// An option is dominated if another option rates >= on all criteria and
// strictly better on at least one. Ratings come from the breakdown, so
// defaults apply. The first dominating option in input order is reported.
// O(n^2 * criteria), fine for decision-sized inputs.
func DominatedOptions(results []ScoredResult) []Domination {
	if len(results) <= 1 {
		return nil
	}

	var out []Domination
	for i := range results {
		for j := range results {
			if i == j {
				continue
			}
			if dominates(results[j], results[i]) {
				out = append(out, Domination{
					OptionID:      results[i].Option.ID,
					Option:        results[i].Option.Name,
					DominatedByID: results[j].Option.ID,
					DominatedBy:   results[j].Option.Name,
				})
				break
			}
		}
	}
	return out
}

// dominates returns true if a dominates b.
func dominates(a, b ScoredResult) bool {
	strictlyBetter := false
	for _, cb := range b.Breakdown {
		ra := a.RatingFor(cb.CriterionID)
		if ra < cb.Rating {
			return false
		}
		if ra > cb.Rating {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}
