package scoring

import (
	"math"
	"sort"
)

// tiePrecision groups scores equal to 6 decimal digits.
const tiePrecision = 1e6

// RankedResult adds competition-style rank and tie information.
type RankedResult struct {
	ScoredResult
	Rank         int  `json:"rank"`
	IsTied       bool `json:"is_tied"`
	TieGroupSize int  `json:"tie_group_size"`
}

// tieKey buckets a score so that grouping is transitive.
func tieKey(score float64) int64 {
	return int64(math.Round(score * tiePrecision))
}

// ScoresTied reports whether two scores fall in the same tie group.
func ScoresTied(a, b float64) bool {
	return tieKey(a) == tieKey(b)
}

// Rank sorts results by total score descending and assigns standard
// competition ranks: a tie group of size k shares one rank and the next
// group starts k places later (5, 5, 3 ranks as 1, 1, 3). Input order is
// kept inside a tie group. The input slice is not modified.
func Rank(results []ScoredResult) []RankedResult {
	ranked := make([]RankedResult, len(results))
	for i, r := range results {
		ranked[i] = RankedResult{ScoredResult: r}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return tieKey(ranked[i].TotalScore) > tieKey(ranked[j].TotalScore)
	})

	for start := 0; start < len(ranked); {
		end := start + 1
		for end < len(ranked) && ScoresTied(ranked[end].TotalScore, ranked[start].TotalScore) {
			end++
		}
		size := end - start
		for i := start; i < end; i++ {
			ranked[i].Rank = start + 1
			ranked[i].IsTied = size > 1
			ranked[i].TieGroupSize = size
		}
		start = end
	}
	return ranked
}

// Winners returns the members of the first tie group.
func Winners(ranked []RankedResult) []RankedResult {
	var out []RankedResult
	for _, r := range ranked {
		if r.Rank != 1 {
			break
		}
		out = append(out, r)
	}
	return out
}

// Scores extracts the total scores in ranked order.
func Scores(ranked []RankedResult) []float64 {
	out := make([]float64, len(ranked))
	for i, r := range ranked {
		out[i] = r.TotalScore
	}
	return out
}

// ResultsOf strips ranking information, keeping ranked order.
func ResultsOf(ranked []RankedResult) []ScoredResult {
	out := make([]ScoredResult, len(ranked))
	for i, r := range ranked {
		out[i] = r.ScoredResult
	}
	return out
}
