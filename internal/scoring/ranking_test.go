package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunkumarkundra/choicease/internal/decision"
)

func scored(scores ...float64) []ScoredResult {
	out := make([]ScoredResult, len(scores))
	for i, s := range scores {
		out[i] = ScoredResult{
			Option:     decision.Option{ID: i + 1, Name: string(rune('A' + i))},
			TotalScore: s,
		}
	}
	return out
}

func TestRankCompetitionStyle(t *testing.T) {
	ranked := Rank(scored(3.0, 5.0, 5.0))
	require.Len(t, ranked, 3)

	assert.Equal(t, []int{1, 1, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	assert.True(t, ranked[0].IsTied)
	assert.True(t, ranked[1].IsTied)
	assert.Equal(t, 2, ranked[0].TieGroupSize)
	assert.False(t, ranked[2].IsTied)
	assert.Equal(t, 1, ranked[2].TieGroupSize)

	// Input order is kept inside the tie group.
	assert.Equal(t, "B", ranked[0].Option.Name)
	assert.Equal(t, "C", ranked[1].Option.Name)
	assert.Len(t, Winners(ranked), 2)
}

func TestRankTieTolerance(t *testing.T) {
	ranked := Rank(scored(3.0000001, 3.0, 2.9999))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.True(t, ScoresTied(3.0000001, 3.0))
	assert.False(t, ScoresTied(3.00001, 3.0))
}

func TestRankNoTies(t *testing.T) {
	m := exampleModel(t)
	ranked := Rank(Score(m, Normalize(m.Importances())))
	names := []string{ranked[0].Option.Name, ranked[1].Option.Name, ranked[2].Option.Name}
	assert.Equal(t, []string{"A", "C", "B"}, names)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		assert.False(t, r.IsTied)
	}
}

func TestRankSingleAndEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
	ranked := Rank(scored(1.2))
	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.False(t, ranked[0].IsTied)
}

func TestRankMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(8)
		scores := make([]float64, n)
		for i := range scores {
			// Coarse values force frequent ties.
			scores[i] = float64(rng.Intn(6)) / 2
		}
		ranked := Rank(scored(scores...))

		for i := 0; i+1 < len(ranked); i++ {
			if ranked[i].TotalScore < ranked[i+1].TotalScore {
				t.Fatalf("not descending at %d", i)
			}
			if ScoresTied(ranked[i].TotalScore, ranked[i+1].TotalScore) {
				if ranked[i].Rank != ranked[i+1].Rank {
					t.Fatalf("tied scores with different ranks")
				}
			} else if ranked[i+1].Rank != i+2 {
				t.Fatalf("rank gap not explained by tie size: %d at position %d", ranked[i+1].Rank, i+1)
			}
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := scored(1, 3, 2)
	Rank(in)
	assert.Equal(t, 1.0, in[0].TotalScore)
	assert.Equal(t, 3.0, in[1].TotalScore)
}

func TestScores(t *testing.T) {
	ranked := Rank(scored(1, 3, 2))
	assert.Equal(t, []float64{3, 2, 1}, Scores(ranked))
}
