package analysis

import (
	"math/rand"
	"time"
)

const (
	// DefaultStabilityTrials is the fixed Monte Carlo iteration count.
	DefaultStabilityTrials = 500
	// DefaultStabilityNoise is the half-width of the uniform score perturbation.
	DefaultStabilityNoise = 0.2
)

// StabilityResult summarizes how often the winner survives score noise.
type StabilityResult struct {
	Trials         int     `json:"trials"`
	WinnerChanges  int     `json:"winner_changes"`
	Percentage     float64 `json:"percentage"`
	Interpretation string  `json:"interpretation"`
}

// Simulator perturbs scores with uniform noise and counts winner changes.
// It is synchronous and always runs the full trial count.
type Simulator struct {
	rng    *rand.Rand
	trials int
	noise  float64
}

// NewSimulator creates a Simulator drawing from src. A nil src seeds from
// the clock. Non-positive trials or noise fall back to the defaults.
func NewSimulator(src rand.Source, trials int, noise float64) *Simulator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if trials <= 0 {
		trials = DefaultStabilityTrials
	}
	if noise <= 0 {
		noise = DefaultStabilityNoise
	}
	return &Simulator{
		rng:    rand.New(src),
		trials: trials,
		noise:  noise,
	}
}

// NewSeededSimulator is a deterministic Simulator with default trials and noise.
func NewSeededSimulator(seed int64) *Simulator {
	return NewSimulator(rand.NewSource(seed), DefaultStabilityTrials, DefaultStabilityNoise)
}

// Run simulates against scores ordered winner-first. Each trial perturbs
// every score independently by U(-noise, +noise) and checks whether index 0
// is still strictly the highest. Fewer than two scores are trivially stable.
func (s *Simulator) Run(scores []float64) StabilityResult {
	res := StabilityResult{Trials: s.trials}
	if len(scores) < 2 {
		res.Percentage = 100
		res.Interpretation = interpretStability(res.Percentage)
		return res
	}

	perturbed := make([]float64, len(scores))
	for i := 0; i < s.trials; i++ {
		for j, v := range scores {
			perturbed[j] = v + (s.rng.Float64()*2-1)*s.noise
		}
		if s.winnerIndex(perturbed) != 0 {
			res.WinnerChanges++
		}
	}

	res.Percentage = 100 * float64(s.trials-res.WinnerChanges) / float64(s.trials)
	res.Interpretation = interpretStability(res.Percentage)
	return res
}

// winnerIndex returns the first index holding the maximum.
func (s *Simulator) winnerIndex(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

func interpretStability(pct float64) string {
	switch {
	case pct > 90:
		return "very stable: small rating changes are unlikely to change the winner"
	case pct > 70:
		return "reasonably stable: the winner holds under most small rating changes"
	default:
		return "fragile: small rating changes could easily produce a different winner"
	}
}
