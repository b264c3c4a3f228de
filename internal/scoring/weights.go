package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// importanceCurve maps ordinal importance to a perceptual weight. Each step
// multiplies by roughly 1.778, so importance 5 counts ten times importance 1.
var importanceCurve = map[int]float64{
	1: 1.0,
	2: 1.78,
	3: 3.16,
	4: 5.62,
	5: 10.0,
}

// SumTolerance bounds how far a normalized vector may drift from 100.
const SumTolerance = 1e-6

// Weights maps criterion id to a percentage. A normalized vector sums to 100.
type Weights map[int]float64

// ImportanceWeight returns the curve value for an importance, clamping
// out-of-range input to 1..5.
func ImportanceWeight(importance int) float64 {
	if importance < 1 {
		importance = 1
	}
	if importance > 5 {
		importance = 5
	}
	return importanceCurve[importance]
}

// Normalize converts importances (1..5) to percentage weights. No rounding
// is applied; use Rounded for integer presentation.
func Normalize(importances map[int]int) Weights {
	raw := make(map[int]float64, len(importances))
	for id, imp := range importances {
		raw[id] = ImportanceWeight(imp)
	}
	return NormalizeRaw(raw)
}

// NormalizeRaw rescales an arbitrary non-negative vector to sum to 100.
// Negative and NaN entries count as zero. An all-zero vector falls back
// to an equal split.
func NormalizeRaw(raw map[int]float64) Weights {
	out := make(Weights, len(raw))
	if len(raw) == 0 {
		return out
	}
	var total float64
	for _, v := range raw {
		if v > 0 && !math.IsInf(v, 1) {
			total += v
		}
	}
	if total <= 0 {
		equal := 100.0 / float64(len(raw))
		for id := range raw {
			out[id] = equal
		}
		return out
	}
	for id, v := range raw {
		if v > 0 && !math.IsInf(v, 1) {
			out[id] = v / total * 100
		} else {
			out[id] = 0
		}
	}
	return out
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Validate checks that weights sum to 100 and none are negative.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return nil
	}
	if math.Abs(w.Sum()-100) > SumTolerance {
		return fmt.Errorf("weights sum to %.6f, must sum to 100", w.Sum())
	}
	for id, v := range w {
		if v < 0 {
			return fmt.Errorf("negative weight for criterion %d: %f", id, v)
		}
	}
	return nil
}

// Get returns the weight for a criterion, zero when absent.
func (w Weights) Get(criterionID int) float64 {
	return w[criterionID]
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for id, v := range w {
		out[id] = v
	}
	return out
}

// IDs returns the criterion ids in ascending order.
func (w Weights) IDs() []int {
	ids := make([]int, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Rounded apportions integer percentages that sum to exactly 100 using the
// largest-remainder method: floor everything, then hand the leftover points
// to the entries with the largest fractional parts. Ties on the fractional
// part go to the lower criterion id.
func (w Weights) Rounded() map[int]int {
	out := make(map[int]int, len(w))
	if len(w) == 0 {
		return out
	}
	type frac struct {
		id   int
		part float64
	}
	fracs := make([]frac, 0, len(w))
	floorSum := 0
	for _, id := range w.IDs() {
		v := w[id]
		f := math.Floor(v)
		out[id] = int(f)
		floorSum += int(f)
		fracs = append(fracs, frac{id: id, part: v - f})
	}
	sort.SliceStable(fracs, func(i, j int) bool {
		return fracs[i].part > fracs[j].part
	})
	remainder := 100 - floorSum
	for i := 0; i < remainder && i < len(fracs); i++ {
		out[fracs[i].id]++
	}
	return out
}

// Fingerprint serializes the full vector in id order. Equal fingerprints
// mean bit-identical weights.
func (w Weights) Fingerprint() string {
	var b strings.Builder
	for i, id := range w.IDs() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(w[id], 'g', -1, 64))
	}
	return b.String()
}
