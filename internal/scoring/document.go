package scoring

import (
	"math"
	"time"

	"github.com/arunkumarkundra/choicease/internal/decision"
)

// Export snapshots the model with its derived normalized weights.
func Export(m *decision.Model, at time.Time) decision.Document {
	return decision.NewDocument(m, Normalize(m.Importances()), at)
}

// Rehydrate rebuilds a model from a document and resolves its weights.
// Stored normalized weights are used when they cover exactly the live
// criteria and sum to 100; otherwise they are recomputed from importances.
// recomputed reports which path was taken.
func Rehydrate(doc *decision.Document) (m *decision.Model, w Weights, recomputed bool, err error) {
	m, err = doc.Model()
	if err != nil {
		return nil, nil, false, err
	}
	stored, err := doc.NormalizedWeightsByID()
	if err != nil || !coversExactly(stored, m) {
		return m, Normalize(m.Importances()), true, nil
	}
	w = Weights(stored)
	if w.Validate() != nil {
		return m, Normalize(m.Importances()), true, nil
	}
	return m, w, false, nil
}

func coversExactly(stored map[int]float64, m *decision.Model) bool {
	criteria := m.Criteria()
	if len(stored) == 0 || len(stored) != len(criteria) {
		return false
	}
	for _, c := range criteria {
		v, ok := stored[c.ID]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	return true
}
