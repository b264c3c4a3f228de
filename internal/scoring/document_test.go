package scoring

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/arunkumarkundra/choicease/internal/decision"
)

func TestExportRehydrateRoundTrip(t *testing.T) {
	m := exampleModel(t)
	doc := Export(m, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := decision.ParseDocument(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	back, w, recomputed, err := Rehydrate(parsed)
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if recomputed {
		t.Error("expected stored normalized weights to be reused")
	}

	before := Rank(Score(m, Normalize(m.Importances())))
	after := Rank(Score(back, w))
	for i := range before {
		if before[i].Option.Name != after[i].Option.Name {
			t.Errorf("position %d: %s != %s", i, before[i].Option.Name, after[i].Option.Name)
		}
		if math.Abs(before[i].TotalScore-after[i].TotalScore) > 1e-9 {
			t.Errorf("%s: score %f != %f", before[i].Option.Name, before[i].TotalScore, after[i].TotalScore)
		}
	}
}

func TestRehydrateRecomputesMissingWeights(t *testing.T) {
	m := exampleModel(t)
	doc := Export(m, time.Now())
	doc.NormalizedWeights = nil

	_, w, recomputed, err := Rehydrate(&doc)
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if !recomputed {
		t.Error("expected weights to be recomputed")
	}
	if math.Abs(w[1]-90.9091) > 0.001 {
		t.Errorf("expected 90.9091, got %f", w[1])
	}
}

func TestRehydrateRecomputesStaleWeights(t *testing.T) {
	tests := []struct {
		name       string
		normalized map[string]float64
	}{
		{"missing criterion", map[string]float64{"1": 100}},
		{"extra criterion", map[string]float64{"1": 50, "2": 30, "9": 20}},
		{"bad sum", map[string]float64{"1": 70, "2": 20}},
		{"bad key", map[string]float64{"x": 50, "2": 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Export(exampleModel(t), time.Now())
			doc.NormalizedWeights = tt.normalized
			_, w, recomputed, err := Rehydrate(&doc)
			if err != nil {
				t.Fatalf("rehydrate: %v", err)
			}
			if !recomputed {
				t.Error("expected weights to be recomputed")
			}
			if err := w.Validate(); err != nil {
				t.Errorf("recomputed weights invalid: %v", err)
			}
		})
	}
}
