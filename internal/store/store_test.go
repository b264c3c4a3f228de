package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/arunkumarkundra/choicease/internal/decision"
)

func TestDecisionFilterDefaults(t *testing.T) {
	f := DecisionFilter{}
	if f.Limit != 0 {
		t.Errorf("expected 0 default limit, got %d", f.Limit)
	}
	if f.Title != "" {
		t.Error("expected empty title filter")
	}
}

func TestDecisionJSONKeepsDocument(t *testing.T) {
	m := decision.NewModel("Laptop", "")
	o := m.AddOption("Air", "")
	c := m.AddCriterion("Weight", "")
	if err := m.SetRating(o.ID, c.ID, 4.5); err != nil {
		t.Fatal(err)
	}
	d := Decision{Title: m.Title, Document: decision.NewDocument(m, nil, time.Now())}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back Decision
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Document.Ratings["1-1"] != 4.5 {
		t.Errorf("expected rating 4.5, got %v", back.Document.Ratings)
	}
}

func TestAnalysisSnapshotHidesReport(t *testing.T) {
	a := AnalysisSnapshot{Report: []byte(`{"big":true}`), Winners: []string{"A"}}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["report"]; ok {
		t.Error("expected report to be omitted from snapshot JSON")
	}
	if _, ok := m["stability_percentage"]; ok {
		t.Error("expected nil stability to be omitted")
	}
}
