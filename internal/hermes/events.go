package hermes

import "time"

type DecisionSavedEvent struct {
	DecisionID string    `json:"decision_id"`
	Title      string    `json:"title"`
	Options    int       `json:"options"`
	Criteria   int       `json:"criteria"`
	SavedAt    time.Time `json:"saved_at"`
}

type DecisionDeletedEvent struct {
	DecisionID string `json:"decision_id"`
}

type DecisionAnalyzedEvent struct {
	DecisionID          string    `json:"decision_id"`
	AnalysisID          string    `json:"analysis_id"`
	Winners             []string  `json:"winners"`
	Confidence          int       `json:"confidence"`
	ConfidenceLevel     string    `json:"confidence_level"`
	StabilityPercentage float64   `json:"stability_percentage"`
	HighestRisk         string    `json:"highest_risk"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
}

type WhatIfOpenedEvent struct {
	SessionID  string   `json:"session_id"`
	DecisionID string   `json:"decision_id,omitempty"`
	Winners    []string `json:"winners"`
}

type WhatIfWinnerChangedEvent struct {
	SessionID       string             `json:"session_id"`
	PreviousWinners []string           `json:"previous_winners"`
	Winners         []string           `json:"winners"`
	Weights         map[string]float64 `json:"weights"`
	Fingerprint     string             `json:"fingerprint"`
	EvaluatedAt     time.Time          `json:"evaluated_at"`
}
