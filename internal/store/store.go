package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arunkumarkundra/choicease/internal/decision"
)

// Decision is a saved decision model in export-document form.
type Decision struct {
	ID        uuid.UUID         `json:"decision_id"`
	Title     string            `json:"title"`
	Document  decision.Document `json:"document"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// AnalysisSnapshot records the headline of one analysis run plus the full
// report as JSON.
type AnalysisSnapshot struct {
	ID                  uuid.UUID `json:"analysis_id"`
	DecisionID          uuid.UUID `json:"decision_id"`
	Winners             []string  `json:"winners"`
	Confidence          int       `json:"confidence"`
	ConfidenceLevel     string    `json:"confidence_level"`
	StabilityPercentage *float64  `json:"stability_percentage,omitempty"`
	HighestRisk         string    `json:"highest_risk"`
	Fingerprint         string    `json:"fingerprint"`
	Report              []byte    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

type DecisionFilter struct {
	Title string
	Limit int
}

type Store interface {
	CreateDecision(ctx context.Context, d *Decision) error
	GetDecision(ctx context.Context, id uuid.UUID) (*Decision, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*Decision, error)
	UpdateDecision(ctx context.Context, d *Decision) error
	DeleteDecision(ctx context.Context, id uuid.UUID) error

	CreateAnalysis(ctx context.Context, a *AnalysisSnapshot) error
	ListAnalyses(ctx context.Context, decisionID uuid.UUID, limit int) ([]*AnalysisSnapshot, error)

	Close() error
}
