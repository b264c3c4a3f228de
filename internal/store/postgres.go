package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by updates and deletes of a missing row.
var ErrNotFound = errors.New("not found")

const defaultListLimit = 50

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the schema. Safe to call multiple times.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS choicease_decisions (
    decision_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title TEXT NOT NULL,
    document JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_choicease_decisions_updated ON choicease_decisions(updated_at DESC);

CREATE TABLE IF NOT EXISTS choicease_analyses (
    analysis_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    decision_id UUID NOT NULL REFERENCES choicease_decisions(decision_id) ON DELETE CASCADE,
    winners TEXT[] NOT NULL DEFAULT '{}',
    confidence INTEGER NOT NULL,
    confidence_level TEXT NOT NULL,
    stability_percentage DOUBLE PRECISION,
    highest_risk TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    report JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_choicease_analyses_decision ON choicease_analyses(decision_id, created_at DESC);
`

const decisionColumns = `decision_id, title, document, created_at, updated_at`

func (s *PostgresStore) CreateDecision(ctx context.Context, d *Decision) error {
	docJSON, err := json.Marshal(d.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO choicease_decisions (title, document)
		VALUES ($1, $2)
		RETURNING decision_id, created_at, updated_at`,
		d.Title, docJSON,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (s *PostgresStore) GetDecision(ctx context.Context, id uuid.UUID) (*Decision, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+`
		FROM choicease_decisions WHERE decision_id = $1`, id)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM choicease_decisions WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Title != "" {
		n++
		query += fmt.Sprintf(" AND title ILIKE $%d", n)
		args = append(args, "%"+filter.Title+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	n++
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", n)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDecision(ctx context.Context, d *Decision) error {
	docJSON, err := json.Marshal(d.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		UPDATE choicease_decisions SET title = $2, document = $3, updated_at = NOW()
		WHERE decision_id = $1
		RETURNING created_at, updated_at`,
		d.ID, d.Title, docJSON,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM choicease_decisions WHERE decision_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *AnalysisSnapshot) error {
	winners := a.Winners
	if winners == nil {
		winners = []string{}
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO choicease_analyses (decision_id, winners, confidence, confidence_level,
			stability_percentage, highest_risk, fingerprint, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING analysis_id, created_at`,
		a.DecisionID, winners, a.Confidence, a.ConfidenceLevel,
		a.StabilityPercentage, a.HighestRisk, a.Fingerprint, a.Report,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, decisionID uuid.UUID, limit int) ([]*AnalysisSnapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT analysis_id, decision_id, winners, confidence, confidence_level,
			stability_percentage, highest_risk, fingerprint, report, created_at
		FROM choicease_analyses
		WHERE decision_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, decisionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AnalysisSnapshot
	for rows.Next() {
		a := &AnalysisSnapshot{}
		if err := rows.Scan(
			&a.ID, &a.DecisionID, &a.Winners, &a.Confidence, &a.ConfidenceLevel,
			&a.StabilityPercentage, &a.HighestRisk, &a.Fingerprint, &a.Report, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanDecision(row pgx.Row) (*Decision, error) {
	d := &Decision{}
	var docJSON []byte
	if err := row.Scan(&d.ID, &d.Title, &docJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docJSON, &d.Document); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return d, nil
}
