package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// RunAuditRepository persists one-way GenerationRun records: an append-only
// audit trail of engine invocations. It is never read back by the engine
// itself to reconstruct scheduling state — only for operator-facing history.
type RunAuditRepository struct {
	db *sqlx.DB
}

// NewRunAuditRepository constructs the repository.
func NewRunAuditRepository(db *sqlx.DB) *RunAuditRepository {
	return &RunAuditRepository{db: db}
}

// Record inserts a completed run's summary.
func (r *RunAuditRepository) Record(ctx context.Context, run *models.GenerationRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const insertQuery = `
INSERT INTO generation_runs (id, batch_count, subject_count, required_lectures, scheduled_count, feasible, score, error_count, warning_count, strategy, created_at)
VALUES (:id, :batch_count, :subject_count, :required_lectures, :scheduled_count, :feasible, :score, :error_count, :warning_count, :strategy, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, insertQuery, run); err != nil {
		return fmt.Errorf("insert generation run: %w", err)
	}
	return nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunAuditRepository) ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, batch_count, subject_count, required_lectures, scheduled_count, feasible, score, error_count, warning_count, strategy, created_at
FROM generation_runs ORDER BY created_at DESC LIMIT $1`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}

// FindByID loads a single run by its identifier.
func (r *RunAuditRepository) FindByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	const query = `
SELECT id, batch_count, subject_count, required_lectures, scheduled_count, feasible, score, error_count, warning_count, strategy, created_at
FROM generation_runs WHERE id = $1`
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}
