package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func newRunAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunAuditRepositoryRecord(t *testing.T) {
	db, mock, cleanup := newRunAuditRepoMock(t)
	defer cleanup()
	repo := NewRunAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_runs")).
		WithArgs(sqlmock.AnyArg(), 2, 5, 20, 18, true, 0.92, 0, 1, "standard", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.GenerationRun{
		BatchCount:       2,
		SubjectCount:     5,
		RequiredLectures: 20,
		ScheduledCount:   18,
		Feasible:         true,
		Score:            0.92,
		WarningCount:     1,
		Strategy:         "standard",
	}
	err := repo.Record(context.Background(), run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAuditRepositoryRecordNilPayload(t *testing.T) {
	db, _, cleanup := newRunAuditRepoMock(t)
	defer cleanup()
	repo := NewRunAuditRepository(db)

	err := repo.Record(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunAuditRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newRunAuditRepoMock(t)
	defer cleanup()
	repo := NewRunAuditRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "batch_count", "subject_count", "required_lectures", "scheduled_count",
		"feasible", "score", "error_count", "warning_count", "strategy", "created_at",
	}).AddRow("run-1", 1, 3, 12, 12, true, 1.0, 0, 0, "standard", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, batch_count, subject_count, required_lectures, scheduled_count, feasible, score, error_count, warning_count, strategy, created_at")).
		WithArgs(20).
		WillReturnRows(rows)

	runs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAuditRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRunAuditRepoMock(t)
	defer cleanup()
	repo := NewRunAuditRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "batch_count", "subject_count", "required_lectures", "scheduled_count",
		"feasible", "score", "error_count", "warning_count", "strategy", "created_at",
	}).AddRow("run-1", 1, 3, 12, 12, true, 1.0, 0, 0, "standard", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, batch_count, subject_count, required_lectures, scheduled_count, feasible, score, error_count, warning_count, strategy, created_at")).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.FindByID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
