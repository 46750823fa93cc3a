package models

import "time"

// GenerationRun is an append-only audit record of a single full generation
// (SchedulerAppService.GenerateSchedule); partial generations are not
// recorded. It is never read back by the engine to
// reconstruct scheduling state — the engine stays stateless across calls
// (spec.md §1 non-goal (b)); this is observability only, the same role the
// teacher's audit middleware plays for request logs.
type GenerationRun struct {
	ID               string    `db:"id" json:"id"`
	BatchCount       int       `db:"batch_count" json:"batch_count"`
	SubjectCount     int       `db:"subject_count" json:"subject_count"`
	RequiredLectures int       `db:"required_lectures" json:"required_lectures"`
	ScheduledCount   int       `db:"scheduled_count" json:"scheduled_count"`
	Feasible         bool      `db:"feasible" json:"feasible"`
	Score            float64   `db:"score" json:"score"`
	ErrorCount       int       `db:"error_count" json:"error_count"`
	WarningCount     int       `db:"warning_count" json:"warning_count"`
	Strategy         string    `db:"strategy" json:"strategy"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
