package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func newPartialScheduleService() *PartialScheduleService {
	return NewPartialScheduleService(NewFeasibilityService(), NewRelaxationService())
}

func TestGeneratePartialScheduleFullCoverage(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 3, 60, "f1")))

	params := defaultParams()
	engine := NewConstraintEngine(params)
	svc := newPartialScheduleService()

	result := svc.GeneratePartialSchedule([]*models.Batch{b1}, engine, params, PartialScheduleOptions{
		PrioritizationStrategy: StrategyCoreSubjects,
		TargetCoverage:         100,
	})
	assert.Equal(t, float64(100), result.CoveragePercent)
	assert.Empty(t, result.Unscheduled)
	assert.Len(t, result.Schedule.Entries, 3)
}

// S4 — infeasible scenario, expect targetCoverage=50 partial result.
func TestGeneratePartialScheduleUndercapacity(t *testing.T) {
	var batches []*models.Batch
	for bi := 0; bi < 5; bi++ {
		b := mustBatch(t, letterID("b", bi), "Batch")
		for si := 0; si < 8; si++ {
			require.NoError(t, b.AddSubject(mustSubject(t, letterID("s", bi*8+si), "Subject", b.BatchID, 5, 60, letterID("f", bi*8+si))))
		}
		batches = append(batches, b)
	}

	params := defaultParams()
	params.WorkingDays = map[models.DayOfWeek]bool{models.Monday: true, models.Tuesday: true, models.Wednesday: true}
	params.WorkingHoursStart = "09:00"
	params.WorkingHoursEnd = "12:00"

	engine := NewConstraintEngine(params)
	svc := newPartialScheduleService()

	result := svc.GeneratePartialSchedule(batches, engine, params, PartialScheduleOptions{
		PrioritizationStrategy: StrategyHighFrequency,
		TargetCoverage:         50,
	})
	assert.NotEmpty(t, result.Unscheduled)
	assert.Less(t, result.CoveragePercent, float64(100))
	for _, u := range result.Unscheduled {
		assert.NotEmpty(t, u.Reason)
	}
}

func TestGeneratePartialScheduleWithRelaxation(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 5, 60, "f1")))

	params := defaultParams()
	params.WorkingDays = map[models.DayOfWeek]bool{models.Monday: true}
	params.WorkingHoursStart = "09:00"
	params.WorkingHoursEnd = "10:00"
	engine := NewConstraintEngine(params)
	svc := newPartialScheduleService()

	result := svc.GeneratePartialSchedule([]*models.Batch{b1}, engine, params, PartialScheduleOptions{
		PrioritizationStrategy:    StrategyCoreSubjects,
		TargetCoverage:            100,
		AllowConstraintRelaxation: true,
	})
	assert.NotEmpty(t, result.RelaxationsApplied)
}
