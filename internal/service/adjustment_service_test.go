package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// Manual reschedule: applyAdjustment moves one entry to a free slot with no
// new conflicts, and rollbackAdjustment restores the original entries.
func TestApplyAdjustmentRescheduleAndRollback(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
		{BatchID: "b2", SubjectID: "s2", FacultyID: "f2", Slot: slot(models.Tuesday, "09:00", "10:00")},
	}
	params := defaultParams()
	engine := NewConstraintEngine(params)
	schedule := models.NewWeeklySchedule(entries, nil, timeNowUTC())
	original := schedule.Clone()

	conflictSvc := NewConflictService()
	adjSvc := NewManualAdjustmentService(conflictSvc)

	target := entries[0]
	newSlot := slot(models.Wednesday, "09:00", "10:00")
	request := adjSvc.CreateAdjustmentRequest(
		"reschedule",
		"move b1/s1 to Wednesday",
		target,
		[]ProposedChange{{Field: FieldTimeSlot, CurrentValue: target.Slot, ProposedValue: newSlot}},
		"faculty requested", 1, "coordinator",
	)

	result := adjSvc.ApplyAdjustment(request, schedule, params, engine)
	require.True(t, result.Success)
	assert.Empty(t, result.NewConflicts)

	var moved bool
	for _, e := range result.UpdatedSchedule.Entries {
		if e.BatchID == "b1" && e.SubjectID == "s1" {
			assert.Equal(t, models.Wednesday, e.Slot.Day)
			moved = true
		}
	}
	assert.True(t, moved)

	restored := adjSvc.RollbackAdjustment(original, result)
	require.Len(t, restored.Entries, len(original.Entries))
	for i := range original.Entries {
		assert.True(t, restored.Entries[i].Equals(original.Entries[i]))
	}
}

func TestApplyAdjustmentMissingTargetFails(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
	}
	params := defaultParams()
	engine := NewConstraintEngine(params)
	schedule := models.NewWeeklySchedule(entries, nil, timeNowUTC())
	adjSvc := NewManualAdjustmentService(NewConflictService())

	missing := models.ScheduleEntry{BatchID: "bX", SubjectID: "sX", FacultyID: "fX", Slot: slot(models.Friday, "09:00", "10:00")}
	request := adjSvc.CreateAdjustmentRequest(
		"reschedule", "nonexistent entry", missing,
		[]ProposedChange{{Field: FieldTimeSlot, CurrentValue: missing.Slot, ProposedValue: slot(models.Friday, "10:00", "11:00")}},
		"", 0, "",
	)

	result := adjSvc.ApplyAdjustment(request, schedule, params, engine)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
}

func TestAnalyzeAdjustmentImpactDetectsIntroducedConflict(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
		{BatchID: "b2", SubjectID: "s2", FacultyID: "f1", Slot: slot(models.Monday, "10:00", "11:00")},
	}
	params := defaultParams()
	engine := NewConstraintEngine(params)
	schedule := models.NewWeeklySchedule(entries, nil, timeNowUTC())
	adjSvc := NewManualAdjustmentService(NewConflictService())

	target := entries[0]
	overlapping := slot(models.Monday, "10:00", "11:00")
	request := adjSvc.CreateAdjustmentRequest(
		"reschedule", "move into f1's other slot", target,
		[]ProposedChange{{Field: FieldTimeSlot, CurrentValue: target.Slot, ProposedValue: overlapping}},
		"", 0, "",
	)

	impact := adjSvc.AnalyzeAdjustmentImpact(request, schedule, params, engine)
	assert.Positive(t, impact.ConflictsIntroduced)
	assert.Less(t, impact.FeasibilityScore, 0.9)
}

func TestSuggestAlternativeAdjustmentsLimitsToThree(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
	}
	params := defaultParams()
	adjSvc := NewManualAdjustmentService(NewConflictService())

	target := entries[0]
	request := adjSvc.CreateAdjustmentRequest(
		"reschedule", "move b1/s1", target,
		[]ProposedChange{{Field: FieldTimeSlot, CurrentValue: target.Slot, ProposedValue: slot(models.Tuesday, "09:00", "10:00")}},
		"", 0, "",
	)

	alternatives := adjSvc.SuggestAlternativeAdjustments(request, params)
	assert.LessOrEqual(t, len(alternatives), 3)
	for _, alt := range alternatives {
		for _, c := range alt.ProposedChanges {
			slot := c.ProposedValue.(models.TimeSlot)
			assert.NotEqual(t, target.Slot.Day, slot.Day)
		}
	}
}

func TestGetAdjustmentStatisticsRollsUp(t *testing.T) {
	adjSvc := NewManualAdjustmentService(NewConflictService())
	results := []AdjustmentResult{
		{Success: true, NewConflicts: nil, ResolvedConflicts: []Conflict{{ID: "c1"}}},
		{Success: false, Warnings: []string{"failed"}},
	}
	stats := adjSvc.GetAdjustmentStatistics(results)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.TotalResolvedConflicts)
}
