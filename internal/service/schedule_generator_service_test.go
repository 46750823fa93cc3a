package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func mustBatch(t *testing.T, id, name string) *models.Batch {
	t.Helper()
	b, err := models.NewBatch(id, name)
	require.NoError(t, err)
	return b
}

func mustSubject(t *testing.T, id, name, batchID string, lectures, duration int, facultyID string) *models.Subject {
	t.Helper()
	s, err := models.NewSubject(id, name, batchID, lectures, duration, facultyID)
	require.NoError(t, err)
	return s
}

func defaultParams() models.SchedulingParameters {
	return models.DefaultSchedulingParameters()
}

// S1 — trivial feasible.
func TestGenerateTrivialFeasible(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 3, 60, "f1")))

	params := defaultParams()
	engine := NewConstraintEngine(params)
	gen := NewScheduleGeneratorService(nil)

	schedule, unscheduled, err := gen.Generate([]*models.Batch{b1}, engine, params)
	require.NoError(t, err)
	assert.Empty(t, unscheduled)
	assert.Len(t, schedule.Entries, 3)

	seenDays := make(map[models.DayOfWeek]bool)
	for _, e := range schedule.Entries {
		assert.Equal(t, "f1", e.FacultyID)
		assert.Equal(t, "b1", e.BatchID)
		assert.Equal(t, "s1", e.SubjectID)
		assert.False(t, seenDays[e.Slot.Day], "two lectures landed on the same day")
		seenDays[e.Slot.Day] = true
	}
	assert.Empty(t, schedule.Violations)
}

// S2 — faculty clash, must separate.
func TestGenerateFacultyClashSeparates(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 1, 60, "f1")))
	b2 := mustBatch(t, "b2", "CS-B")
	require.NoError(t, b2.AddSubject(mustSubject(t, "s2", "Physics", "b2", 1, 60, "f1")))

	params := defaultParams()
	engine := NewConstraintEngine(params)
	gen := NewScheduleGeneratorService(nil)

	schedule, unscheduled, err := gen.Generate([]*models.Batch{b1, b2}, engine, params)
	require.NoError(t, err)
	assert.Empty(t, unscheduled)
	require.Len(t, schedule.Entries, 2)
	assert.False(t, models.Overlap(schedule.Entries[0].Slot, schedule.Entries[1].Slot))
}

// S3 — holiday excludes day.
func TestGenerateHolidayExcludesDay(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 3, 60, "f1")))

	params := defaultParams()
	holiday, err := models.NewCalendarDate(2024, 12, 23) // a Monday
	require.NoError(t, err)
	params.Holidays = []models.CalendarDate{holiday}

	engine := NewConstraintEngine(params)
	gen := NewScheduleGeneratorService(nil)

	schedule, unscheduled, err := gen.Generate([]*models.Batch{b1}, engine, params)
	require.NoError(t, err)
	assert.Empty(t, unscheduled)
	require.Len(t, schedule.Entries, 3)
	for _, e := range schedule.Entries {
		assert.NotEqual(t, models.Monday, e.Slot.Day)
	}
}

func TestGenerateDeterministicGivenSeed(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 4, 60, "f1")))
	require.NoError(t, b1.AddSubject(mustSubject(t, "s2", "Physics", "b1", 3, 60, "f2")))

	params := defaultParams()
	params.Seed = 42

	gen := NewScheduleGeneratorService(nil)
	engine1 := NewConstraintEngine(params)
	schedule1, _, err := gen.Generate([]*models.Batch{b1}, engine1, params)
	require.NoError(t, err)

	engine2 := NewConstraintEngine(params)
	schedule2, _, err := gen.Generate([]*models.Batch{b1}, engine2, params)
	require.NoError(t, err)

	require.Equal(t, len(schedule1.Entries), len(schedule2.Entries))
	for i := range schedule1.Entries {
		assert.True(t, schedule1.Entries[i].Equals(schedule2.Entries[i]))
	}
}

func TestGenerateRejectsInvalidParameters(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 1, 60, "f1")))

	params := defaultParams()
	params.SlotDuration = 0

	gen := NewScheduleGeneratorService(nil)
	engine := NewConstraintEngine(params)
	_, _, err := gen.Generate([]*models.Batch{b1}, engine, params)
	assert.Error(t, err)
}

func TestGenerateHardFailureWithoutPartialSchedules(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 20, 60, "f1")))

	params := defaultParams()
	params.WorkingHoursStart = "09:00"
	params.WorkingHoursEnd = "10:00"
	params.WorkingDays = map[models.DayOfWeek]bool{models.Monday: true}
	params.AllowPartialSchedules = false

	gen := NewScheduleGeneratorService(nil)
	engine := NewConstraintEngine(params)
	_, _, err := gen.Generate([]*models.Batch{b1}, engine, params)
	require.Error(t, err)
	var schedErr *models.SchedulingError
	assert.ErrorAs(t, err, &schedErr)
}
