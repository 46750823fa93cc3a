package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func slot(day models.DayOfWeek, start, end string) models.TimeSlot {
	return models.TimeSlot{Day: day, StartTime: start, EndTime: end, IsAvailable: true}
}

// S5 — exactly one FacultyDoubleBooking, critical, >=2 resolutions, top
// resolution confidence >=0.8 and effort automatic.
func TestDetectConflictsFacultyDoubleBooking(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
		{BatchID: "b2", SubjectID: "s2", FacultyID: "f1", Slot: slot(models.Monday, "09:30", "10:30")},
	}
	params := defaultParams()
	engine := NewConstraintEngine(params)
	svc := NewConflictService()

	conflicts := svc.DetectConflicts(entries, params, engine)

	var bookings []Conflict
	for _, c := range conflicts {
		if c.Type == ConflictFacultyDoubleBooking {
			bookings = append(bookings, c)
		}
	}
	require.Len(t, bookings, 1)
	assert.Equal(t, models.SeverityCritical, bookings[0].Severity)
	require.GreaterOrEqual(t, len(bookings[0].Resolutions), 2)
	assert.GreaterOrEqual(t, bookings[0].Resolutions[0].Confidence, 0.8)
	assert.Equal(t, EffortAutomatic, bookings[0].Resolutions[0].Effort)
}

func TestDetectConflictsHolidayConflict(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
	}
	params := defaultParams()
	holiday, err := models.NewCalendarDate(2024, 12, 23)
	require.NoError(t, err)
	params.Holidays = []models.CalendarDate{holiday}

	engine := NewConstraintEngine(params)
	svc := NewConflictService()
	conflicts := svc.DetectConflicts(entries, params, engine)

	var found bool
	for _, c := range conflicts {
		if c.Type == ConflictHolidayConflict {
			found = true
		}
	}
	assert.True(t, found)
}

func TestApplyAutomaticResolutionsReschedulesDoubleBooking(t *testing.T) {
	entries := []models.ScheduleEntry{
		{BatchID: "b1", SubjectID: "s1", FacultyID: "f1", Slot: slot(models.Monday, "09:00", "10:00")},
		{BatchID: "b2", SubjectID: "s2", FacultyID: "f1", Slot: slot(models.Monday, "09:30", "10:30")},
	}
	params := defaultParams()
	engine := NewConstraintEngine(params)
	svc := NewConflictService()

	schedule := models.NewWeeklySchedule(entries, nil, timeNowUTC())
	conflicts := svc.DetectConflicts(entries, params, engine)

	outcome := svc.ApplyAutomaticResolutions(conflicts, schedule, params, engine, 0.8)
	assert.NotEmpty(t, outcome.AppliedResolutions)
	remaining := NewConflictService().DetectConflicts(outcome.ResolvedSchedule.Entries, params, engine)
	for _, c := range remaining {
		assert.NotEqual(t, ConflictFacultyDoubleBooking, c.Type)
	}
}
