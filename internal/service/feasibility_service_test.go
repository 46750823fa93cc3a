package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func TestAnalyzeScenarioFeasibleTrivial(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 3, 60, "f1")))

	params := defaultParams()
	engine := NewConstraintEngine(params)
	fs := NewFeasibilityService()

	analysis := fs.AnalyzeScenario([]*models.Batch{b1}, engine, params)
	assert.True(t, analysis.Feasible)
	assert.False(t, analysis.HasCriticalIssue())
	assert.True(t, analysis.PartialSolutionPossible)
	assert.Equal(t, float64(1), analysis.Confidence)
}

// S4 — infeasible critical: 5 batches x 8 subjects x 5 lectures vs 15 slots.
func TestAnalyzeScenarioInsufficientSlots(t *testing.T) {
	var batches []*models.Batch
	for bi := 0; bi < 5; bi++ {
		b := mustBatch(t, letterID("b", bi), "Batch")
		for si := 0; si < 8; si++ {
			require.NoError(t, b.AddSubject(mustSubject(t, letterID("s", bi*8+si), "Subject", b.BatchID, 5, 60, letterID("f", bi*8+si))))
		}
		batches = append(batches, b)
	}

	params := defaultParams()
	params.WorkingDays = map[models.DayOfWeek]bool{models.Monday: true, models.Tuesday: true, models.Wednesday: true, models.Thursday: true, models.Friday: true}
	params.WorkingHoursStart = "09:00"
	params.WorkingHoursEnd = "12:00"
	params.SlotDuration = 60
	params.BreakDuration = 0

	engine := NewConstraintEngine(params)
	fs := NewFeasibilityService()

	analysis := fs.AnalyzeScenario(batches, engine, params)
	require.False(t, analysis.Feasible)
	require.True(t, analysis.HasCriticalIssue())

	var found *models.Issue
	for i := range analysis.Issues {
		if analysis.Issues[i].Check == "INSUFFICIENT_TIME_SLOTS" {
			found = &analysis.Issues[i]
			break
		}
	}
	require.NotNil(t, found)
	require.NotNil(t, found.Deficit)
	assert.Equal(t, 185, *found.Deficit)
	assert.True(t, analysis.PartialSolutionPossible)
}

func TestAnalyzeScenarioFacultyOverload(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 20, 60, "f1")))

	params := defaultParams()
	params.WorkingDays = map[models.DayOfWeek]bool{models.Monday: true}
	params.WorkingHoursStart = "09:00"
	params.WorkingHoursEnd = "10:00"

	engine := NewConstraintEngine(params)
	fs := NewFeasibilityService()

	analysis := fs.AnalyzeScenario([]*models.Batch{b1}, engine, params)
	var has bool
	for _, i := range analysis.Issues {
		if i.Check == "FACULTY_OVERLOAD" && i.Severity == models.SeverityCritical {
			has = true
		}
	}
	assert.True(t, has)
}

func letterID(prefix string, n int) string {
	digits := "0123456789"
	if n < 10 {
		return prefix + string(digits[n])
	}
	return prefix + string(digits[n/10]) + string(digits[n%10])
}
