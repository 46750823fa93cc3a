package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func TestCreateRelaxationPlanOrdersByImpactAndCriticalBonus(t *testing.T) {
	rs := NewRelaxationService()
	analysis := models.ScenarioAnalysis{
		Issues: []models.Issue{
			{Check: "FACULTY_OVERLOAD", Severity: models.SeverityCritical},
			{Check: "DURATION_MISMATCH", Severity: models.SeverityMedium},
		},
	}
	plan := rs.CreateRelaxationPlan(analysis)
	require.NotEmpty(t, plan)

	names := make([]string, len(plan))
	for i, idx := range plan {
		names[i] = rs.Strategies()[idx].Name
	}
	assert.Contains(t, names, "Allow Faculty Overlap")
	assert.Contains(t, names, "Standardise Durations")
	assert.Contains(t, names, "Enable Partial Scheduling")
	assert.Equal(t, []string{"Reduce Lecture Frequency", "Allow Faculty Overlap", "Enable Partial Scheduling", "Standardise Durations"}, names)
}

func TestApplyRelaxationPlanReducesLectureFrequency(t *testing.T) {
	b1 := mustBatch(t, "b1", "CS-A")
	require.NoError(t, b1.AddSubject(mustSubject(t, "s1", "Math", "b1", 5, 60, "f1")))

	params := defaultParams()
	engine := NewConstraintEngine(params)
	rs := NewRelaxationService()

	analysis := models.ScenarioAnalysis{Issues: []models.Issue{{Check: "BATCH_DAILY_LOAD", Severity: models.SeverityHigh}}}
	plan := rs.CreateRelaxationPlan(analysis)
	require.NotEmpty(t, plan)

	state := RelaxationState{Engine: engine, Batches: []*models.Batch{b1}, Params: params}
	next, tradeoffs, applied := rs.ApplyRelaxationPlan(plan, state)

	assert.NotEmpty(t, applied)
	assert.Equal(t, 4, next.Batches[0].Subjects()[0].LecturesPerWeek)
	assert.Equal(t, 5, b1.Subjects()[0].LecturesPerWeek, "original batch must not mutate")
	_ = tradeoffs
}

func TestApplyAllowFacultyOverlapRemovesConstraint(t *testing.T) {
	params := defaultParams()
	engine := NewConstraintEngine(params)
	state := RelaxationState{Engine: engine, Params: params}

	next, result, err := applyAllowFacultyOverlap(state)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	for _, c := range next.Engine.GetAll() {
		assert.NotEqual(t, "FacultyConflict", c.Type())
	}
	for _, c := range engine.GetAll() {
		if c.Type() == "FacultyConflict" {
			return
		}
	}
	t.Fatal("original engine must not mutate")
}

func TestApplyAddSaturdayIsIdempotent(t *testing.T) {
	params := defaultParams()
	params.WorkingDays[models.Saturday] = true
	engine := NewConstraintEngine(params)
	state := RelaxationState{Engine: engine, Params: params}

	_, result, err := applyAddSaturday(state)
	require.NoError(t, err)
	assert.False(t, result.Applied)
}
