package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/arka-widjaja/timetable-engine/internal/service"
)

func testAppService() *service.SchedulerAppService {
	return service.NewSchedulerAppService(
		service.NewScheduleGeneratorService(nil),
		service.NewFeasibilityService(),
		service.NewRelaxationService(),
		service.NewPartialScheduleService(service.NewFeasibilityService(), service.NewRelaxationService()),
		service.NewConflictService(),
		service.NewManualAdjustmentService(service.NewConflictService()),
		nil,
		nil,
		nil,
	)
}

const generatePayload = `{
	"batches": [
		{"batchId": "b1", "name": "CS-A", "subjects": [
			{"subjectId": "s1", "name": "Math", "batchId": "b1", "lecturesPerWeek": 3, "lectureDuration": 60, "facultyId": "f1"}
		]}
	],
	"parameters": {
		"workingDays": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday"],
		"workingHoursStart": "08:00",
		"workingHoursEnd": "18:00",
		"slotDuration": 60,
		"breakDuration": 0,
		"maxLecturesPerDay": 8,
		"maxConsecutiveLectures": 4,
		"allowPartialSchedules": true,
		"maxAttemptsPerLecture": 20,
		"seed": 1
	}
}`

func TestGenerateHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(testAppService(), nil)

	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader([]byte(generatePayload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"schedule"`)
}

func TestGenerateHandlerValidationFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(testAppService(), nil)

	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader([]byte(`{"batches":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(testAppService(), nil)

	req, _ := http.NewRequest(http.MethodPost, "/schedules/analyze", bytes.NewReader([]byte(generatePayload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Analyze(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"analysis"`)
}

func TestPartialHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(testAppService(), nil)

	payload := `{
		"batches": [
			{"batchId": "b1", "name": "CS-A", "subjects": [
				{"subjectId": "s1", "name": "Math", "batchId": "b1", "lecturesPerWeek": 3, "lectureDuration": 60, "facultyId": "f1"}
			]}
		],
		"parameters": {
			"workingDays": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday"],
			"workingHoursStart": "08:00",
			"workingHoursEnd": "18:00",
			"slotDuration": 60,
			"breakDuration": 0,
			"maxLecturesPerDay": 8,
			"maxConsecutiveLectures": 4,
			"allowPartialSchedules": true,
			"maxAttemptsPerLecture": 20,
			"seed": 1
		},
		"prioritizationStrategy": "core-subjects",
		"targetCoverage": 80
	}`
	req, _ := http.NewRequest(http.MethodPost, "/schedules/partial", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Partial(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"coveragePercent"`)
}
