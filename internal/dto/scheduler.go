package dto

import (
	"fmt"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/internal/service"
)

func errMissingValue(field, expected string) error {
	if expected == "" {
		return fmt.Errorf("unsupported adjustment field %q", field)
	}
	return fmt.Errorf("field %q requires %s", field, expected)
}

// TimeSlotRequest is the wire shape for a TimeSlot.
type TimeSlotRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// ToTimeSlot validates and converts to a models.TimeSlot.
func (r TimeSlotRequest) ToTimeSlot() (models.TimeSlot, error) {
	day, err := models.ParseDayOfWeek(r.Day)
	if err != nil {
		return models.TimeSlot{}, err
	}
	return models.NewTimeSlot(day, r.StartTime, r.EndTime)
}

// CalendarDateRequest is the wire shape for a CalendarDate.
type CalendarDateRequest struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"required,min=1,max=12"`
	Day   int `json:"day" validate:"required,min=1,max=31"`
}

// SchedulingParametersRequest is the wire shape for SchedulingParameters.
type SchedulingParametersRequest struct {
	WorkingDays            []string              `json:"workingDays" validate:"required,min=1,dive"`
	WorkingHoursStart      string                `json:"workingHoursStart" validate:"required"`
	WorkingHoursEnd        string                `json:"workingHoursEnd" validate:"required"`
	SlotDuration           int                   `json:"slotDuration" validate:"required,min=1"`
	BreakDuration          int                   `json:"breakDuration" validate:"min=0"`
	Holidays               []CalendarDateRequest `json:"holidays"`
	MaxLecturesPerDay      int                   `json:"maxLecturesPerDay" validate:"min=0"`
	MaxConsecutiveLectures int                   `json:"maxConsecutiveLectures" validate:"min=0"`
	AllowOverlaps          bool                  `json:"allowOverlaps"`
	AllowPartialSchedules  bool                  `json:"allowPartialSchedules"`
	MaxAttemptsPerLecture  int                   `json:"maxAttemptsPerLecture" validate:"required,min=1"`
	Seed                   int64                 `json:"seed"`
}

// ToParameters validates and converts to models.SchedulingParameters.
func (r SchedulingParametersRequest) ToParameters() (models.SchedulingParameters, error) {
	params := models.SchedulingParameters{
		WorkingDays:            make(map[models.DayOfWeek]bool, len(r.WorkingDays)),
		WorkingHoursStart:      r.WorkingHoursStart,
		WorkingHoursEnd:        r.WorkingHoursEnd,
		SlotDuration:           r.SlotDuration,
		BreakDuration:          r.BreakDuration,
		MaxLecturesPerDay:      r.MaxLecturesPerDay,
		MaxConsecutiveLectures: r.MaxConsecutiveLectures,
		AllowOverlaps:          r.AllowOverlaps,
		AllowPartialSchedules:  r.AllowPartialSchedules,
		MaxAttemptsPerLecture:  r.MaxAttemptsPerLecture,
		Seed:                   r.Seed,
	}
	for _, d := range r.WorkingDays {
		day, err := models.ParseDayOfWeek(d)
		if err != nil {
			return models.SchedulingParameters{}, err
		}
		params.WorkingDays[day] = true
	}
	for _, h := range r.Holidays {
		date, err := models.NewCalendarDate(h.Year, h.Month, h.Day)
		if err != nil {
			return models.SchedulingParameters{}, err
		}
		params.Holidays = append(params.Holidays, date)
	}
	if err := params.Validate(); err != nil {
		return models.SchedulingParameters{}, err
	}
	return params, nil
}

// GenerateRequest ingests batches and scheduling parameters for a full
// weekly schedule generation.
type GenerateRequest struct {
	Batches    []models.BatchRecord        `json:"batches" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
}

// GenerateResponse wraps the generator's result.
type GenerateResponse struct {
	Schedule    models.WeeklySchedule        `json:"schedule"`
	Unscheduled []models.UnscheduledLecture  `json:"unscheduled"`
}

// AnalyzeRequest ingests batches and parameters for feasibility analysis.
type AnalyzeRequest struct {
	Batches    []models.BatchRecord        `json:"batches" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
}

// AnalyzeResponse wraps the feasibility analyser's result.
type AnalyzeResponse struct {
	Analysis models.ScenarioAnalysis `json:"analysis"`
}

// RelaxationPlanRequest carries a scenario (batches and parameters); the
// scenario is analysed on the spot and the applicable strategies ranked
// against that analysis.
type RelaxationPlanRequest struct {
	Batches    []models.BatchRecord        `json:"batches" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
}

// RelaxationPlanResponse reports the analysis and the ordered strategy plan.
type RelaxationPlanResponse struct {
	Analysis   models.ScenarioAnalysis `json:"analysis"`
	PlanOrder  []int                   `json:"planOrder"`
	Strategies []string                `json:"strategies"`
}

// RelaxationApplyRequest asks the planner to apply a previously returned
// plan (by strategy index) against the batches/parameters/engine state.
type RelaxationApplyRequest struct {
	Batches    []models.BatchRecord        `json:"batches" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
	PlanOrder  []int                       `json:"planOrder" validate:"required,min=1"`
}

// RelaxationApplyResponse reports the resulting relaxed state.
type RelaxationApplyResponse struct {
	Batches    []models.BatchRecord        `json:"batches"`
	Parameters SchedulingParametersRequest `json:"parameters"`
	Applied    []string                    `json:"applied"`
	Tradeoffs  []string                    `json:"tradeoffs"`
}

// PartialScheduleRequest ingests batches, parameters, and generation
// options for the partial-schedule generator.
type PartialScheduleRequest struct {
	Batches                   []models.BatchRecord        `json:"batches" validate:"required,min=1,dive"`
	Parameters                SchedulingParametersRequest `json:"parameters" validate:"required"`
	PrioritizationStrategy    string                      `json:"prioritizationStrategy" validate:"required"`
	TargetCoverage            float64                     `json:"targetCoverage" validate:"min=0,max=100"`
	AllowConstraintRelaxation bool                        `json:"allowConstraintRelaxation"`
	PreserveBalance           bool                        `json:"preserveBalance"`
	GenerateAlternatives      bool                        `json:"generateAlternatives"`
}

// PartialScheduleResponse wraps the partial generator's result.
type PartialScheduleResponse struct {
	Schedule            models.WeeklySchedule       `json:"schedule"`
	Unscheduled         []models.UnscheduledLecture `json:"unscheduled"`
	CoveragePercent     float64                     `json:"coveragePercent"`
	BatchCoverage       map[string]float64          `json:"batchCoverage"`
	SubjectCoverage     map[string]float64          `json:"subjectCoverage"`
	StrategyUsed        string                      `json:"strategyUsed"`
	RelaxationTradeoffs []string                    `json:"relaxationTradeoffs"`
	RelaxationsApplied  []string                    `json:"relaxationsApplied"`
	Alternatives        map[string][]models.TimeSlot `json:"alternatives,omitempty"`
}

// ConflictReportRequest ingests a candidate set of schedule entries for
// conflict detection.
type ConflictReportRequest struct {
	Entries    []models.ScheduleEntry      `json:"entries" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
}

// ConflictReportResponse wraps the conflict reporter's result.
type ConflictReportResponse struct {
	Conflicts []service.Conflict `json:"conflicts"`
}

// AutomaticResolutionRequest asks the reporter to apply automatic
// resolutions above a confidence threshold.
type AutomaticResolutionRequest struct {
	Entries    []models.ScheduleEntry      `json:"entries" validate:"required,min=1,dive"`
	Parameters SchedulingParametersRequest `json:"parameters" validate:"required"`
	Threshold  float64                     `json:"threshold" validate:"min=0,max=1"`
}

// AutomaticResolutionResponse wraps the reporter's applied-resolution outcome.
type AutomaticResolutionResponse struct {
	ResolvedSchedule    models.WeeklySchedule       `json:"resolvedSchedule"`
	AppliedResolutions  []service.AppliedResolution `json:"appliedResolutions"`
	UnresolvedConflicts []service.Conflict          `json:"unresolvedConflicts"`
}

// ProposedChangeRequest is the wire shape for one field mutation within an
// adjustment request. Exactly one of the typed value fields must be set,
// matching the Field named.
type ProposedChangeRequest struct {
	Field           string           `json:"field" validate:"required,oneof=TimeSlot FacultyId Duration BatchId SubjectId"`
	TimeSlotValue   *TimeSlotRequest `json:"timeSlotValue,omitempty"`
	StringValue     *string          `json:"stringValue,omitempty"`
	DurationMinutes *int             `json:"durationMinutes,omitempty"`
}

// ToProposedChange converts the wire shape into a typed service.ProposedChange.
func (r ProposedChangeRequest) ToProposedChange() (service.ProposedChange, error) {
	field := service.AdjustmentField(r.Field)
	switch field {
	case service.FieldTimeSlot:
		if r.TimeSlotValue == nil {
			return service.ProposedChange{}, errMissingValue(r.Field, "timeSlotValue")
		}
		slot, err := r.TimeSlotValue.ToTimeSlot()
		if err != nil {
			return service.ProposedChange{}, err
		}
		return service.ProposedChange{Field: field, ProposedValue: slot}, nil
	case service.FieldFacultyID, service.FieldBatchID, service.FieldSubjectID:
		if r.StringValue == nil {
			return service.ProposedChange{}, errMissingValue(r.Field, "stringValue")
		}
		return service.ProposedChange{Field: field, ProposedValue: *r.StringValue}, nil
	case service.FieldDuration:
		if r.DurationMinutes == nil {
			return service.ProposedChange{}, errMissingValue(r.Field, "durationMinutes")
		}
		return service.ProposedChange{Field: field, ProposedValue: *r.DurationMinutes}, nil
	default:
		return service.ProposedChange{}, errMissingValue(r.Field, "")
	}
}

// AdjustmentRequestPayload ingests a manual adjustment request.
type AdjustmentRequestPayload struct {
	Entries         []models.ScheduleEntry      `json:"entries" validate:"required,min=1,dive"`
	Parameters      SchedulingParametersRequest `json:"parameters" validate:"required"`
	Type            string                      `json:"type" validate:"required"`
	Description     string                      `json:"description"`
	TargetEntry     models.ScheduleEntry        `json:"targetEntry" validate:"required"`
	ProposedChanges []ProposedChangeRequest     `json:"proposedChanges" validate:"required,min=1,dive"`
	Reason          string                      `json:"reason"`
	Priority        int                         `json:"priority"`
	RequestedBy     string                      `json:"requestedBy"`
}

// AdjustmentResponse wraps the adjustment service's apply-and-analyze result.
type AdjustmentResponse struct {
	Impact service.AdjustmentImpact `json:"impact"`
	Result service.AdjustmentResult `json:"result"`
}

// GenerationRunSummary is the wire shape for a GenerationRun audit record.
type GenerationRunSummary struct {
	ID               string  `json:"id"`
	BatchCount       int     `json:"batchCount"`
	SubjectCount     int     `json:"subjectCount"`
	RequiredLectures int     `json:"requiredLectures"`
	ScheduledCount   int     `json:"scheduledCount"`
	Feasible         bool    `json:"feasible"`
	Score            float64 `json:"score"`
	ErrorCount       int     `json:"errorCount"`
	WarningCount     int     `json:"warningCount"`
	Strategy         string  `json:"strategy"`
}

// BatchesFromRecords converts ingested records into validated entity models.
func BatchesFromRecords(records []models.BatchRecord) ([]*models.Batch, error) {
	batches := make([]*models.Batch, 0, len(records))
	for _, r := range records {
		batch, err := models.FromBatchRecord(r)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// BatchesToRecords converts entity models back to their wire shape.
func BatchesToRecords(batches []*models.Batch) []models.BatchRecord {
	records := make([]models.BatchRecord, 0, len(batches))
	for _, b := range batches {
		records = append(records, b.ToRecord())
	}
	return records
}

// FromParameters converts a models.SchedulingParameters back to its wire shape.
func FromParameters(p models.SchedulingParameters) SchedulingParametersRequest {
	req := SchedulingParametersRequest{
		WorkingHoursStart:      p.WorkingHoursStart,
		WorkingHoursEnd:        p.WorkingHoursEnd,
		SlotDuration:           p.SlotDuration,
		BreakDuration:          p.BreakDuration,
		MaxLecturesPerDay:      p.MaxLecturesPerDay,
		MaxConsecutiveLectures: p.MaxConsecutiveLectures,
		AllowOverlaps:          p.AllowOverlaps,
		AllowPartialSchedules:  p.AllowPartialSchedules,
		MaxAttemptsPerLecture:  p.MaxAttemptsPerLecture,
		Seed:                   p.Seed,
	}
	for _, d := range p.SortedWorkingDays() {
		req.WorkingDays = append(req.WorkingDays, d.String())
	}
	for _, h := range p.Holidays {
		req.Holidays = append(req.Holidays, CalendarDateRequest{Year: h.Year, Month: h.Month, Day: h.Day})
	}
	return req
}
