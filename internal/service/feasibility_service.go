package service

import (
	"fmt"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// FeasibilityService performs the static scenario analysis described in
// spec.md §4.6: it never generates a schedule, only estimates whether one
// is likely to exist and why.
type FeasibilityService struct{}

func NewFeasibilityService() *FeasibilityService {
	return &FeasibilityService{}
}

type scenarioTotals struct {
	batches        int
	subjects       int
	lectures       int
	faculty        int
	availableSlots int
	facultyHours   map[string]int
	facultySubject map[string]map[string]struct{}
}

func (s *FeasibilityService) summarise(batches []*models.Batch, engine *ConstraintEngine, params models.SchedulingParameters) scenarioTotals {
	totals := scenarioTotals{
		facultyHours:   make(map[string]int),
		facultySubject: make(map[string]map[string]struct{}),
	}
	totals.batches = len(batches)
	totals.availableSlots = len(params.CandidateSlots())
	for _, b := range batches {
		totals.subjects += b.SubjectCount()
		for _, sub := range b.Subjects() {
			totals.lectures += sub.LecturesPerWeek
			totals.facultyHours[sub.FacultyID] += sub.GetTotalWeeklyDuration()
			if totals.facultySubject[sub.FacultyID] == nil {
				totals.facultySubject[sub.FacultyID] = make(map[string]struct{})
			}
			totals.facultySubject[sub.FacultyID][sub.SubjectID] = struct{}{}
		}
	}
	totals.faculty = len(totals.facultyHours)
	return totals
}

// AnalyzeScenario runs every check in spec.md §4.6's table and derives the
// aggregate feasibility/confidence/successRate fields.
func (s *FeasibilityService) AnalyzeScenario(batches []*models.Batch, engine *ConstraintEngine, params models.SchedulingParameters) models.ScenarioAnalysis {
	totals := s.summarise(batches, engine, params)

	var issues []models.Issue
	issues = append(issues, s.timeSlotSufficiency(totals)...)
	issues = append(issues, s.facultyLoad(totals, params)...)
	issues = append(issues, s.batchDailyLoad(batches, params)...)
	issues = append(issues, s.constraintContention(totals)...)
	issues = append(issues, s.holidayImpact(params)...)
	issues = append(issues, s.durationMismatch(batches, params)...)
	issues = append(issues, s.resourceContention(totals, params)...)
	issues = append(issues, s.complexityScore(totals, engine)...)

	recommendations := recommendationsFor(issues)

	analysis := models.ScenarioAnalysis{
		Issues:          issues,
		Recommendations: recommendations,
	}
	analysis.Feasible = !analysis.HasCriticalIssue()
	analysis.Confidence = models.ComputeConfidence(issues)
	analysis.PartialSolutionPossible = !hasStructuralIssue(issues)

	counts := analysis.CountBySeverity()
	rate := 100 - 20*counts[models.SeverityHigh] - 10*counts[models.SeverityMedium]
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	analysis.EstimatedSuccessRate = float64(rate)
	return analysis
}

func intPtr(v int) *int { return &v }

func (s *FeasibilityService) timeSlotSufficiency(t scenarioTotals) []models.Issue {
	if t.availableSlots <= 0 {
		if t.lectures > 0 {
			return []models.Issue{{
				Check:     "INSUFFICIENT_TIME_SLOTS",
				Severity:  models.SeverityCritical,
				Message:   "no available time slots configured",
				Required:  intPtr(t.lectures),
				Available: intPtr(0),
				Deficit:   intPtr(t.lectures),
			}}
		}
		return nil
	}
	if t.lectures > t.availableSlots {
		return []models.Issue{{
			Check:     "INSUFFICIENT_TIME_SLOTS",
			Severity:  models.SeverityCritical,
			Message:   fmt.Sprintf("required lectures (%d) exceed available slots (%d)", t.lectures, t.availableSlots),
			Required:  intPtr(t.lectures),
			Available: intPtr(t.availableSlots),
			Deficit:   intPtr(t.lectures - t.availableSlots),
		}}
	}
	utilisation := float64(t.lectures) / float64(t.availableSlots)
	if utilisation > 0.85 {
		return []models.Issue{{
			Check:     "TIME_SLOT_UTILISATION",
			Severity:  models.SeverityHigh,
			Message:   fmt.Sprintf("utilisation at %.0f%% of available slots", utilisation*100),
			Required:  intPtr(t.lectures),
			Available: intPtr(t.availableSlots),
		}}
	}
	return nil
}

func (s *FeasibilityService) facultyLoad(t scenarioTotals, params models.SchedulingParameters) []models.Issue {
	availableMinutes := len(params.CandidateSlots()) * params.SlotDuration
	if availableMinutes <= 0 {
		return nil
	}
	var issues []models.Issue
	for facultyID, minutes := range t.facultyHours {
		ratio := float64(minutes) / float64(availableMinutes)
		switch {
		case ratio > 1.2:
			issues = append(issues, models.Issue{
				Check:       "FACULTY_OVERLOAD",
				Severity:    models.SeverityCritical,
				Message:     fmt.Sprintf("faculty %s requires %.0f%% of available weekly minutes", facultyID, ratio*100),
				AffectedIDs: []string{facultyID},
			})
		case ratio > 0.8:
			issues = append(issues, models.Issue{
				Check:       "FACULTY_OVERLOAD",
				Severity:    models.SeverityHigh,
				Message:     fmt.Sprintf("faculty %s requires %.0f%% of available weekly minutes", facultyID, ratio*100),
				AffectedIDs: []string{facultyID},
			})
		}
	}
	return issues
}

func (s *FeasibilityService) batchDailyLoad(batches []*models.Batch, params models.SchedulingParameters) []models.Issue {
	workingDays := len(params.SortedWorkingDays())
	if workingDays == 0 {
		return nil
	}
	var issues []models.Issue
	for _, b := range batches {
		total := b.TotalWeeklyLectures()
		perDay := total / workingDays
		if total%workingDays != 0 {
			perDay++
		}
		switch {
		case perDay > 12:
			issues = append(issues, models.Issue{
				Check:       "BATCH_DAILY_LOAD",
				Severity:    models.SeverityCritical,
				Message:     fmt.Sprintf("batch %s averages %d lectures/day", b.BatchID, perDay),
				AffectedIDs: []string{b.BatchID},
			})
		case perDay > 8:
			issues = append(issues, models.Issue{
				Check:       "BATCH_DAILY_LOAD",
				Severity:    models.SeverityHigh,
				Message:     fmt.Sprintf("batch %s averages %d lectures/day", b.BatchID, perDay),
				AffectedIDs: []string{b.BatchID},
			})
		}
	}
	return issues
}

func (s *FeasibilityService) constraintContention(t scenarioTotals) []models.Issue {
	var issues []models.Issue
	for facultyID, subjects := range t.facultySubject {
		if len(subjects) > 10 {
			issues = append(issues, models.Issue{
				Check:       "CONSTRAINT_CONTENTION",
				Severity:    models.SeverityMedium,
				Message:     fmt.Sprintf("faculty %s teaches %d distinct subjects", facultyID, len(subjects)),
				AffectedIDs: []string{facultyID},
			})
		}
	}
	return issues
}

func (s *FeasibilityService) holidayImpact(params models.SchedulingParameters) []models.Issue {
	workingDays := params.SortedWorkingDays()
	if len(workingDays) == 0 {
		return nil
	}
	holidayDays := params.HolidayDaysOfWeek()
	lost := 0
	for _, d := range workingDays {
		if holidayDays[d] {
			lost++
		}
	}
	if lost == 0 {
		return nil
	}
	ratio := float64(lost) / float64(len(workingDays))
	switch {
	case ratio > 0.4:
		return []models.Issue{{Check: "HOLIDAY_IMPACT", Severity: models.SeverityHigh, Message: fmt.Sprintf("%.0f%% of working days lost to holidays", ratio*100)}}
	case ratio > 0.2:
		return []models.Issue{{Check: "HOLIDAY_IMPACT", Severity: models.SeverityMedium, Message: fmt.Sprintf("%.0f%% of working days lost to holidays", ratio*100)}}
	}
	return nil
}

func (s *FeasibilityService) durationMismatch(batches []*models.Batch, params models.SchedulingParameters) []models.Issue {
	if params.SlotDuration <= 0 {
		return nil
	}
	var issues []models.Issue
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			if sub.LectureDuration > 2*params.SlotDuration || float64(sub.LectureDuration) < 0.5*float64(params.SlotDuration) {
				issues = append(issues, models.Issue{
					Check:       "DURATION_MISMATCH",
					Severity:    models.SeverityMedium,
					Message:     fmt.Sprintf("subject %s duration %dmin diverges from slot duration %dmin", sub.SubjectID, sub.LectureDuration, params.SlotDuration),
					AffectedIDs: []string{sub.SubjectID},
				})
			}
		}
	}
	return issues
}

func (s *FeasibilityService) resourceContention(t scenarioTotals, params models.SchedulingParameters) []models.Issue {
	workingDays := len(params.SortedWorkingDays())
	if workingDays == 0 || t.availableSlots == 0 {
		return nil
	}
	peakCapacity := t.availableSlots / workingDays
	if peakCapacity <= 0 {
		return nil
	}
	if t.lectures > 3*peakCapacity {
		return []models.Issue{{
			Check:    "RESOURCE_CONTENTION",
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("required lectures (%d) exceed 3x peak daily capacity (%d)", t.lectures, peakCapacity),
			Required: intPtr(t.lectures),
		}}
	}
	return nil
}

func (s *FeasibilityService) complexityScore(t scenarioTotals, engine *ConstraintEngine) []models.Issue {
	constraintCount := 0
	if engine != nil {
		constraintCount = len(engine.GetAll())
	}
	deficit := t.lectures - t.availableSlots
	if deficit < 0 {
		deficit = 0
	}
	score := 10*t.batches + 5*t.subjects + 2*t.lectures + 8*t.faculty + 15*constraintCount + 50*deficit
	switch {
	case score > 2000:
		return []models.Issue{{Check: "COMPLEXITY_SCORE", Severity: models.SeverityCritical, Message: fmt.Sprintf("complexity score %d", score)}}
	case score > 1000:
		return []models.Issue{{Check: "COMPLEXITY_SCORE", Severity: models.SeverityHigh, Message: fmt.Sprintf("complexity score %d", score)}}
	}
	return nil
}

func recommendationsFor(issues []models.Issue) []models.Recommendation {
	priorityByCheck := map[string]int{
		"INSUFFICIENT_TIME_SLOTS": 1,
		"FACULTY_OVERLOAD":        2,
		"BATCH_DAILY_LOAD":        3,
		"RESOURCE_CONTENTION":     4,
		"COMPLEXITY_SCORE":        5,
		"TIME_SLOT_UTILISATION":   6,
		"HOLIDAY_IMPACT":          7,
		"DURATION_MISMATCH":       8,
		"CONSTRAINT_CONTENTION":   9,
	}
	var recs []models.Recommendation
	seen := make(map[string]bool)
	for _, issue := range issues {
		if seen[issue.Check] {
			continue
		}
		seen[issue.Check] = true
		recs = append(recs, models.Recommendation{
			Priority: priorityByCheck[issue.Check],
			Message:  recommendationMessage(issue.Check),
		})
	}
	return recs
}

func recommendationMessage(check string) string {
	switch check {
	case "INSUFFICIENT_TIME_SLOTS":
		return "extend working hours, add working days, or reduce lecture counts"
	case "TIME_SLOT_UTILISATION":
		return "consider relaxation before committing to the current parameter set"
	case "FACULTY_OVERLOAD":
		return "redistribute subjects to additional faculty or reduce lecture frequency"
	case "BATCH_DAILY_LOAD":
		return "spread the batch's subjects across more working days"
	case "CONSTRAINT_CONTENTION":
		return "split faculty assignments across more instructors"
	case "HOLIDAY_IMPACT":
		return "extend working hours or add a working day to offset lost capacity"
	case "DURATION_MISMATCH":
		return "standardise lecture durations to the configured slot duration"
	case "RESOURCE_CONTENTION":
		return "increase slots per day or reduce concurrent demand"
	case "COMPLEXITY_SCORE":
		return "simplify the scenario: fewer constraints, batches, or subjects"
	default:
		return "review scenario parameters"
	}
}

func hasStructuralIssue(issues []models.Issue) bool {
	for _, i := range issues {
		if i.Check == "INSUFFICIENT_TIME_SLOTS" && i.Severity == models.SeverityCritical && i.Available != nil && *i.Available == 0 {
			return true
		}
	}
	return false
}
