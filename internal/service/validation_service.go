package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// Rule is a single named, prioritised validation predicate over a target
// type T. Rules with the same target are evaluated highest priority first.
type Rule[T any] struct {
	Name     string
	Priority int
	Fn       func(T) []string
}

// ValidationService holds ordered rule lists keyed by target type and
// exposes the aggregate checks spec'd for scheduling scenarios.
type ValidationService struct {
	batchRules   []Rule[*models.Batch]
	subjectRules []Rule[*models.Subject]
	facultyRules []Rule[*models.Faculty]
	stringRules  []Rule[string]
	numberRules  []Rule[int]
}

// NewValidationService returns a service with the default rule set.
func NewValidationService() *ValidationService {
	s := &ValidationService{}
	s.AddBatchRule(Rule[*models.Batch]{
		Name:     "batch-subject-count",
		Priority: 50,
		Fn: func(b *models.Batch) []string {
			if b.ExceedsTypicalSubjectCount() {
				return []string{fmt.Sprintf("batch %s has more than 15 subjects", b.BatchID)}
			}
			return nil
		},
	})
	s.AddSubjectRule(Rule[*models.Subject]{
		Name:     "subject-weekly-duration",
		Priority: 50,
		Fn: func(sub *models.Subject) []string {
			if sub.GetTotalWeeklyDuration() > 12*60 {
				return []string{fmt.Sprintf("subject %s requires more than 12 hours/week", sub.SubjectID)}
			}
			return nil
		},
	})
	s.AddStringRule(Rule[string]{
		Name:     "non-blank",
		Priority: 50,
		Fn: func(v string) []string {
			if strings.TrimSpace(v) == "" {
				return []string{"value must not be blank"}
			}
			return nil
		},
	})
	s.AddNumberRule(Rule[int]{
		Name:     "non-negative",
		Priority: 50,
		Fn: func(v int) []string {
			if v < 0 {
				return []string{fmt.Sprintf("value %d must not be negative", v)}
			}
			return nil
		},
	})
	return s
}

func (s *ValidationService) AddBatchRule(r Rule[*models.Batch])     { s.batchRules = append(s.batchRules, r) }
func (s *ValidationService) AddSubjectRule(r Rule[*models.Subject]) { s.subjectRules = append(s.subjectRules, r) }
func (s *ValidationService) AddFacultyRule(r Rule[*models.Faculty]) { s.facultyRules = append(s.facultyRules, r) }
func (s *ValidationService) AddStringRule(r Rule[string])           { s.stringRules = append(s.stringRules, r) }
func (s *ValidationService) AddNumberRule(r Rule[int])              { s.numberRules = append(s.numberRules, r) }

// ValidateBatch runs every registered batch rule, priority descending, and
// returns deduplicated messages.
func (s *ValidationService) ValidateBatch(b *models.Batch) []string {
	rules := append([]Rule[*models.Batch]{}, s.batchRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return dedupe(flatMap(rules, func(r Rule[*models.Batch]) []string { return r.Fn(b) }))
}

// ValidateSubject runs every registered subject rule.
func (s *ValidationService) ValidateSubject(sub *models.Subject) []string {
	rules := append([]Rule[*models.Subject]{}, s.subjectRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return dedupe(flatMap(rules, func(r Rule[*models.Subject]) []string { return r.Fn(sub) }))
}

// ValidateFaculty runs every registered faculty rule.
func (s *ValidationService) ValidateFaculty(f *models.Faculty) []string {
	rules := append([]Rule[*models.Faculty]{}, s.facultyRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return dedupe(flatMap(rules, func(r Rule[*models.Faculty]) []string { return r.Fn(f) }))
}

// ValidateString runs every registered string rule, priority descending.
func (s *ValidationService) ValidateString(v string) []string {
	rules := append([]Rule[string]{}, s.stringRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return dedupe(flatMap(rules, func(r Rule[string]) []string { return r.Fn(v) }))
}

// ValidateNumber runs every registered number rule, priority descending.
func (s *ValidationService) ValidateNumber(v int) []string {
	rules := append([]Rule[int]{}, s.numberRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return dedupe(flatMap(rules, func(r Rule[int]) []string { return r.Fn(v) }))
}

// ValidateUniqueNames reports batch ids keyed by any name collision.
func (s *ValidationService) ValidateUniqueNames(batches []*models.Batch) []string {
	seen := make(map[string]string)
	var issues []string
	for _, b := range batches {
		if existing, ok := seen[b.Name]; ok {
			issues = append(issues, fmt.Sprintf("batch name %q is reused by %s and %s", b.Name, existing, b.BatchID))
			continue
		}
		seen[b.Name] = b.BatchID
	}
	return issues
}

// ValidateSchedulingFeasibility flags utilisation: warning above 80%,
// error above 100%.
func (s *ValidationService) ValidateSchedulingFeasibility(batches []*models.Batch, availableSlots int) []models.ConstraintViolation {
	required := 0
	for _, b := range batches {
		required += requiredLectures(b)
	}
	if availableSlots <= 0 {
		if required > 0 {
			return []models.ConstraintViolation{{
				Type:     "scheduling-feasibility",
				Message:  "no available time slots configured",
				Severity: models.SeverityError,
			}}
		}
		return nil
	}
	utilisation := float64(required) / float64(availableSlots)
	switch {
	case utilisation > 1.0:
		return []models.ConstraintViolation{{
			Type:     "scheduling-feasibility",
			Message:  fmt.Sprintf("required lectures (%d) exceed available slots (%d)", required, availableSlots),
			Severity: models.SeverityError,
		}}
	case utilisation > 0.8:
		return []models.ConstraintViolation{{
			Type:     "scheduling-feasibility",
			Message:  fmt.Sprintf("utilisation at %.0f%% of available slots", utilisation*100),
			Severity: models.SeverityWarning,
		}}
	}
	return nil
}

// ValidateConfiguration checks for orphan subjects (facultyId referencing
// no registered Faculty) and faculties that teach nothing.
func (s *ValidationService) ValidateConfiguration(batches []*models.Batch, faculties *models.FacultyRegistry) []string {
	var issues []string
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			if _, ok := faculties.Get(sub.FacultyID); !ok {
				issues = append(issues, fmt.Sprintf("subject %s references unknown faculty %s", sub.SubjectID, sub.FacultyID))
			}
		}
	}
	for _, f := range faculties.All() {
		if f.SubjectCount() == 0 {
			issues = append(issues, fmt.Sprintf("faculty %s teaches no subjects", f.FacultyID))
		}
	}
	return dedupe(issues)
}

func requiredLectures(b *models.Batch) int {
	total := 0
	for _, sub := range b.Subjects() {
		total += sub.LecturesPerWeek
	}
	return total
}

func flatMap[T any](items []T, fn func(T) []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, fn(item)...)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
