package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// AdjustmentField enumerates which part of a ScheduleEntry a proposed change
// targets.
type AdjustmentField string

const (
	FieldTimeSlot  AdjustmentField = "TimeSlot"
	FieldFacultyID AdjustmentField = "FacultyId"
	FieldDuration  AdjustmentField = "Duration"
	FieldBatchID   AdjustmentField = "BatchId"
	FieldSubjectID AdjustmentField = "SubjectId"
)

// ProposedChange is one field mutation within an AdjustmentRequest.
// CurrentValue/ProposedValue are typed per Field: models.TimeSlot for
// TimeSlot, string for FacultyId/BatchId/SubjectId, int minutes for Duration.
type ProposedChange struct {
	Field         AdjustmentField
	CurrentValue  interface{}
	ProposedValue interface{}
}

// AdjustmentImpact is analyzeAdjustmentImpact's result.
type AdjustmentImpact struct {
	AffectedEntries     int
	ConflictsIntroduced int
	ConflictsResolved   int
	FeasibilityScore    float64
}

// AdjustmentRequest is a proposed manual change to one schedule entry.
type AdjustmentRequest struct {
	ID              string
	Type            string
	Description     string
	TargetEntry     models.ScheduleEntry
	ProposedChanges []ProposedChange
	Reason          string
	Priority        int
	RequestedBy     string
	Impact          AdjustmentImpact
}

// AdjustmentResult is applyAdjustment's outcome.
type AdjustmentResult struct {
	Success           bool
	Warnings          []string
	UpdatedSchedule   models.WeeklySchedule
	NewConflicts      []Conflict
	ResolvedConflicts []Conflict
}

// AdjustmentStatistics rolls up a batch of AdjustmentResults.
type AdjustmentStatistics struct {
	Total                int
	Successful           int
	Failed               int
	TotalNewConflicts    int
	TotalResolvedConflicts int
}

// ManualAdjustmentService implements C10. nextID is instance-scoped
// monotonic state, never process-global.
type ManualAdjustmentService struct {
	nextID   int
	conflict *ConflictService
}

func NewManualAdjustmentService(conflict *ConflictService) *ManualAdjustmentService {
	return &ManualAdjustmentService{conflict: conflict}
}

func (m *ManualAdjustmentService) allocateID() string {
	m.nextID++
	return fmt.Sprintf("adjustment-%d", m.nextID)
}

// CreateAdjustmentRequest assigns a monotonic id and a zero-value impact
// placeholder, to be filled in by AnalyzeAdjustmentImpact.
func (m *ManualAdjustmentService) CreateAdjustmentRequest(adjustmentType, description string, targetEntry models.ScheduleEntry, changes []ProposedChange, reason string, priority int, requestedBy string) AdjustmentRequest {
	return AdjustmentRequest{
		ID:              m.allocateID(),
		Type:            adjustmentType,
		Description:     description,
		TargetEntry:     targetEntry,
		ProposedChanges: changes,
		Reason:          reason,
		Priority:        priority,
		RequestedBy:     requestedBy,
	}
}

func applyChange(entry models.ScheduleEntry, change ProposedChange) (models.ScheduleEntry, error) {
	switch change.Field {
	case FieldTimeSlot:
		slot, ok := change.ProposedValue.(models.TimeSlot)
		if !ok {
			return entry, fmt.Errorf("proposedValue for TimeSlot must be a TimeSlot")
		}
		entry.Slot = slot
	case FieldFacultyID:
		id, ok := change.ProposedValue.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return entry, fmt.Errorf("proposedValue for FacultyId must be a non-empty string")
		}
		entry.FacultyID = id
	case FieldDuration:
		minutes, ok := change.ProposedValue.(int)
		if !ok || minutes <= 0 {
			return entry, fmt.Errorf("proposedValue for Duration must be a positive number of minutes")
		}
		entry.Slot.EndTime = models.FromMinutes(entry.Slot.StartMinutes() + minutes)
	case FieldBatchID:
		id, ok := change.ProposedValue.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return entry, fmt.Errorf("proposedValue for BatchId must be a non-empty string")
		}
		entry.BatchID = id
	case FieldSubjectID:
		id, ok := change.ProposedValue.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return entry, fmt.Errorf("proposedValue for SubjectId must be a non-empty string")
		}
		entry.SubjectID = id
	default:
		return entry, fmt.Errorf("unsupported field %q", change.Field)
	}
	return entry, nil
}

func findEntryIndex(entries []models.ScheduleEntry, target models.ScheduleEntry) int {
	for i, e := range entries {
		if e.Equals(target) {
			return i
		}
	}
	return -1
}

// feasibilityScoreForChange implements the Glossary's per-field heuristic:
// 0.9/0.3 for TimeSlot, 0.8/0.2 for FacultyId, 0.7/0.4 for Duration.
// BatchId/SubjectId reuse the TimeSlot weights — an identity change carries
// the same blast radius as a slot move.
func feasibilityScoreForChange(field AdjustmentField, zeroNewConflicts bool) float64 {
	switch field {
	case FieldFacultyID:
		if zeroNewConflicts {
			return 0.8
		}
		return 0.2
	case FieldDuration:
		if zeroNewConflicts {
			return 0.7
		}
		return 0.4
	default:
		if zeroNewConflicts {
			return 0.9
		}
		return 0.3
	}
}

// AnalyzeAdjustmentImpact analyses a request without committing it: for
// TimeSlot it counts entries overlapping the new slot; for FacultyId it
// counts that faculty's entries overlapping the target's slot; for
// Duration (when lengthening) it counts entries overlapping the extended
// window.
func (m *ManualAdjustmentService) AnalyzeAdjustmentImpact(request AdjustmentRequest, schedule models.WeeklySchedule, params models.SchedulingParameters, engine *ConstraintEngine) AdjustmentImpact {
	affected := 0
	primaryField := FieldTimeSlot
	for _, change := range request.ProposedChanges {
		primaryField = change.Field
		switch change.Field {
		case FieldTimeSlot:
			newSlot, ok := change.ProposedValue.(models.TimeSlot)
			if !ok {
				continue
			}
			for _, e := range schedule.Entries {
				if e.Equals(request.TargetEntry) {
					continue
				}
				if models.Overlap(e.Slot, newSlot) {
					affected++
				}
			}
		case FieldFacultyID:
			facultyID, ok := change.ProposedValue.(string)
			if !ok {
				continue
			}
			for _, e := range schedule.Entries {
				if e.Equals(request.TargetEntry) {
					continue
				}
				if e.FacultyID == facultyID && models.Overlap(e.Slot, request.TargetEntry.Slot) {
					affected++
				}
			}
		case FieldDuration:
			minutes, ok := change.ProposedValue.(int)
			if !ok {
				continue
			}
			if minutes <= request.TargetEntry.Slot.DurationMinutes() {
				continue
			}
			extended := request.TargetEntry.Slot
			extended.EndTime = models.FromMinutes(extended.StartMinutes() + minutes)
			for _, e := range schedule.Entries {
				if e.Equals(request.TargetEntry) {
					continue
				}
				if models.Overlap(e.Slot, extended) {
					affected++
				}
			}
		}
	}

	trial, err := applyChangesToEntry(request.TargetEntry, request.ProposedChanges)
	if err != nil {
		return AdjustmentImpact{AffectedEntries: affected, FeasibilityScore: 0}
	}
	before := m.conflict.DetectConflicts(schedule.Entries, params, engine)
	trialEntries := replaceEntry(schedule.Entries, request.TargetEntry, trial)
	after := m.conflict.DetectConflicts(trialEntries, params, engine)
	introduced, resolved := diffConflicts(before, after)

	return AdjustmentImpact{
		AffectedEntries:     affected,
		ConflictsIntroduced: len(introduced),
		ConflictsResolved:   len(resolved),
		FeasibilityScore:    feasibilityScoreForChange(primaryField, len(introduced) == 0),
	}
}

func applyChangesToEntry(entry models.ScheduleEntry, changes []ProposedChange) (models.ScheduleEntry, error) {
	mutated := entry
	for _, change := range changes {
		next, err := applyChange(mutated, change)
		if err != nil {
			return entry, err
		}
		mutated = next
	}
	return mutated, nil
}

func replaceEntry(entries []models.ScheduleEntry, target, replacement models.ScheduleEntry) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, len(entries))
	copy(out, entries)
	for i, e := range out {
		if e.Equals(target) {
			out[i] = replacement
			break
		}
	}
	return out
}

func conflictKey(c Conflict) string {
	return string(c.Type) + "|" + c.Description
}

func diffConflicts(before, after []Conflict) (introduced, resolved []Conflict) {
	beforeSet := make(map[string]Conflict, len(before))
	for _, c := range before {
		beforeSet[conflictKey(c)] = c
	}
	afterSet := make(map[string]Conflict, len(after))
	for _, c := range after {
		afterSet[conflictKey(c)] = c
	}
	for k, c := range afterSet {
		if _, ok := beforeSet[k]; !ok {
			introduced = append(introduced, c)
		}
	}
	for k, c := range beforeSet {
		if _, ok := afterSet[k]; !ok {
			resolved = append(resolved, c)
		}
	}
	sort.Slice(introduced, func(i, j int) bool { return introduced[i].Description < introduced[j].Description })
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Description < resolved[j].Description })
	return introduced, resolved
}

// ApplyAdjustment locates the target entry by structural equality and
// either commits every ordered change or fails atomically with warnings —
// it never partially applies a request.
func (m *ManualAdjustmentService) ApplyAdjustment(request AdjustmentRequest, schedule models.WeeklySchedule, params models.SchedulingParameters, engine *ConstraintEngine) AdjustmentResult {
	idx := findEntryIndex(schedule.Entries, request.TargetEntry)
	if idx == -1 {
		return AdjustmentResult{Success: false, Warnings: []string{"target entry does not exist in this schedule"}}
	}

	mutated := schedule.Entries[idx]
	for _, change := range request.ProposedChanges {
		next, err := applyChange(mutated, change)
		if err != nil {
			return AdjustmentResult{Success: false, Warnings: []string{err.Error()}}
		}
		mutated = next
	}

	before := m.conflict.DetectConflicts(schedule.Entries, params, engine)
	entries := make([]models.ScheduleEntry, len(schedule.Entries))
	copy(entries, schedule.Entries)
	entries[idx] = mutated
	after := m.conflict.DetectConflicts(entries, params, engine)
	newConflicts, resolvedConflicts := diffConflicts(before, after)

	return AdjustmentResult{
		Success:           true,
		UpdatedSchedule:   models.NewWeeklySchedule(entries, engine.ValidateSchedule(entries), timeNowUTC()),
		NewConflicts:      newConflicts,
		ResolvedConflicts: resolvedConflicts,
	}
}

// SuggestAlternativeAdjustments produces up to 3 system-generated
// alternatives for each TimeSlot change, one per non-current working day.
// Changes to any other field yield no alternatives.
func (m *ManualAdjustmentService) SuggestAlternativeAdjustments(request AdjustmentRequest, params models.SchedulingParameters) []AdjustmentRequest {
	var alternatives []AdjustmentRequest
	for _, change := range request.ProposedChanges {
		if change.Field != FieldTimeSlot {
			continue
		}
		currentSlot := request.TargetEntry.Slot
		count := 0
		for _, day := range params.SortedWorkingDays() {
			if count >= 3 {
				break
			}
			if day == currentSlot.Day {
				continue
			}
			altSlot := models.TimeSlot{Day: day, StartTime: currentSlot.StartTime, EndTime: currentSlot.EndTime, IsAvailable: true}
			alt := m.CreateAdjustmentRequest(
				request.Type,
				fmt.Sprintf("alternative: move to %s", day),
				request.TargetEntry,
				[]ProposedChange{{Field: FieldTimeSlot, CurrentValue: currentSlot, ProposedValue: altSlot}},
				request.Reason, request.Priority, request.RequestedBy,
			)
			alternatives = append(alternatives, alt)
			count++
		}
	}
	return alternatives
}

// RollbackAdjustment is stateless: it returns a copy of originalSchedule,
// letting the caller retain the authoritative original.
func (m *ManualAdjustmentService) RollbackAdjustment(originalSchedule models.WeeklySchedule, _ AdjustmentResult) models.WeeklySchedule {
	return originalSchedule.Clone()
}

// GetAdjustmentStatistics rolls up a batch of applyAdjustment outcomes.
func (m *ManualAdjustmentService) GetAdjustmentStatistics(results []AdjustmentResult) AdjustmentStatistics {
	stats := AdjustmentStatistics{Total: len(results)}
	for _, r := range results {
		if r.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.TotalNewConflicts += len(r.NewConflicts)
		stats.TotalResolvedConflicts += len(r.ResolvedConflicts)
	}
	return stats
}
