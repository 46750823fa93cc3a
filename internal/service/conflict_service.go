package service

import (
	"fmt"
	"sort"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// ConflictType enumerates the conflict categories the reporter detects.
type ConflictType string

const (
	ConflictFacultyDoubleBooking ConflictType = "FacultyDoubleBooking"
	ConflictTimeSlotOverlap      ConflictType = "TimeSlotOverlap"
	ConflictBatchOverload        ConflictType = "BatchOverload"
	ConflictHolidayConflict      ConflictType = "HolidayConflict"
	ConflictConstraintViolation  ConflictType = "ConstraintViolation"
	ConflictResourceUnavailable  ConflictType = "ResourceUnavailable"
	ConflictDistributionImbalance ConflictType = "DistributionImbalance"
	ConflictExcessiveGaps        ConflictType = "ExcessiveGaps"
)

// ResolutionEffort classifies how much manual work a resolution needs.
type ResolutionEffort string

const (
	EffortAutomatic ResolutionEffort = "automatic"
	EffortLow       ResolutionEffort = "low"
	EffortMedium    ResolutionEffort = "medium"
	EffortHigh      ResolutionEffort = "high"
)

// ConflictResolution is a candidate fix for a Conflict.
type ConflictResolution struct {
	Description string
	Confidence  float64
	Effort      ResolutionEffort
}

// Conflict is one detected problem in a committed schedule.
type Conflict struct {
	ID              string
	Type            ConflictType
	Severity        models.IssueSeverity
	Description     string
	AffectedEntries []models.ScheduleEntry
	Resolutions     []ConflictResolution
}

// AppliedResolution records one automatic resolution that was carried out.
type AppliedResolution struct {
	ConflictID string
	Type       ConflictType
	Resolution ConflictResolution
}

// ResolutionOutcome is applyAutomaticResolutions's result.
type ResolutionOutcome struct {
	ResolvedSchedule   models.WeeklySchedule
	AppliedResolutions []AppliedResolution
	UnresolvedConflicts []Conflict
}

// ConflictService detects and resolves schedule conflicts (spec.md §4.9).
// nextID is instance-scoped monotonic state, never process-global.
type ConflictService struct {
	nextID int
}

func NewConflictService() *ConflictService {
	return &ConflictService{}
}

func (s *ConflictService) allocateID() string {
	s.nextID++
	return fmt.Sprintf("conflict-%d", s.nextID)
}

// DetectConflicts runs every detection rule in spec.md §4.9 over a committed
// schedule and returns the ordered conflict list.
func (s *ConflictService) DetectConflicts(entries []models.ScheduleEntry, params models.SchedulingParameters, engine *ConstraintEngine) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, s.detectFacultyDoubleBooking(entries)...)
	conflicts = append(conflicts, s.detectTimeSlotOverlap(entries)...)
	conflicts = append(conflicts, s.detectBatchOverload(entries, params)...)
	conflicts = append(conflicts, s.detectHolidayConflict(entries, params)...)
	conflicts = append(conflicts, s.detectDistributionImbalance(entries)...)
	conflicts = append(conflicts, s.detectExcessiveGaps(entries)...)
	conflicts = append(conflicts, s.detectConstraintViolations(entries, engine)...)
	return conflicts
}

func (s *ConflictService) detectFacultyDoubleBooking(entries []models.ScheduleEntry) []Conflict {
	byFaculty := make(map[string][]models.ScheduleEntry)
	for _, e := range entries {
		byFaculty[e.FacultyID] = append(byFaculty[e.FacultyID], e)
	}
	var conflicts []Conflict
	for _, facultyID := range sortedStringKeys(byFaculty) {
		group := byFaculty[facultyID]
		var affected []models.ScheduleEntry
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if models.Overlap(group[i].Slot, group[j].Slot) {
					affected = appendUnique(affected, group[i], group[j])
				}
			}
		}
		if len(affected) == 0 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictFacultyDoubleBooking,
			Severity:        models.SeverityCritical,
			Description:     fmt.Sprintf("faculty %s is double-booked", facultyID),
			AffectedEntries: affected,
			Resolutions: []ConflictResolution{
				{Description: "reschedule one of the overlapping entries", Confidence: 0.8, Effort: EffortAutomatic},
				{Description: "swap the overlapping entries' time slots", Confidence: 0.6, Effort: EffortLow},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectTimeSlotOverlap(entries []models.ScheduleEntry) []Conflict {
	byBatch := make(map[string][]models.ScheduleEntry)
	for _, e := range entries {
		byBatch[e.BatchID] = append(byBatch[e.BatchID], e)
	}
	var conflicts []Conflict
	for _, batchID := range sortedStringKeys(byBatch) {
		group := byBatch[batchID]
		var affected []models.ScheduleEntry
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if models.Overlap(group[i].Slot, group[j].Slot) {
					affected = appendUnique(affected, group[i], group[j])
				}
			}
		}
		if len(affected) == 0 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictTimeSlotOverlap,
			Severity:        models.SeverityCritical,
			Description:     fmt.Sprintf("batch %s has overlapping lectures", batchID),
			AffectedEntries: affected,
			Resolutions: []ConflictResolution{
				{Description: "reschedule one of the overlapping entries", Confidence: 0.8, Effort: EffortAutomatic},
				{Description: "swap the overlapping entries' time slots", Confidence: 0.6, Effort: EffortLow},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectBatchOverload(entries []models.ScheduleEntry, params models.SchedulingParameters) []Conflict {
	limit := params.MaxLecturesPerDay
	if limit <= 0 {
		limit = 8
	}
	counts := make(map[batchDayKey][]models.ScheduleEntry)
	for _, e := range entries {
		k := batchDayKey{e.BatchID, e.Slot.Day}
		counts[k] = append(counts[k], e)
	}
	var conflicts []Conflict
	for _, k := range sortedBatchDayKeys(counts) {
		group := counts[k]
		if len(group) <= limit {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictBatchOverload,
			Severity:        models.SeverityHigh,
			Description:     fmt.Sprintf("batch %s has %d lectures on %s (limit %d)", k.batch, len(group), k.day, limit),
			AffectedEntries: group,
			Resolutions: []ConflictResolution{
				{Description: "redistribute lectures across other working days", Confidence: 0.7, Effort: EffortMedium},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectHolidayConflict(entries []models.ScheduleEntry, params models.SchedulingParameters) []Conflict {
	holidayDays := params.HolidayDaysOfWeek()
	if len(holidayDays) == 0 {
		return nil
	}
	byDay := make(map[models.DayOfWeek][]models.ScheduleEntry)
	for _, e := range entries {
		if holidayDays[e.Slot.Day] {
			byDay[e.Slot.Day] = append(byDay[e.Slot.Day], e)
		}
	}
	var conflicts []Conflict
	for _, day := range sortedDays(byDay) {
		group := byDay[day]
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictHolidayConflict,
			Severity:        models.SeverityHigh,
			Description:     fmt.Sprintf("%d lecture(s) fall on holiday weekday %s", len(group), day),
			AffectedEntries: group,
			Resolutions: []ConflictResolution{
				{Description: "reschedule to a non-holiday working day", Confidence: 0.9, Effort: EffortAutomatic},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectDistributionImbalance(entries []models.ScheduleEntry) []Conflict {
	groups := make(map[batchSubjectKey][]models.ScheduleEntry)
	for _, e := range entries {
		k := batchSubjectKey{e.BatchID, e.SubjectID}
		groups[k] = append(groups[k], e)
	}
	var conflicts []Conflict
	for _, k := range sortedBatchSubjectKeys(groups) {
		group := groups[k]
		if len(group) < 3 {
			continue
		}
		days := make(map[models.DayOfWeek]bool)
		for _, e := range group {
			days[e.Slot.Day] = true
		}
		ratio := float64(len(days)) / float64(len(group))
		if ratio >= 0.5 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictDistributionImbalance,
			Severity:        models.SeverityMedium,
			Description:     fmt.Sprintf("subject %s for batch %s is concentrated on %d day(s) across %d lectures", k.subject, k.batch, len(days), len(group)),
			AffectedEntries: group,
			Resolutions: []ConflictResolution{
				{Description: "spread lectures across more working days", Confidence: 0.6, Effort: EffortMedium},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectExcessiveGaps(entries []models.ScheduleEntry) []Conflict {
	groups := make(map[batchDayKey][]models.ScheduleEntry)
	for _, e := range entries {
		k := batchDayKey{e.BatchID, e.Slot.Day}
		groups[k] = append(groups[k], e)
	}
	var conflicts []Conflict
	for _, k := range sortedBatchDayKeys(groups) {
		group := append([]models.ScheduleEntry{}, groups[k]...)
		sort.Slice(group, func(i, j int) bool { return group[i].Slot.StartMinutes() < group[j].Slot.StartMinutes() })
		var gapped []models.ScheduleEntry
		for i := 1; i < len(group); i++ {
			gap := group[i].Slot.StartMinutes() - group[i-1].Slot.EndMinutes()
			if gap > 180 {
				gapped = appendUnique(gapped, group[i-1], group[i])
			}
		}
		if len(gapped) == 0 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictExcessiveGaps,
			Severity:        models.SeverityLow,
			Description:     fmt.Sprintf("batch %s has a gap exceeding 180 minutes on %s", k.batch, k.day),
			AffectedEntries: gapped,
			Resolutions: []ConflictResolution{
				{Description: "move one lecture closer to reduce the gap", Confidence: 0.5, Effort: EffortLow},
			},
		})
	}
	return conflicts
}

func (s *ConflictService) detectConstraintViolations(entries []models.ScheduleEntry, engine *ConstraintEngine) []Conflict {
	if engine == nil {
		return nil
	}
	var conflicts []Conflict
	for _, v := range engine.ValidateSchedule(entries) {
		severity := models.SeverityMedium
		if v.IsError() {
			severity = models.SeverityHigh
		}
		conflicts = append(conflicts, Conflict{
			ID:              s.allocateID(),
			Type:            ConflictConstraintViolation,
			Severity:        severity,
			Description:     v.Message,
			AffectedEntries: v.AffectedEntries,
			Resolutions: []ConflictResolution{
				{Description: "review and adjust the violating entry", Confidence: 0.4, Effort: EffortMedium},
			},
		})
	}
	return conflicts
}

// ApplyAutomaticResolutions applies resolutions at or above threshold with
// effort=automatic, highest confidence first, threading the schedule
// through each application.
func (s *ConflictService) ApplyAutomaticResolutions(conflicts []Conflict, schedule models.WeeklySchedule, params models.SchedulingParameters, engine *ConstraintEngine, threshold float64) ResolutionOutcome {
	candidates := params.CandidateSlots()
	entries := append([]models.ScheduleEntry{}, schedule.Entries...)

	type automatable struct {
		conflict   Conflict
		resolution ConflictResolution
	}
	var queue []automatable
	for _, c := range conflicts {
		best, ok := bestAutomaticResolution(c, threshold)
		if ok {
			queue = append(queue, automatable{c, best})
		}
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].resolution.Confidence > queue[j].resolution.Confidence })

	var applied []AppliedResolution
	var unresolved []Conflict
	for _, item := range queue {
		if resolveConflict(item.conflict, &entries, candidates, engine) {
			applied = append(applied, AppliedResolution{ConflictID: item.conflict.ID, Type: item.conflict.Type, Resolution: item.resolution})
		} else {
			unresolved = append(unresolved, item.conflict)
		}
	}

	return ResolutionOutcome{
		ResolvedSchedule:    models.NewWeeklySchedule(entries, engine.ValidateSchedule(entries), timeNowUTC()),
		AppliedResolutions:  applied,
		UnresolvedConflicts: unresolved,
	}
}

func bestAutomaticResolution(c Conflict, threshold float64) (ConflictResolution, bool) {
	var best ConflictResolution
	found := false
	for _, r := range c.Resolutions {
		if r.Effort != EffortAutomatic || r.Confidence < threshold {
			continue
		}
		if !found || r.Confidence > best.Confidence {
			best, found = r, true
		}
	}
	return best, found
}

// resolveConflict moves the conflict's last affected entry, whatever the
// conflict type, to an alternative slot.
func resolveConflict(c Conflict, entries *[]models.ScheduleEntry, candidates []models.TimeSlot, engine *ConstraintEngine) bool {
	if len(c.AffectedEntries) == 0 {
		return false
	}
	target := c.AffectedEntries[len(c.AffectedEntries)-1]
	idx := -1
	for i, e := range *entries {
		if e.Equals(target) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	others := make([]models.ScheduleEntry, 0, len(*entries)-1)
	for i, e := range *entries {
		if i != idx {
			others = append(others, e)
		}
	}
	alts := engine.FindAlternativeTimeSlots(target, others, candidates)
	if len(alts) == 0 {
		return false
	}
	(*entries)[idx].Slot = alts[0]
	return true
}

func appendUnique(list []models.ScheduleEntry, items ...models.ScheduleEntry) []models.ScheduleEntry {
	for _, item := range items {
		exists := false
		for _, e := range list {
			if e.Equals(item) {
				exists = true
				break
			}
		}
		if !exists {
			list = append(list, item)
		}
	}
	return list
}

type batchDayKey struct {
	batch string
	day   models.DayOfWeek
}

type batchSubjectKey struct{ batch, subject string }

func sortedStringKeys(m map[string][]models.ScheduleEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedBatchDayKeys(m map[batchDayKey][]models.ScheduleEntry) []batchDayKey {
	keys := make([]batchDayKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].batch != keys[j].batch {
			return keys[i].batch < keys[j].batch
		}
		return keys[i].day < keys[j].day
	})
	return keys
}

func sortedBatchSubjectKeys(m map[batchSubjectKey][]models.ScheduleEntry) []batchSubjectKey {
	keys := make([]batchSubjectKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].batch != keys[j].batch {
			return keys[i].batch < keys[j].batch
		}
		return keys[i].subject < keys[j].subject
	})
	return keys
}

func sortedDays(m map[models.DayOfWeek][]models.ScheduleEntry) []models.DayOfWeek {
	keys := make([]models.DayOfWeek, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
