package models

import "time"

// ScheduleMetadata summarises a WeeklySchedule for quick inspection.
type ScheduleMetadata struct {
	GeneratedAt    time.Time
	EntryCount     int
	ViolationCount int
	ErrorCount     int
	WarningCount   int
}

// WeeklySchedule is an ordered sequence of ScheduleEntry plus the
// ConstraintViolations found against it, with summary metadata.
// WeeklySchedule owns its entries.
type WeeklySchedule struct {
	Entries    []ScheduleEntry
	Violations []ConstraintViolation
	Metadata   ScheduleMetadata
}

// NewWeeklySchedule builds a WeeklySchedule and computes its metadata.
func NewWeeklySchedule(entries []ScheduleEntry, violations []ConstraintViolation, generatedAt time.Time) WeeklySchedule {
	meta := ScheduleMetadata{
		GeneratedAt:    generatedAt,
		EntryCount:     len(entries),
		ViolationCount: len(violations),
	}
	for _, v := range violations {
		if v.IsError() {
			meta.ErrorCount++
		} else {
			meta.WarningCount++
		}
	}
	return WeeklySchedule{Entries: entries, Violations: violations, Metadata: meta}
}

// EntriesForBatch returns entries belonging to batchID, in schedule order.
func (w WeeklySchedule) EntriesForBatch(batchID string) []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range w.Entries {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesForFaculty returns entries belonging to facultyID, in schedule order.
func (w WeeklySchedule) EntriesForFaculty(facultyID string) []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range w.Entries {
		if e.FacultyID == facultyID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesForSubject returns entries for a given (batchId, subjectId) pair.
func (w WeeklySchedule) EntriesForSubject(batchID, subjectID string) []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range w.Entries {
		if e.BatchID == batchID && e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out
}

// ErrorViolations returns only error-severity violations.
func (w WeeklySchedule) ErrorViolations() []ConstraintViolation {
	var out []ConstraintViolation
	for _, v := range w.Violations {
		if v.IsError() {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy of the schedule (used by the adjustment service,
// which must never mutate the caller's original).
func (w WeeklySchedule) Clone() WeeklySchedule {
	entries := make([]ScheduleEntry, len(w.Entries))
	copy(entries, w.Entries)
	violations := make([]ConstraintViolation, len(w.Violations))
	copy(violations, w.Violations)
	return WeeklySchedule{Entries: entries, Violations: violations, Metadata: w.Metadata}
}
