package models

// UnscheduledLecture records one lecture that could not be placed — either
// because generateTimetable ran out of candidate attempts with partial
// schedules allowed, or because a partial-schedule strategy stopped short
// of full coverage.
type UnscheduledLecture struct {
	BatchID           string
	SubjectID         string
	FacultyID         string
	LecturesRemaining int
	Reason            string
	Priority          int
}

// SchedulingError reports that a required lecture has no feasible slot and
// partial schedules are disabled — the one hard-failure path generation
// exposes (spec.md §7 SchedulingError).
type SchedulingError struct {
	Item    UnscheduledLecture
	Message string
}

func (e *SchedulingError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "no feasible slot for required lecture"
}
