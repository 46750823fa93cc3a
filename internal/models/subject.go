package models

import "strings"

const (
	minSubjectNameLen      = 1
	maxSubjectNameLen      = 100
	minLecturesPerWeek     = 1
	maxLecturesPerWeek     = 20
	minLectureDurationMins = 30
	maxLectureDurationMins = 180
)

// Subject is owned exclusively by its Batch. Identity is SubjectID.
type Subject struct {
	SubjectID       string
	Name            string
	BatchID         string
	LecturesPerWeek int
	LectureDuration int // minutes
	FacultyID       string
}

// SubjectRecord is the wire shape accepted by FromSubjectRecord / produced by ToRecord.
type SubjectRecord struct {
	SubjectID       string `json:"subjectId"`
	Name            string `json:"name"`
	BatchID         string `json:"batchId"`
	LecturesPerWeek int    `json:"lecturesPerWeek"`
	LectureDuration int    `json:"lectureDuration"`
	FacultyID       string `json:"facultyId"`
}

func validateSubjectFields(name, batchID string, lecturesPerWeek, lectureDuration int, facultyID string) *ValidationError {
	verr := &ValidationError{}
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minSubjectNameLen || len(trimmed) > maxSubjectNameLen {
		verr.Add("name", "must be between 1 and 100 characters")
	}
	if strings.TrimSpace(batchID) == "" {
		verr.Add("batchId", "must not be empty")
	}
	if lecturesPerWeek < minLecturesPerWeek || lecturesPerWeek > maxLecturesPerWeek {
		verr.Add("lecturesPerWeek", "must be between 1 and 20")
	}
	if lectureDuration < minLectureDurationMins || lectureDuration > maxLectureDurationMins {
		verr.Add("lectureDuration", "must be between 30 and 180 minutes")
	}
	if strings.TrimSpace(facultyID) == "" {
		verr.Add("facultyId", "must not be empty")
	}
	return verr
}

// NewSubject constructs and validates a Subject. Construction fails atomically.
func NewSubject(subjectID, name, batchID string, lecturesPerWeek, lectureDuration int, facultyID string) (*Subject, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, NewValidationError("subjectId", "must not be empty")
	}
	verr := validateSubjectFields(name, batchID, lecturesPerWeek, lectureDuration, facultyID)
	if verr.HasErrors() {
		return nil, verr
	}
	return &Subject{
		SubjectID:       subjectID,
		Name:            strings.TrimSpace(name),
		BatchID:         batchID,
		LecturesPerWeek: lecturesPerWeek,
		LectureDuration: lectureDuration,
		FacultyID:       facultyID,
	}, nil
}

// FromSubjectRecord builds a Subject from an ingested record, validating invariants.
func FromSubjectRecord(r SubjectRecord) (*Subject, error) {
	return NewSubject(r.SubjectID, r.Name, r.BatchID, r.LecturesPerWeek, r.LectureDuration, r.FacultyID)
}

// ToRecord serialises the Subject to its wire shape.
func (s *Subject) ToRecord() SubjectRecord {
	return SubjectRecord{
		SubjectID:       s.SubjectID,
		Name:            s.Name,
		BatchID:         s.BatchID,
		LecturesPerWeek: s.LecturesPerWeek,
		LectureDuration: s.LectureDuration,
		FacultyID:       s.FacultyID,
	}
}

// GetTotalWeeklyDuration returns lecturesPerWeek * lectureDuration.
func (s *Subject) GetTotalWeeklyDuration() int {
	return s.LecturesPerWeek * s.LectureDuration
}

// UpdateName re-validates before mutating; never partially mutates.
func (s *Subject) UpdateName(name string) error {
	verr := validateSubjectFields(name, s.BatchID, s.LecturesPerWeek, s.LectureDuration, s.FacultyID)
	if verr.HasErrors() {
		return verr
	}
	s.Name = strings.TrimSpace(name)
	return nil
}

// UpdateLecturesPerWeek re-validates before mutating.
func (s *Subject) UpdateLecturesPerWeek(lecturesPerWeek int) error {
	verr := validateSubjectFields(s.Name, s.BatchID, lecturesPerWeek, s.LectureDuration, s.FacultyID)
	if verr.HasErrors() {
		return verr
	}
	s.LecturesPerWeek = lecturesPerWeek
	return nil
}

// UpdateLectureDuration re-validates before mutating.
func (s *Subject) UpdateLectureDuration(lectureDuration int) error {
	verr := validateSubjectFields(s.Name, s.BatchID, s.LecturesPerWeek, lectureDuration, s.FacultyID)
	if verr.HasErrors() {
		return verr
	}
	s.LectureDuration = lectureDuration
	return nil
}

// UpdateFaculty re-validates before mutating.
func (s *Subject) UpdateFaculty(facultyID string) error {
	verr := validateSubjectFields(s.Name, s.BatchID, s.LecturesPerWeek, s.LectureDuration, facultyID)
	if verr.HasErrors() {
		return verr
	}
	s.FacultyID = facultyID
	return nil
}

// Clone returns a deep copy.
func (s *Subject) Clone() *Subject {
	clone := *s
	return &clone
}

// Equals reports identity equality (SubjectID).
func (s *Subject) Equals(other *Subject) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.SubjectID == other.SubjectID
}

// HashCode returns the identity used for hashing/indexing.
func (s *Subject) HashCode() string {
	return s.SubjectID
}

// CompareTo orders subjects lexicographically by name.
func (s *Subject) CompareTo(other *Subject) int {
	return strings.Compare(s.Name, other.Name)
}
