package models

import (
	"sort"
	"strings"
)

// Faculty holds weak (id-only) back-references to the Subjects it teaches.
// It never owns a Subject handle — breaking the Faculty<->Subject cycle the
// design notes call out. Lifecycle: created on first assignment.
type Faculty struct {
	FacultyID  string
	Name       string
	subjectIDs map[string]struct{}
}

// FacultyRecord is the wire shape for ingestion/egress.
type FacultyRecord struct {
	FacultyID  string   `json:"facultyId"`
	Name       string   `json:"name"`
	SubjectIDs []string `json:"subjectIds"`
}

// NewFaculty constructs a Faculty with an empty subject set.
func NewFaculty(facultyID, name string) (*Faculty, error) {
	if strings.TrimSpace(facultyID) == "" {
		return nil, NewValidationError("facultyId", "must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	return &Faculty{FacultyID: facultyID, Name: strings.TrimSpace(name), subjectIDs: make(map[string]struct{})}, nil
}

// FromFacultyRecord builds a Faculty from an ingested record.
func FromFacultyRecord(r FacultyRecord) (*Faculty, error) {
	f, err := NewFaculty(r.FacultyID, r.Name)
	if err != nil {
		return nil, err
	}
	for _, id := range r.SubjectIDs {
		f.AddSubject(id)
	}
	return f, nil
}

// ToRecord serialises the Faculty to its wire shape.
func (f *Faculty) ToRecord() FacultyRecord {
	return FacultyRecord{FacultyID: f.FacultyID, Name: f.Name, SubjectIDs: f.SubjectIDs()}
}

// AddSubject records that this faculty teaches subjectID.
func (f *Faculty) AddSubject(subjectID string) {
	if f.subjectIDs == nil {
		f.subjectIDs = make(map[string]struct{})
	}
	f.subjectIDs[subjectID] = struct{}{}
}

// RemoveSubject removes the back-reference, if present.
func (f *Faculty) RemoveSubject(subjectID string) {
	delete(f.subjectIDs, subjectID)
}

// Teaches reports whether the faculty is linked to subjectID.
func (f *Faculty) Teaches(subjectID string) bool {
	_, ok := f.subjectIDs[subjectID]
	return ok
}

// SubjectIDs returns a sorted snapshot of taught subject ids.
func (f *Faculty) SubjectIDs() []string {
	ids := make([]string, 0, len(f.subjectIDs))
	for id := range f.subjectIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SubjectCount returns how many distinct subjects the faculty teaches.
func (f *Faculty) SubjectCount() int {
	return len(f.subjectIDs)
}

// Clone returns a deep copy.
func (f *Faculty) Clone() *Faculty {
	clone := &Faculty{FacultyID: f.FacultyID, Name: f.Name, subjectIDs: make(map[string]struct{}, len(f.subjectIDs))}
	for id := range f.subjectIDs {
		clone.subjectIDs[id] = struct{}{}
	}
	return clone
}

// Equals reports identity equality (FacultyID).
func (f *Faculty) Equals(other *Faculty) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.FacultyID == other.FacultyID
}

// HashCode returns the identity used for hashing/indexing.
func (f *Faculty) HashCode() string {
	return f.FacultyID
}

// CompareTo orders faculties lexicographically by name.
func (f *Faculty) CompareTo(other *Faculty) int {
	return strings.Compare(f.Name, other.Name)
}

// FacultyRegistry tracks Faculty lifecycle: a Faculty is created on first
// assignment and its subject set mutates as Subjects are added/removed.
type FacultyRegistry struct {
	faculties map[string]*Faculty
}

// NewFacultyRegistry returns an empty registry.
func NewFacultyRegistry() *FacultyRegistry {
	return &FacultyRegistry{faculties: make(map[string]*Faculty)}
}

// ObserveAssignment ensures a Faculty exists for facultyID and links subjectID to it.
func (r *FacultyRegistry) ObserveAssignment(facultyID, subjectID string) *Faculty {
	f, ok := r.faculties[facultyID]
	if !ok {
		f = &Faculty{FacultyID: facultyID, Name: facultyID, subjectIDs: make(map[string]struct{})}
		r.faculties[facultyID] = f
	}
	f.AddSubject(subjectID)
	return f
}

// Get returns the Faculty for an id, if known.
func (r *FacultyRegistry) Get(facultyID string) (*Faculty, bool) {
	f, ok := r.faculties[facultyID]
	return f, ok
}

// All returns every known Faculty, sorted by FacultyID.
func (r *FacultyRegistry) All() []*Faculty {
	ids := make([]string, 0, len(r.faculties))
	for id := range r.faculties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Faculty, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.faculties[id])
	}
	return out
}
