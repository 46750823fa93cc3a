package models

import "strings"

const (
	minBatchNameLen     = 1
	maxBatchNameLen     = 50
	typicalMaxSubjects  = 15
)

// Batch owns its Subjects: removing a Batch destroys its Subjects.
type Batch struct {
	BatchID  string
	Name     string
	subjects []*Subject
}

// BatchRecord is the wire shape for ingestion/egress.
type BatchRecord struct {
	BatchID string          `json:"batchId"`
	Name    string          `json:"name"`
	Subject []SubjectRecord `json:"subjects"`
}

func validateBatchName(name string) *ValidationError {
	verr := &ValidationError{}
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minBatchNameLen || len(trimmed) > maxBatchNameLen {
		verr.Add("name", "must be between 1 and 50 characters")
	}
	return verr
}

// NewBatch constructs and validates a Batch.
func NewBatch(batchID, name string) (*Batch, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, NewValidationError("batchId", "must not be empty")
	}
	verr := validateBatchName(name)
	if verr.HasErrors() {
		return nil, verr
	}
	return &Batch{BatchID: batchID, Name: strings.TrimSpace(name)}, nil
}

// FromBatchRecord builds a Batch (and its owned Subjects) from an ingested record.
func FromBatchRecord(r BatchRecord) (*Batch, error) {
	batch, err := NewBatch(r.BatchID, r.Name)
	if err != nil {
		return nil, err
	}
	for _, sr := range r.Subject {
		subject, err := FromSubjectRecord(sr)
		if err != nil {
			return nil, err
		}
		if err := batch.AddSubject(subject); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// ToRecord serialises the Batch and its owned Subjects.
func (b *Batch) ToRecord() BatchRecord {
	records := make([]SubjectRecord, 0, len(b.subjects))
	for _, s := range b.subjects {
		records = append(records, s.ToRecord())
	}
	return BatchRecord{BatchID: b.BatchID, Name: b.Name, Subject: records}
}

// UpdateName re-validates before mutating.
func (b *Batch) UpdateName(name string) error {
	verr := validateBatchName(name)
	if verr.HasErrors() {
		return verr
	}
	b.Name = strings.TrimSpace(name)
	return nil
}

// AddSubject appends an owned Subject. The subject's BatchID must already match.
func (b *Batch) AddSubject(subject *Subject) error {
	if subject == nil {
		return NewValidationError("subject", "must not be nil")
	}
	if subject.BatchID != b.BatchID {
		return NewValidationError("subject.batchId", "must match owning batch id")
	}
	for _, existing := range b.subjects {
		if existing.SubjectID == subject.SubjectID {
			return NewValidationError("subject.subjectId", "duplicate subject id within batch")
		}
	}
	b.subjects = append(b.subjects, subject)
	return nil
}

// RemoveSubject drops a subject by id. Batch ownership means the Subject is
// simply discarded — there is no external owner to notify.
func (b *Batch) RemoveSubject(subjectID string) bool {
	for i, s := range b.subjects {
		if s.SubjectID == subjectID {
			b.subjects = append(b.subjects[:i], b.subjects[i+1:]...)
			return true
		}
	}
	return false
}

// Subjects returns the ordered list of owned Subjects.
func (b *Batch) Subjects() []*Subject {
	return b.subjects
}

// SubjectCount reports how many subjects this batch owns. Exceeding
// typicalMaxSubjects is a validation-service warning, not a hard constraint.
func (b *Batch) SubjectCount() int {
	return len(b.subjects)
}

// ExceedsTypicalSubjectCount reports whether the batch is larger than the
// typical 15-subject expectation (spec.md §3 — "warn otherwise").
func (b *Batch) ExceedsTypicalSubjectCount() bool {
	return len(b.subjects) > typicalMaxSubjects
}

// TotalWeeklyLectures sums lecturesPerWeek across all owned subjects.
func (b *Batch) TotalWeeklyLectures() int {
	total := 0
	for _, s := range b.subjects {
		total += s.LecturesPerWeek
	}
	return total
}

// TotalWeeklyDuration sums GetTotalWeeklyDuration across all owned subjects.
func (b *Batch) TotalWeeklyDuration() int {
	total := 0
	for _, s := range b.subjects {
		total += s.GetTotalWeeklyDuration()
	}
	return total
}

// Clone returns a deep copy, including owned subjects.
func (b *Batch) Clone() *Batch {
	clone := &Batch{BatchID: b.BatchID, Name: b.Name}
	clone.subjects = make([]*Subject, len(b.subjects))
	for i, s := range b.subjects {
		clone.subjects[i] = s.Clone()
	}
	return clone
}

// Equals reports identity equality (BatchID).
func (b *Batch) Equals(other *Batch) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.BatchID == other.BatchID
}

// HashCode returns the identity used for hashing/indexing.
func (b *Batch) HashCode() string {
	return b.BatchID
}

// CompareTo orders batches lexicographically by name.
func (b *Batch) CompareTo(other *Batch) int {
	return strings.Compare(b.Name, other.Name)
}
