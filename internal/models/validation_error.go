package models

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports one or more invariant breaches keyed by field.
// Entities never partially mutate: a constructor or mutator either
// returns a fully valid entity or returns a *ValidationError and leaves
// prior state untouched.
type ValidationError struct {
	Reasons map[string][]string
}

// NewValidationError creates a ValidationError seeded with a single reason.
func NewValidationError(field, reason string) *ValidationError {
	e := &ValidationError{Reasons: make(map[string][]string)}
	e.Add(field, reason)
	return e
}

// Add appends a reason for field. Safe on a nil-map receiver created via &ValidationError{}.
func (e *ValidationError) Add(field, reason string) {
	if e.Reasons == nil {
		e.Reasons = make(map[string][]string)
	}
	e.Reasons[field] = append(e.Reasons[field], reason)
}

// HasErrors reports whether any reason has been recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Reasons) > 0
}

// Error implements the error interface with a deterministic, sorted rendering.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Reasons) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Reasons))
	for f := range e.Reasons {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var sb strings.Builder
	sb.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %s", f, strings.Join(e.Reasons[f], ", "))
	}
	return sb.String()
}

// orNil returns e as an error, or nil if it carries no reasons — lets
// constructors write `return nil, verr.orNil()` unconditionally.
func (e *ValidationError) orNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
