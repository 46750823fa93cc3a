package service

import (
	"fmt"
	"sort"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// ConstraintExecutionError wraps a panic or returned error from a constraint
// predicate. The engine never lets one constraint's failure abort a whole
// validateSchedule pass — it converts this into a synthetic violation.
type ConstraintExecutionError struct {
	ConstraintType string
	Err            error
}

func (e *ConstraintExecutionError) Error() string {
	return fmt.Sprintf("constraint %q failed: %v", e.ConstraintType, e.Err)
}

func (e *ConstraintExecutionError) Unwrap() error { return e.Err }

// Constraint is a predicate with metadata, evaluated against a candidate
// entry and the entries already committed to a schedule.
type Constraint interface {
	Type() string
	Description() string
	Priority() int
	Enabled() bool
	SetEnabled(bool)
	Validate(candidate models.ScheduleEntry, existing []models.ScheduleEntry) (*models.ConstraintViolation, error)
	Clone() Constraint
}

// FacultyConflict violates when any existing entry shares facultyId with
// the candidate and their slots overlap.
type FacultyConflict struct {
	enabled bool
}

func NewFacultyConflict() *FacultyConflict {
	return &FacultyConflict{enabled: true}
}

func (c *FacultyConflict) Type() string        { return "FacultyConflict" }
func (c *FacultyConflict) Description() string  { return "faculty cannot teach two overlapping lectures" }
func (c *FacultyConflict) Priority() int        { return 100 }
func (c *FacultyConflict) Enabled() bool        { return c.enabled }
func (c *FacultyConflict) SetEnabled(on bool)   { c.enabled = on }

func (c *FacultyConflict) Validate(candidate models.ScheduleEntry, existing []models.ScheduleEntry) (*models.ConstraintViolation, error) {
	var affected []models.ScheduleEntry
	for _, e := range existing {
		if e.FacultyID == candidate.FacultyID && models.Overlap(e.Slot, candidate.Slot) {
			affected = append(affected, e)
		}
	}
	if len(affected) == 0 {
		return nil, nil
	}
	affected = append(affected, candidate)
	return &models.ConstraintViolation{
		Type:            c.Type(),
		Message:         fmt.Sprintf("faculty %s has overlapping lectures", candidate.FacultyID),
		AffectedEntries: affected,
		Severity:        models.SeverityError,
	}, nil
}

func (c *FacultyConflict) Clone() Constraint {
	return &FacultyConflict{enabled: c.enabled}
}

// TimeSlotAvailability violates when a candidate's slot falls outside the
// configured working days/hours, is explicitly excluded, is marked
// unavailable, or falls on a holiday's day-of-week.
type TimeSlotAvailability struct {
	enabled           bool
	workingDays       map[models.DayOfWeek]bool
	workingHoursStart string
	workingHoursEnd   string
	excludedSlots     []models.TimeSlot
	holidays          []models.CalendarDate
}

func NewTimeSlotAvailability(params models.SchedulingParameters) *TimeSlotAvailability {
	days := make(map[models.DayOfWeek]bool, len(params.WorkingDays))
	for d, on := range params.WorkingDays {
		days[d] = on
	}
	holidays := make([]models.CalendarDate, len(params.Holidays))
	copy(holidays, params.Holidays)
	return &TimeSlotAvailability{
		enabled:           true,
		workingDays:       days,
		workingHoursStart: params.WorkingHoursStart,
		workingHoursEnd:   params.WorkingHoursEnd,
		holidays:          holidays,
	}
}

func (c *TimeSlotAvailability) Type() string       { return "TimeSlotAvailability" }
func (c *TimeSlotAvailability) Description() string { return "slot must fall within configured working time and not on a holiday" }
func (c *TimeSlotAvailability) Priority() int       { return 90 }
func (c *TimeSlotAvailability) Enabled() bool       { return c.enabled }
func (c *TimeSlotAvailability) SetEnabled(on bool)  { c.enabled = on }

func (c *TimeSlotAvailability) SetWorkingDays(days map[models.DayOfWeek]bool) {
	c.workingDays = days
}

func (c *TimeSlotAvailability) SetWorkingHours(start, end string) error {
	s, err := models.ToMinutes(start)
	if err != nil {
		return err
	}
	e, err := models.ToMinutes(end)
	if err != nil {
		return err
	}
	if s >= e {
		return fmt.Errorf("workingHoursStart must be strictly before workingHoursEnd")
	}
	c.workingHoursStart, c.workingHoursEnd = start, end
	return nil
}

func (c *TimeSlotAvailability) SetHolidays(holidays []models.CalendarDate) {
	c.holidays = holidays
}

func (c *TimeSlotAvailability) AddExcludedSlot(slot models.TimeSlot) {
	c.excludedSlots = append(c.excludedSlots, slot)
}

func (c *TimeSlotAvailability) holidayDays() map[models.DayOfWeek]bool {
	days := make(map[models.DayOfWeek]bool, len(c.holidays))
	for _, h := range c.holidays {
		days[h.DayOfWeek()] = true
	}
	return days
}

func (c *TimeSlotAvailability) Validate(candidate models.ScheduleEntry, _ []models.ScheduleEntry) (*models.ConstraintViolation, error) {
	slot := candidate.Slot
	reason := ""
	switch {
	case !slot.IsAvailable:
		reason = "slot is marked unavailable"
	case !c.workingDays[slot.Day]:
		reason = fmt.Sprintf("%s is not a configured working day", slot.Day)
	case c.holidayDays()[slot.Day]:
		reason = fmt.Sprintf("%s falls on a holiday", slot.Day)
	default:
		if c.workingHoursStart != "" && c.workingHoursEnd != "" {
			start, errS := models.ToMinutes(c.workingHoursStart)
			end, errE := models.ToMinutes(c.workingHoursEnd)
			if errS == nil && errE == nil && !slot.Within(start, end) {
				reason = "slot falls outside working hours"
			}
		}
		if reason == "" {
			for _, excluded := range c.excludedSlots {
				if slot.SameWindow(excluded) {
					reason = "slot is explicitly excluded"
					break
				}
			}
		}
	}
	if reason == "" {
		return nil, nil
	}
	return &models.ConstraintViolation{
		Type:            c.Type(),
		Message:         reason,
		AffectedEntries: []models.ScheduleEntry{candidate},
		Severity:        models.SeverityError,
	}, nil
}

func (c *TimeSlotAvailability) Clone() Constraint {
	days := make(map[models.DayOfWeek]bool, len(c.workingDays))
	for d, on := range c.workingDays {
		days[d] = on
	}
	excluded := make([]models.TimeSlot, len(c.excludedSlots))
	copy(excluded, c.excludedSlots)
	holidays := make([]models.CalendarDate, len(c.holidays))
	copy(holidays, c.holidays)
	return &TimeSlotAvailability{
		enabled:           c.enabled,
		workingDays:       days,
		workingHoursStart: c.workingHoursStart,
		workingHoursEnd:   c.workingHoursEnd,
		excludedSlots:     excluded,
		holidays:          holidays,
	}
}

// ViolationReport aggregates a ValidateSchedule pass by type and severity.
// It holds no per-entry counts.
type ViolationReport struct {
	TotalViolations int
	ByType          map[string]int
	BySeverity      map[models.Severity]int
}

// ConstraintEngine holds an ordered set of Constraint instances keyed by
// type and evaluates candidates/schedules against them.
type ConstraintEngine struct {
	byType map[string]Constraint
	order  []string
}

// NewConstraintEngine returns an engine pre-registered with the two
// built-in constraints.
func NewConstraintEngine(params models.SchedulingParameters) *ConstraintEngine {
	e := &ConstraintEngine{byType: make(map[string]Constraint)}
	e.resetToDefaults(params)
	return e
}

func (e *ConstraintEngine) resetToDefaults(params models.SchedulingParameters) {
	e.byType = make(map[string]Constraint)
	e.order = nil
	e.AddConstraint(NewFacultyConflict())
	e.AddConstraint(NewTimeSlotAvailability(params))
}

// ResetToDefaults restores the two built-in constraints, discarding any
// custom registrations.
func (e *ConstraintEngine) ResetToDefaults(params models.SchedulingParameters) {
	e.resetToDefaults(params)
}

// EngineConfiguration is a serialisable snapshot of an engine's registered
// constraint set and their relative order.
type EngineConfiguration struct {
	Order       []string
	Constraints map[string]Constraint
}

// GetConfiguration snapshots the engine's current constraint set. The
// snapshot is independent of the engine: mutating one does not affect
// the other.
func (e *ConstraintEngine) GetConfiguration() EngineConfiguration {
	cfg := EngineConfiguration{
		Order:       append([]string(nil), e.order...),
		Constraints: make(map[string]Constraint, len(e.byType)),
	}
	for t, c := range e.byType {
		cfg.Constraints[t] = c.Clone()
	}
	return cfg
}

// LoadConfiguration replaces the engine's constraint set with the given
// snapshot, discarding whatever was previously registered.
func (e *ConstraintEngine) LoadConfiguration(cfg EngineConfiguration) {
	e.byType = make(map[string]Constraint, len(cfg.Constraints))
	e.order = append([]string(nil), cfg.Order...)
	for t, c := range cfg.Constraints {
		e.byType[t] = c.Clone()
	}
}

// AddConstraint registers (or replaces) a constraint by its Type().
func (e *ConstraintEngine) AddConstraint(c Constraint) {
	if _, exists := e.byType[c.Type()]; !exists {
		e.order = append(e.order, c.Type())
	}
	e.byType[c.Type()] = c
}

// RemoveConstraint unregisters a constraint by type.
func (e *ConstraintEngine) RemoveConstraint(constraintType string) {
	if _, exists := e.byType[constraintType]; !exists {
		return
	}
	delete(e.byType, constraintType)
	for i, t := range e.order {
		if t == constraintType {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Enable turns a registered constraint on.
func (e *ConstraintEngine) Enable(constraintType string) error {
	c, ok := e.byType[constraintType]
	if !ok {
		return fmt.Errorf("unknown constraint %q", constraintType)
	}
	c.SetEnabled(true)
	return nil
}

// Disable turns a registered constraint off.
func (e *ConstraintEngine) Disable(constraintType string) error {
	c, ok := e.byType[constraintType]
	if !ok {
		return fmt.Errorf("unknown constraint %q", constraintType)
	}
	c.SetEnabled(false)
	return nil
}

// GetAll returns every registered constraint, insertion order.
func (e *ConstraintEngine) GetAll() []Constraint {
	out := make([]Constraint, 0, len(e.order))
	for _, t := range e.order {
		out = append(out, e.byType[t])
	}
	return out
}

// GetEnabledSorted returns enabled constraints ordered by priority, descending.
func (e *ConstraintEngine) GetEnabledSorted() []Constraint {
	var out []Constraint
	for _, t := range e.order {
		c := e.byType[t]
		if c.Enabled() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() > out[j].Priority() })
	return out
}

// ValidateEntry runs every enabled constraint for a single candidate entry
// against the existing entries, returning every violation raised.
func (e *ConstraintEngine) ValidateEntry(candidate models.ScheduleEntry, existing []models.ScheduleEntry) []models.ConstraintViolation {
	var violations []models.ConstraintViolation
	for _, c := range e.GetEnabledSorted() {
		v, err := e.safeValidate(c, candidate, existing)
		if err != nil {
			violations = append(violations, constraintErrorViolation(c.Type(), candidate, err))
			continue
		}
		if v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

// FindViolationsForEntry returns only the error-severity violations for a
// candidate — the set that blocks committing it during generation.
func (e *ConstraintEngine) FindViolationsForEntry(candidate models.ScheduleEntry, existing []models.ScheduleEntry) []models.ConstraintViolation {
	var errs []models.ConstraintViolation
	for _, v := range e.ValidateEntry(candidate, existing) {
		if v.IsError() {
			errs = append(errs, v)
		}
	}
	return errs
}

// ValidateSchedule runs every enabled constraint for every entry against
// every other entry in the schedule and concatenates violations.
func (e *ConstraintEngine) ValidateSchedule(entries []models.ScheduleEntry) []models.ConstraintViolation {
	var violations []models.ConstraintViolation
	for i, entry := range entries {
		others := make([]models.ScheduleEntry, 0, len(entries)-1)
		for j, other := range entries {
			if i != j {
				others = append(others, other)
			}
		}
		violations = append(violations, e.ValidateEntry(entry, others)...)
	}
	return violations
}

// FindAlternativeTimeSlots returns the candidate slots under which entry
// (reassigned to each slot) survives every enabled constraint.
func (e *ConstraintEngine) FindAlternativeTimeSlots(entry models.ScheduleEntry, existing []models.ScheduleEntry, candidates []models.TimeSlot) []models.TimeSlot {
	var out []models.TimeSlot
	for _, slot := range candidates {
		trial := entry
		trial.Slot = slot
		if len(e.FindViolationsForEntry(trial, existing)) == 0 {
			out = append(out, slot)
		}
	}
	return out
}

// GetViolationReport aggregates ValidateSchedule's output by type and severity.
func (e *ConstraintEngine) GetViolationReport(entries []models.ScheduleEntry) ViolationReport {
	violations := e.ValidateSchedule(entries)
	report := ViolationReport{
		TotalViolations: len(violations),
		ByType:          make(map[string]int),
		BySeverity:      make(map[models.Severity]int),
	}
	for _, v := range violations {
		report.ByType[v.Type]++
		report.BySeverity[v.Severity]++
	}
	return report
}

// Clone produces an independent engine with deep-cloned constraints.
func (e *ConstraintEngine) Clone() *ConstraintEngine {
	clone := &ConstraintEngine{byType: make(map[string]Constraint, len(e.byType))}
	clone.order = append(clone.order, e.order...)
	for t, c := range e.byType {
		clone.byType[t] = c.Clone()
	}
	return clone
}

func (e *ConstraintEngine) safeValidate(c Constraint, candidate models.ScheduleEntry, existing []models.ScheduleEntry) (v *models.ConstraintViolation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Validate(candidate, existing)
}

func constraintErrorViolation(constraintType string, candidate models.ScheduleEntry, err error) models.ConstraintViolation {
	return models.ConstraintViolation{
		Type:            "constraint-error",
		Message:         (&ConstraintExecutionError{ConstraintType: constraintType, Err: err}).Error(),
		AffectedEntries: []models.ScheduleEntry{candidate},
		Severity:        models.SeverityError,
	}
}
