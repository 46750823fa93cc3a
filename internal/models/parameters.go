package models

import "sort"

// SchedulingParameters governs the shape of the weekly scheduling problem:
// which days/hours are in play, slot granularity, holidays, and the soft
// load limits the generator aims to respect.
type SchedulingParameters struct {
	WorkingDays            map[DayOfWeek]bool
	WorkingHoursStart      string
	WorkingHoursEnd        string
	SlotDuration           int
	BreakDuration          int
	Holidays               []CalendarDate
	MaxLecturesPerDay      int
	MaxConsecutiveLectures int
	AllowOverlaps          bool
	AllowPartialSchedules  bool
	MaxAttemptsPerLecture  int
	Seed                   int64
}

// DefaultSchedulingParameters returns a Mon-Fri, 08:00-18:00, 60-minute-slot
// configuration with no holidays — a reasonable starting point for callers
// that don't override every field.
func DefaultSchedulingParameters() SchedulingParameters {
	return SchedulingParameters{
		WorkingDays: map[DayOfWeek]bool{
			Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
		},
		WorkingHoursStart:     "08:00",
		WorkingHoursEnd:       "18:00",
		SlotDuration:          60,
		BreakDuration:         0,
		MaxLecturesPerDay:     8,
		MaxConsecutiveLectures: 4,
		AllowPartialSchedules: true,
		MaxAttemptsPerLecture: 20,
		Seed:                  1,
	}
}

// Validate checks structural invariants of the parameter set.
func (p SchedulingParameters) Validate() error {
	verr := &ValidationError{}
	if len(p.WorkingDays) == 0 {
		verr.Add("workingDays", "must contain at least one day")
	}
	start, startErr := ToMinutes(p.WorkingHoursStart)
	if startErr != nil {
		verr.Add("workingHoursStart", startErr.Error())
	}
	end, endErr := ToMinutes(p.WorkingHoursEnd)
	if endErr != nil {
		verr.Add("workingHoursEnd", endErr.Error())
	}
	if startErr == nil && endErr == nil && start >= end {
		verr.Add("workingHoursStart", "must be strictly before workingHoursEnd")
	}
	if p.SlotDuration <= 0 {
		verr.Add("slotDuration", "must be positive")
	}
	if p.BreakDuration < 0 {
		verr.Add("breakDuration", "must not be negative")
	}
	if p.MaxAttemptsPerLecture <= 0 {
		verr.Add("maxAttemptsPerLecture", "must be positive")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// HolidayDaysOfWeek returns the set of relative day-of-week indices any
// configured holiday falls on.
func (p SchedulingParameters) HolidayDaysOfWeek() map[DayOfWeek]bool {
	days := make(map[DayOfWeek]bool)
	for _, h := range p.Holidays {
		days[h.DayOfWeek()] = true
	}
	return days
}

// SortedWorkingDays returns the configured working days in day-of-week order.
func (p SchedulingParameters) SortedWorkingDays() []DayOfWeek {
	days := make([]DayOfWeek, 0, len(p.WorkingDays))
	for d, on := range p.WorkingDays {
		if on {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// CandidateSlots computes the candidate (day, start, end) tuples implied by
// this parameter set: for each working day, from workingHours.start in
// slotDuration+breakDuration strides until end; slots whose day-of-week
// matches a holiday are excluded (spec.md §4.5 step 1).
func (p SchedulingParameters) CandidateSlots() []TimeSlot {
	start, err := ToMinutes(p.WorkingHoursStart)
	if err != nil {
		return nil
	}
	end, err := ToMinutes(p.WorkingHoursEnd)
	if err != nil {
		return nil
	}
	stride := p.SlotDuration + p.BreakDuration
	if stride <= 0 {
		return nil
	}
	holidayDays := p.HolidayDaysOfWeek()

	var slots []TimeSlot
	for _, day := range p.SortedWorkingDays() {
		if holidayDays[day] {
			continue
		}
		for t := start; t+p.SlotDuration <= end; t += stride {
			slots = append(slots, TimeSlot{
				Day:         day,
				StartTime:   FromMinutes(t),
				EndTime:     FromMinutes(t + p.SlotDuration),
				IsAvailable: true,
			})
		}
	}
	return slots
}
