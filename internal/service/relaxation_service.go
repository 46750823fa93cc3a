package service

import (
	"fmt"
	"sort"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// RelaxationImpact classifies how disruptive a strategy is expected to be.
type RelaxationImpact string

const (
	ImpactLow    RelaxationImpact = "low"
	ImpactMedium RelaxationImpact = "med"
	ImpactHigh   RelaxationImpact = "high"
)

var relaxationImpactScore = map[RelaxationImpact]int{
	ImpactLow: 1, ImpactMedium: 3, ImpactHigh: 5,
}

// RelaxationResult describes one strategy's effect and its tradeoff, if any.
type RelaxationResult struct {
	StrategyName string
	Applied      bool
	Description  string
	Tradeoff     string
}

// RelaxationState is the (constraints, batches, params) triple a strategy
// reads and returns a mutated copy of.
type RelaxationState struct {
	Engine  *ConstraintEngine
	Batches []*models.Batch
	Params  models.SchedulingParameters
}

// RelaxationStrategy is a named, registered way to loosen a scheduling
// scenario so that generation is more likely to succeed.
type RelaxationStrategy struct {
	Name        string
	Description string
	Impact      RelaxationImpact
	// Checks lists the analyser issue checks this strategy addresses, used
	// both by Applicable and to scope the critical-issue scoring bonus to
	// issues this strategy can actually do something about. Empty means the
	// strategy addresses the scenario as a whole (see "Enable Partial
	// Scheduling" below) rather than any specific check.
	Checks     []string
	Applicable func(analysis models.ScenarioAnalysis) bool
	Apply      func(state RelaxationState) (RelaxationState, RelaxationResult, error)
}

// RelaxationService holds the built-in strategy catalogue (spec.md §4.7).
type RelaxationService struct {
	strategies []RelaxationStrategy
}

func NewRelaxationService() *RelaxationService {
	return &RelaxationService{strategies: defaultRelaxationStrategies()}
}

// Strategies returns the registered catalogue in default ordering.
func (s *RelaxationService) Strategies() []RelaxationStrategy {
	return s.strategies
}

func hasIssue(analysis models.ScenarioAnalysis, checks ...string) bool {
	want := make(map[string]bool, len(checks))
	for _, c := range checks {
		want[c] = true
	}
	for _, issue := range analysis.Issues {
		if want[issue.Check] {
			return true
		}
	}
	return false
}

// addressesCriticalIssue reports whether analysis has a critical issue that
// strat can actually do something about. A strategy with no Checks (it
// addresses the scenario as a whole) falls back to the analysis-wide check.
func addressesCriticalIssue(analysis models.ScenarioAnalysis, strat RelaxationStrategy) bool {
	if len(strat.Checks) == 0 {
		return analysis.HasCriticalIssue()
	}
	want := make(map[string]bool, len(strat.Checks))
	for _, c := range strat.Checks {
		want[c] = true
	}
	for _, issue := range analysis.Issues {
		if want[issue.Check] && issue.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

func defaultRelaxationStrategies() []RelaxationStrategy {
	return []RelaxationStrategy{
		{
			Name:        "Reduce Lecture Frequency",
			Description: "subtract one lecture/week from every subject above 3/week",
			Impact:      ImpactHigh,
			Checks:      []string{"INSUFFICIENT_TIME_SLOTS", "FACULTY_OVERLOAD", "BATCH_DAILY_LOAD"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "INSUFFICIENT_TIME_SLOTS", "FACULTY_OVERLOAD", "BATCH_DAILY_LOAD")
			},
			Apply: applyReduceLectureFrequency,
		},
		{
			Name:        "Allow Faculty Overlap",
			Description: "drop the FacultyConflict constraint",
			Impact:      ImpactHigh,
			Checks:      []string{"FACULTY_OVERLOAD"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "FACULTY_OVERLOAD")
			},
			Apply: applyAllowFacultyOverlap,
		},
		{
			Name:        "Extend Working Hours",
			Description: "shift the working window 60 minutes earlier and later, within 08:00-20:00",
			Impact:      ImpactMedium,
			Checks:      []string{"INSUFFICIENT_TIME_SLOTS", "TIME_SLOT_UTILISATION"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "INSUFFICIENT_TIME_SLOTS", "TIME_SLOT_UTILISATION")
			},
			Apply: applyExtendWorkingHours,
		},
		{
			Name:        "Allow Batch Splitting",
			Description: "split any batch with over 20 weekly lectures into two halves by subject list",
			Impact:      ImpactHigh,
			Checks:      []string{"BATCH_DAILY_LOAD"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "BATCH_DAILY_LOAD")
			},
			Apply: applyBatchSplitting,
		},
		{
			Name:        "Standardise Durations",
			Description: "coerce every subject's lecture duration to the configured slot duration",
			Impact:      ImpactMedium,
			Checks:      []string{"DURATION_MISMATCH"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "DURATION_MISMATCH")
			},
			Apply: applyStandardiseDurations,
		},
		{
			Name:        "Enable Partial Scheduling",
			Description: "allow generation to return an incomplete schedule instead of failing",
			Impact:      ImpactLow,
			// No Checks: this strategy addresses the scenario as a whole,
			// so its critical-issue bonus stays tied to HasCriticalIssue().
			Applicable: func(a models.ScenarioAnalysis) bool {
				return a.HasCriticalIssue()
			},
			Apply: applyEnablePartialScheduling,
		},
		{
			Name:        "Reduce Break Times",
			Description: "halve the configured break duration down to a 5 minute floor",
			Impact:      ImpactLow,
			Checks:      []string{"INSUFFICIENT_TIME_SLOTS", "TIME_SLOT_UTILISATION"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "INSUFFICIENT_TIME_SLOTS", "TIME_SLOT_UTILISATION")
			},
			Apply: applyReduceBreakTimes,
		},
		{
			Name:        "Add Saturday",
			Description: "append Saturday as a working day with the existing working hours (no separate Saturday window)",
			Impact:      ImpactMedium,
			Checks:      []string{"INSUFFICIENT_TIME_SLOTS", "BATCH_DAILY_LOAD"},
			Applicable: func(a models.ScenarioAnalysis) bool {
				return hasIssue(a, "INSUFFICIENT_TIME_SLOTS", "BATCH_DAILY_LOAD")
			},
			Apply: applyAddSaturday,
		},
	}
}

func applyReduceLectureFrequency(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	batches := cloneBatches(state.Batches)
	changed := 0
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			if sub.LecturesPerWeek > 3 {
				if err := sub.UpdateLecturesPerWeek(sub.LecturesPerWeek - 1); err != nil {
					return state, RelaxationResult{}, err
				}
				changed++
			}
		}
	}
	state.Batches = batches
	return state, RelaxationResult{
		StrategyName: "Reduce Lecture Frequency",
		Applied:      changed > 0,
		Description:  fmt.Sprintf("reduced lecturesPerWeek for %d subjects", changed),
		Tradeoff:     "fewer weekly contact hours per subject",
	}, nil
}

func applyAllowFacultyOverlap(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	engine := state.Engine.Clone()
	engine.RemoveConstraint("FacultyConflict")
	state.Engine = engine
	return state, RelaxationResult{
		StrategyName: "Allow Faculty Overlap",
		Applied:      true,
		Description:  "FacultyConflict constraint removed",
		Tradeoff:     "a faculty may now be double-booked",
	}, nil
}

func applyExtendWorkingHours(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	start, err := models.ToMinutes(state.Params.WorkingHoursStart)
	if err != nil {
		return state, RelaxationResult{}, err
	}
	end, err := models.ToMinutes(state.Params.WorkingHoursEnd)
	if err != nil {
		return state, RelaxationResult{}, err
	}
	floor, _ := models.ToMinutes("08:00")
	ceiling, _ := models.ToMinutes("20:00")
	newStart := start - 60
	if newStart < floor {
		newStart = floor
	}
	newEnd := end + 60
	if newEnd > ceiling {
		newEnd = ceiling
	}
	state.Params.WorkingHoursStart = models.FromMinutes(newStart)
	state.Params.WorkingHoursEnd = models.FromMinutes(newEnd)
	if tsa, ok := findTimeSlotAvailability(state.Engine); ok {
		if err := tsa.SetWorkingHours(state.Params.WorkingHoursStart, state.Params.WorkingHoursEnd); err != nil {
			return state, RelaxationResult{}, err
		}
	}
	return state, RelaxationResult{
		StrategyName: "Extend Working Hours",
		Applied:      newStart != start || newEnd != end,
		Description:  fmt.Sprintf("working hours now %s-%s", state.Params.WorkingHoursStart, state.Params.WorkingHoursEnd),
		Tradeoff:     "lectures may land earlier or later in the day",
	}, nil
}

func applyBatchSplitting(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	batches := cloneBatches(state.Batches)
	var out []*models.Batch
	split := 0
	for _, b := range batches {
		if b.TotalWeeklyLectures() <= 20 {
			out = append(out, b)
			continue
		}
		subjects := b.Subjects()
		mid := len(subjects) / 2
		half1, err := models.NewBatch(b.BatchID+"-A", b.Name+" A")
		if err != nil {
			return state, RelaxationResult{}, err
		}
		half2, err := models.NewBatch(b.BatchID+"-B", b.Name+" B")
		if err != nil {
			return state, RelaxationResult{}, err
		}
		for i, sub := range subjects {
			clone := sub.Clone()
			if i < mid {
				clone.BatchID = half1.BatchID
				if err := half1.AddSubject(clone); err != nil {
					return state, RelaxationResult{}, err
				}
			} else {
				clone.BatchID = half2.BatchID
				if err := half2.AddSubject(clone); err != nil {
					return state, RelaxationResult{}, err
				}
			}
		}
		out = append(out, half1, half2)
		split++
	}
	state.Batches = out
	return state, RelaxationResult{
		StrategyName: "Allow Batch Splitting",
		Applied:      split > 0,
		Description:  fmt.Sprintf("split %d oversized batches", split),
		Tradeoff:     "split batches lose their original identity",
	}, nil
}

func applyStandardiseDurations(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	batches := cloneBatches(state.Batches)
	changed := 0
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			if sub.LectureDuration != state.Params.SlotDuration {
				if err := sub.UpdateLectureDuration(state.Params.SlotDuration); err != nil {
					return state, RelaxationResult{}, err
				}
				changed++
			}
		}
	}
	state.Batches = batches
	return state, RelaxationResult{
		StrategyName: "Standardise Durations",
		Applied:      changed > 0,
		Description:  fmt.Sprintf("coerced %d subject durations to %d minutes", changed, state.Params.SlotDuration),
		Tradeoff:     "some subjects gain or lose contact time per lecture",
	}, nil
}

func applyEnablePartialScheduling(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	already := state.Params.AllowPartialSchedules
	state.Params.AllowPartialSchedules = true
	return state, RelaxationResult{
		StrategyName: "Enable Partial Scheduling",
		Applied:      !already,
		Description:  "allowPartialSchedules set to true",
		Tradeoff:     "some lectures may be left unscheduled",
	}, nil
}

func applyReduceBreakTimes(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	before := state.Params.BreakDuration
	after := before / 2
	if after < 5 {
		after = 5
	}
	if after > before {
		after = before
	}
	state.Params.BreakDuration = after
	return state, RelaxationResult{
		StrategyName: "Reduce Break Times",
		Applied:      after != before,
		Description:  fmt.Sprintf("break duration now %d minutes", after),
		Tradeoff:     "less recovery time between lectures",
	}, nil
}

func applyAddSaturday(state RelaxationState) (RelaxationState, RelaxationResult, error) {
	if state.Params.WorkingDays[models.Saturday] {
		return state, RelaxationResult{StrategyName: "Add Saturday", Applied: false, Description: "Saturday already a working day"}, nil
	}
	days := make(map[models.DayOfWeek]bool, len(state.Params.WorkingDays)+1)
	for d, on := range state.Params.WorkingDays {
		days[d] = on
	}
	days[models.Saturday] = true
	state.Params.WorkingDays = days
	if tsa, ok := findTimeSlotAvailability(state.Engine); ok {
		tsa.SetWorkingDays(days)
	}
	return state, RelaxationResult{
		StrategyName: "Add Saturday",
		Applied:      true,
		Description:  "Saturday added as a working day with the existing working hours",
		Tradeoff:     "lectures may now be scheduled on a weekend",
	}, nil
}

func findTimeSlotAvailability(engine *ConstraintEngine) (*TimeSlotAvailability, bool) {
	for _, c := range engine.GetAll() {
		if tsa, ok := c.(*TimeSlotAvailability); ok {
			return tsa, true
		}
	}
	return nil, false
}

func cloneBatches(batches []*models.Batch) []*models.Batch {
	out := make([]*models.Batch, len(batches))
	for i, b := range batches {
		out[i] = b.Clone()
	}
	return out
}

// CreateRelaxationPlan filters the catalogue by applicability to analysis
// and orders it by impact score (high=5, med=3, low=1) with a +3 bonus for
// strategies that address a critical issue among the checks they cover,
// returning strategy indices.
func (s *RelaxationService) CreateRelaxationPlan(analysis models.ScenarioAnalysis) []int {
	type scored struct {
		index int
		score int
	}
	var plan []scored
	for i, strat := range s.strategies {
		if !strat.Applicable(analysis) {
			continue
		}
		score := relaxationImpactScore[strat.Impact]
		if addressesCriticalIssue(analysis, strat) {
			score += 3
		}
		plan = append(plan, scored{index: i, score: score})
	}
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].score > plan[j].score })
	out := make([]int, len(plan))
	for i, p := range plan {
		out[i] = p.index
	}
	return out
}

// ApplyRelaxationPlan executes the strategies named by plan sequentially,
// threading the mutated state through. A strategy that errors is skipped
// and recorded as a tradeoff, never fatal.
func (s *RelaxationService) ApplyRelaxationPlan(plan []int, state RelaxationState) (RelaxationState, []string, []string) {
	var tradeoffs []string
	var applied []string
	for _, idx := range plan {
		if idx < 0 || idx >= len(s.strategies) {
			continue
		}
		strat := s.strategies[idx]
		next, result, err := strat.Apply(state)
		if err != nil {
			tradeoffs = append(tradeoffs, fmt.Sprintf("%s skipped: %v", strat.Name, err))
			continue
		}
		state = next
		if result.Applied {
			applied = append(applied, strat.Name)
		}
		if result.Tradeoff != "" {
			tradeoffs = append(tradeoffs, result.Tradeoff)
		}
	}
	return state, tradeoffs, applied
}
