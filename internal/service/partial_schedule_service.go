package service

import (
	"math/rand"
	"sort"
	"time"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// PrioritizationStrategy picks the SubjectPriority formula used to rank
// lectures when demand exceeds what can be scheduled in full.
type PrioritizationStrategy string

const (
	StrategyCoreSubjects        PrioritizationStrategy = "core-subjects"
	StrategyHighFrequency       PrioritizationStrategy = "high-frequency"
	StrategyFacultyAvailability PrioritizationStrategy = "faculty-availability"
	StrategyBatchImportance     PrioritizationStrategy = "batch-importance"
)

// PartialScheduleOptions controls generatePartialSchedule (spec.md §4.8).
type PartialScheduleOptions struct {
	PrioritizationStrategy    PrioritizationStrategy
	MaxAttempts               int
	AllowConstraintRelaxation bool
	TargetCoverage            float64
	PreserveBalance           bool
	GenerateAlternatives      bool
}

// PartialScheduleResult is the partial generator's exclusively-surfaced output.
type PartialScheduleResult struct {
	Schedule             models.WeeklySchedule
	Unscheduled          []models.UnscheduledLecture
	CoveragePercent      float64
	BatchCoverage        map[string]float64
	SubjectCoverage      map[string]float64
	StrategyUsed         string
	RelaxationTradeoffs  []string
	RelaxationsApplied   []string
	Alternatives         map[string][]models.TimeSlot
}

type partialWorkItem struct {
	BatchID   string
	SubjectID string
	FacultyID string
	Priority  int
}

// PartialScheduleService implements C8: it never fails outright, instead
// returning the best coverage it can find plus what it could not place.
type PartialScheduleService struct {
	feasibility *FeasibilityService
	relaxation  *RelaxationService
}

func NewPartialScheduleService(feasibility *FeasibilityService, relaxation *RelaxationService) *PartialScheduleService {
	return &PartialScheduleService{feasibility: feasibility, relaxation: relaxation}
}

func (s *PartialScheduleService) GeneratePartialSchedule(batches []*models.Batch, engine *ConstraintEngine, params models.SchedulingParameters, options PartialScheduleOptions) PartialScheduleResult {
	analysis := s.feasibility.AnalyzeScenario(batches, engine, params)
	result := PartialScheduleResult{}

	if options.AllowConstraintRelaxation {
		plan := s.relaxation.CreateRelaxationPlan(analysis)
		state, tradeoffs, applied := s.relaxation.ApplyRelaxationPlan(plan, RelaxationState{Engine: engine, Batches: batches, Params: params})
		engine, batches, params = state.Engine, state.Batches, state.Params
		result.RelaxationTradeoffs = tradeoffs
		result.RelaxationsApplied = applied
	}

	criticalAffected := affectedByCriticalIssues(analysis)
	items := buildPriorityItems(batches, options.PrioritizationStrategy, criticalAffected)
	candidates := params.CandidateSlots()

	target := options.TargetCoverage
	if target <= 0 {
		target = 100
	}
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = len(items)
	}

	type namedStrategy struct {
		name string
		run  func([]partialWorkItem, []models.TimeSlot, *ConstraintEngine, int) []models.ScheduleEntry
	}
	strategies := []namedStrategy{
		{"greedy-priority", runGreedyPriority},
		{"batch-by-batch", runBatchByBatch},
		{"time-slot-filling", runTimeSlotFilling},
		{"constraint-guided", runConstraintGuided},
	}

	var entries []models.ScheduleEntry
	var coverage float64
	total := len(items)

	for _, strat := range strategies {
		candidateEntries := strat.run(items, candidates, engine, maxAttempts)
		c := coveragePercent(len(candidateEntries), total)
		if c >= target {
			entries, coverage, result.StrategyUsed = candidateEntries, c, strat.name
			break
		}
		if len(candidateEntries) > len(entries) {
			entries, coverage, result.StrategyUsed = candidateEntries, c, strat.name
		}
	}

	if coverage < target && total > 0 {
		fallback := generateMinimalFallback(batches, candidates, engine)
		if len(fallback) > len(entries) {
			entries = fallback
			coverage = coveragePercent(len(entries), total)
			result.StrategyUsed = "minimal-fallback"
		}
	}

	if options.PreserveBalance {
		gen := NewScheduleGeneratorService(nil)
		entries = gen.optimizeDistribution(entries, engine, rand.New(rand.NewSource(params.Seed)))
	}

	facultyLoad := computeFacultyLoad(batches)
	batchLoad := make(map[string]int, len(batches))
	for _, b := range batches {
		batchLoad[b.BatchID] = b.TotalWeeklyLectures()
	}

	result.Unscheduled = computeUnscheduled(items, entries, facultyLoad, batchLoad)
	result.CoveragePercent = coveragePercent(len(entries), total)
	result.BatchCoverage = coverageByField(items, entries, func(i partialWorkItem) string { return i.BatchID }, func(e models.ScheduleEntry) string { return e.BatchID })
	result.SubjectCoverage = coverageByField(items, entries, func(i partialWorkItem) string { return i.SubjectID }, func(e models.ScheduleEntry) string { return e.SubjectID })

	if options.GenerateAlternatives {
		result.Alternatives = make(map[string][]models.TimeSlot)
		for _, u := range result.Unscheduled {
			stub := models.ScheduleEntry{BatchID: u.BatchID, SubjectID: u.SubjectID, FacultyID: u.FacultyID}
			alts := engine.FindAlternativeTimeSlots(stub, entries, candidates)
			if len(alts) > 3 {
				alts = alts[:3]
			}
			result.Alternatives[u.BatchID+"|"+u.SubjectID] = alts
		}
	}

	result.Schedule = models.NewWeeklySchedule(entries, engine.ValidateSchedule(entries), timeNowUTC())
	return result
}

func timeNowUTC() time.Time { return time.Now().UTC() }

func coveragePercent(scheduled, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * float64(scheduled) / float64(total)
}

func affectedByCriticalIssues(analysis models.ScenarioAnalysis) map[string]bool {
	affected := make(map[string]bool)
	for _, issue := range analysis.Issues {
		if issue.Severity != models.SeverityCritical {
			continue
		}
		for _, id := range issue.AffectedIDs {
			affected[id] = true
		}
	}
	return affected
}

func computeFacultyLoad(batches []*models.Batch) map[string]int {
	load := make(map[string]int)
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			load[sub.FacultyID] += sub.LecturesPerWeek
		}
	}
	return load
}

func priorityFor(strategy PrioritizationStrategy, sub *models.Subject, facultyLoad map[string]int, batchTotal int, criticalAffected map[string]bool) int {
	l := sub.LecturesPerWeek
	var base int
	switch strategy {
	case StrategyHighFrequency:
		base = 15 * l
	case StrategyFacultyAvailability:
		base = 100 - facultyLoad[sub.FacultyID]
	case StrategyBatchImportance:
		base = 200 - batchTotal
	case StrategyCoreSubjects:
		base = 10 * l
	default:
		base = 10 * l
	}
	if base < 0 {
		base = 0
	}
	if !criticalAffected[sub.SubjectID] {
		base += 20
	}
	return base
}

func buildPriorityItems(batches []*models.Batch, strategy PrioritizationStrategy, criticalAffected map[string]bool) []partialWorkItem {
	facultyLoad := computeFacultyLoad(batches)
	var items []partialWorkItem
	for _, b := range batches {
		batchTotal := b.TotalWeeklyLectures()
		for _, sub := range b.Subjects() {
			priority := priorityFor(strategy, sub, facultyLoad, batchTotal, criticalAffected)
			for i := 0; i < sub.LecturesPerWeek; i++ {
				items = append(items, partialWorkItem{BatchID: b.BatchID, SubjectID: sub.SubjectID, FacultyID: sub.FacultyID, Priority: priority})
			}
		}
	}
	return items
}

// placeDeterministic tries candidates in the order given (already
// day/start-ascending from CandidateSlots) and commits the first viable one.
func placeDeterministic(item partialWorkItem, existing []models.ScheduleEntry, candidates []models.TimeSlot, engine *ConstraintEngine) (models.ScheduleEntry, bool) {
	for _, slot := range candidates {
		trial := models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: slot}
		if len(engine.FindViolationsForEntry(trial, existing)) == 0 {
			return trial, true
		}
	}
	return models.ScheduleEntry{}, false
}

func sortedByPriorityDesc(items []partialWorkItem) []partialWorkItem {
	out := make([]partialWorkItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].BatchID != out[j].BatchID {
			return out[i].BatchID < out[j].BatchID
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}

func runGreedyPriority(items []partialWorkItem, candidates []models.TimeSlot, engine *ConstraintEngine, maxAttempts int) []models.ScheduleEntry {
	ordered := sortedByPriorityDesc(items)
	var entries []models.ScheduleEntry
	attempts := 0
	for _, item := range ordered {
		if attempts >= maxAttempts {
			break
		}
		attempts++
		if entry, ok := placeDeterministic(item, entries, candidates, engine); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func runBatchByBatch(items []partialWorkItem, candidates []models.TimeSlot, engine *ConstraintEngine, maxAttempts int) []models.ScheduleEntry {
	ordered := make([]partialWorkItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BatchID != ordered[j].BatchID {
			return ordered[i].BatchID < ordered[j].BatchID
		}
		return ordered[i].Priority > ordered[j].Priority
	})
	var entries []models.ScheduleEntry
	attempts := 0
	for _, item := range ordered {
		if attempts >= maxAttempts {
			break
		}
		attempts++
		if entry, ok := placeDeterministic(item, entries, candidates, engine); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func runTimeSlotFilling(items []partialWorkItem, candidates []models.TimeSlot, engine *ConstraintEngine, maxAttempts int) []models.ScheduleEntry {
	remaining := sortedByPriorityDesc(items)
	var entries []models.ScheduleEntry
	attempts := 0
	for _, slot := range candidates {
		if attempts >= maxAttempts {
			break
		}
		for idx, item := range remaining {
			if item.BatchID == "" {
				continue
			}
			trial := models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: slot}
			if len(engine.FindViolationsForEntry(trial, entries)) == 0 {
				entries = append(entries, trial)
				remaining[idx].BatchID = ""
				attempts++
				break
			}
		}
	}
	return entries
}

func runConstraintGuided(items []partialWorkItem, candidates []models.TimeSlot, engine *ConstraintEngine, maxAttempts int) []models.ScheduleEntry {
	remaining := make([]partialWorkItem, len(items))
	copy(remaining, items)
	var entries []models.ScheduleEntry
	attempts := 0
	for attempts < maxAttempts && len(remaining) > 0 {
		bestIdx, bestCount := -1, -1
		var bestSlot models.TimeSlot
		for i, item := range remaining {
			count := 0
			found := false
			var firstSlot models.TimeSlot
			for _, slot := range candidates {
				trial := models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: slot}
				if len(engine.FindViolationsForEntry(trial, entries)) == 0 {
					count++
					if !found {
						firstSlot, found = slot, true
					}
				}
			}
			if count == 0 {
				continue
			}
			if bestIdx == -1 || count < bestCount {
				bestIdx, bestCount, bestSlot = i, count, firstSlot
			}
		}
		if bestIdx == -1 {
			break
		}
		item := remaining[bestIdx]
		entries = append(entries, models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: bestSlot})
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		attempts++
	}
	return entries
}

func generateMinimalFallback(batches []*models.Batch, candidates []models.TimeSlot, engine *ConstraintEngine) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	bCount := 0
	for _, b := range batches {
		if bCount >= 3 {
			break
		}
		sCount := 0
		for _, sub := range b.Subjects() {
			if sCount >= 3 {
				break
			}
			item := partialWorkItem{BatchID: b.BatchID, SubjectID: sub.SubjectID, FacultyID: sub.FacultyID}
			if entry, ok := placeDeterministic(item, entries, candidates, engine); ok {
				entries = append(entries, entry)
			}
			sCount++
		}
		bCount++
	}
	return entries
}

type demandKey struct{ batch, subject, faculty string }

func computeUnscheduled(items []partialWorkItem, entries []models.ScheduleEntry, facultyLoad, batchLoad map[string]int) []models.UnscheduledLecture {
	required := make(map[demandKey]int)
	var order []demandKey
	for _, item := range items {
		k := demandKey{item.BatchID, item.SubjectID, item.FacultyID}
		if _, ok := required[k]; !ok {
			order = append(order, k)
		}
		required[k]++
	}
	placed := make(map[demandKey]int)
	for _, e := range entries {
		placed[demandKey{e.BatchID, e.SubjectID, e.FacultyID}]++
	}
	var out []models.UnscheduledLecture
	for _, k := range order {
		remaining := required[k] - placed[k]
		if remaining <= 0 {
			continue
		}
		reason := "No suitable time slots"
		switch {
		case facultyLoad[k.faculty] > 20:
			reason = "Faculty overloaded"
		case batchLoad[k.batch] > 25:
			reason = "Batch schedule full"
		}
		out = append(out, models.UnscheduledLecture{
			BatchID: k.batch, SubjectID: k.subject, FacultyID: k.faculty,
			LecturesRemaining: remaining, Reason: reason,
		})
	}
	return out
}

func coverageByField(items []partialWorkItem, entries []models.ScheduleEntry, itemKey func(partialWorkItem) string, entryKey func(models.ScheduleEntry) string) map[string]float64 {
	required := make(map[string]int)
	var order []string
	for _, item := range items {
		k := itemKey(item)
		if _, ok := required[k]; !ok {
			order = append(order, k)
		}
		required[k]++
	}
	scheduled := make(map[string]int)
	for _, e := range entries {
		scheduled[entryKey(e)]++
	}
	out := make(map[string]float64, len(order))
	for _, k := range order {
		out[k] = coveragePercent(scheduled[k], required[k])
	}
	return out
}
