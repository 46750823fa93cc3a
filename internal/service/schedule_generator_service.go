package service

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

type workItem struct {
	BatchID     string
	SubjectID   string
	FacultyID   string
	facultyLoad int
	subjectLoad int
	batchLoad   int
}

// ScheduleGeneratorService builds a WeeklySchedule from batches, a
// constraint engine, and scheduling parameters (spec.md §4.5).
type ScheduleGeneratorService struct {
	logger *zap.Logger
}

// NewScheduleGeneratorService constructs the generator. logger may be nil.
func NewScheduleGeneratorService(logger *zap.Logger) *ScheduleGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGeneratorService{logger: logger}
}

// Generate runs the full assignment search described in spec.md §4.5,
// returning a complete or partial WeeklySchedule plus any lectures that
// could not be placed. It returns a *models.SchedulingError only when a
// lecture has no feasible slot and params.AllowPartialSchedules is false.
func (s *ScheduleGeneratorService) Generate(batches []*models.Batch, engine *ConstraintEngine, params models.SchedulingParameters) (models.WeeklySchedule, []models.UnscheduledLecture, error) {
	if err := params.Validate(); err != nil {
		return models.WeeklySchedule{}, nil, err
	}
	candidates := params.CandidateSlots()
	work := buildWorkList(batches)
	orderWorkList(work)

	rng := rand.New(rand.NewSource(params.Seed))
	var entries []models.ScheduleEntry
	var unscheduled []models.UnscheduledLecture

	maxAttempts := params.MaxAttemptsPerLecture
	if maxAttempts <= 0 {
		maxAttempts = 20
	}

	for _, item := range work {
		entry, scheduled := s.placeLecture(item, entries, candidates, engine, rng, maxAttempts)
		if scheduled {
			entries = append(entries, entry)
			continue
		}
		if !params.AllowPartialSchedules {
			return models.WeeklySchedule{}, nil, &models.SchedulingError{
				Item: models.UnscheduledLecture{
					BatchID:           item.BatchID,
					SubjectID:         item.SubjectID,
					FacultyID:         item.FacultyID,
					LecturesRemaining: 1,
					Reason:            "no feasible slot within attempt budget",
				},
			}
		}
		unscheduled = append(unscheduled, models.UnscheduledLecture{
			BatchID:           item.BatchID,
			SubjectID:         item.SubjectID,
			FacultyID:         item.FacultyID,
			LecturesRemaining: 1,
			Reason:            "no feasible slot within attempt budget",
		})
	}

	entries = s.optimizeDistribution(entries, engine, rng)
	unscheduled = mergeUnscheduled(unscheduled)

	violations := engine.ValidateSchedule(entries)
	return models.NewWeeklySchedule(entries, violations, time.Now().UTC()), unscheduled, nil
}

// placeLecture attempts up to maxAttempts shuffled candidate slots and
// commits the best surviving tie-break choice.
func (s *ScheduleGeneratorService) placeLecture(item workItem, existing []models.ScheduleEntry, candidates []models.TimeSlot, engine *ConstraintEngine, rng *rand.Rand, maxAttempts int) (models.ScheduleEntry, bool) {
	if len(candidates) == 0 {
		return models.ScheduleEntry{}, false
	}
	shuffled := make([]models.TimeSlot, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	attempts := maxAttempts
	if attempts > len(shuffled) {
		attempts = len(shuffled)
	}

	var viable []models.TimeSlot
	for i := 0; i < attempts; i++ {
		trial := models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: shuffled[i]}
		if len(engine.FindViolationsForEntry(trial, existing)) == 0 {
			viable = append(viable, shuffled[i])
		}
	}
	if len(viable) == 0 {
		return models.ScheduleEntry{}, false
	}

	best := bestTieBreak(viable, item.BatchID, existing)
	return models.ScheduleEntry{BatchID: item.BatchID, SubjectID: item.SubjectID, FacultyID: item.FacultyID, Slot: best}, true
}

// bestTieBreak prefers earlier day, then earlier start, then the slot that
// minimises current-day load for the batch.
func bestTieBreak(candidates []models.TimeSlot, batchID string, existing []models.ScheduleEntry) models.TimeSlot {
	dayLoad := make(map[models.DayOfWeek]int)
	for _, e := range existing {
		if e.BatchID == batchID {
			dayLoad[e.Slot.Day]++
		}
	}
	best := candidates[0]
	bestLoad := dayLoad[best.Day]
	for _, c := range candidates[1:] {
		load := dayLoad[c.Day]
		switch {
		case c.Day < best.Day:
			best, bestLoad = c, load
		case c.Day == best.Day && c.StartMinutes() < best.StartMinutes():
			best, bestLoad = c, load
		case c.Day == best.Day && c.StartMinutes() == best.StartMinutes() && load < bestLoad:
			best, bestLoad = c, load
		}
	}
	return best
}

// optimizeDistribution swaps pairs of entries to reduce the standard
// deviation of lectures-per-day per batch while preserving feasibility. A
// swap pairs an entry on a batch's busiest day with an entry of another
// batch on that batch's quietest occupied day.
func (s *ScheduleGeneratorService) optimizeDistribution(entries []models.ScheduleEntry, engine *ConstraintEngine, rng *rand.Rand) []models.ScheduleEntry {
	const maxPasses = 25
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		byBatch := groupByBatch(entries)
		for batchID, idxs := range byBatch {
			dayCounts := make(map[models.DayOfWeek]int)
			for _, i := range idxs {
				dayCounts[entries[i].Slot.Day]++
			}
			maxDay, minDay := busiestAndQuietestDay(dayCounts)
			if maxDay == minDay {
				continue
			}
			for _, i := range idxs {
				if entries[i].Slot.Day != maxDay {
					continue
				}
				for j := range entries {
					if entries[j].BatchID == batchID || entries[j].Slot.Day != minDay {
						continue
					}
					if trySwap(entries, i, j, engine) {
						improved = true
						break
					}
				}
				if improved {
					break
				}
			}
			if improved {
				break
			}
			_ = batchID
		}
		if !improved {
			break
		}
	}
	return entries
}

func trySwap(entries []models.ScheduleEntry, i, j int, engine *ConstraintEngine) bool {
	before := stddevPerDay(entries)
	original := entries
	trial := make([]models.ScheduleEntry, len(entries))
	copy(trial, entries)
	trial[i].Slot, trial[j].Slot = trial[j].Slot, trial[i].Slot

	others := func(idx int) []models.ScheduleEntry {
		out := make([]models.ScheduleEntry, 0, len(trial)-1)
		for k, e := range trial {
			if k != idx {
				out = append(out, e)
			}
		}
		return out
	}
	if len(engine.FindViolationsForEntry(trial[i], others(i))) > 0 {
		return false
	}
	if len(engine.FindViolationsForEntry(trial[j], others(j))) > 0 {
		return false
	}
	after := stddevPerDay(trial)
	if after < before {
		copy(entries, trial)
		return true
	}
	_ = original
	return false
}

func stddevPerDay(entries []models.ScheduleEntry) float64 {
	byBatch := groupByBatch(entries)
	var total float64
	var n int
	for _, idxs := range byBatch {
		counts := make(map[models.DayOfWeek]int)
		for _, i := range idxs {
			counts[entries[i].Slot.Day]++
		}
		total += stddev(counts)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func stddev(counts map[models.DayOfWeek]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, c := range counts {
		sum += float64(c)
		sumSq += float64(c) * float64(c)
	}
	n := float64(len(counts))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func busiestAndQuietestDay(counts map[models.DayOfWeek]int) (models.DayOfWeek, models.DayOfWeek) {
	var days []models.DayOfWeek
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	maxDay, minDay := days[0], days[0]
	for _, d := range days {
		if counts[d] > counts[maxDay] {
			maxDay = d
		}
		if counts[d] < counts[minDay] {
			minDay = d
		}
	}
	return maxDay, minDay
}

func groupByBatch(entries []models.ScheduleEntry) map[string][]int {
	out := make(map[string][]int)
	for i, e := range entries {
		out[e.BatchID] = append(out[e.BatchID], i)
	}
	return out
}

func buildWorkList(batches []*models.Batch) []workItem {
	facultyLoad := make(map[string]int)
	batchLoad := make(map[string]int)
	for _, b := range batches {
		batchLoad[b.BatchID] = b.TotalWeeklyLectures()
		for _, sub := range b.Subjects() {
			facultyLoad[sub.FacultyID] += sub.LecturesPerWeek
		}
	}

	var items []workItem
	for _, b := range batches {
		for _, sub := range b.Subjects() {
			for i := 0; i < sub.LecturesPerWeek; i++ {
				items = append(items, workItem{
					BatchID:     b.BatchID,
					SubjectID:   sub.SubjectID,
					FacultyID:   sub.FacultyID,
					facultyLoad: facultyLoad[sub.FacultyID],
					subjectLoad: sub.LecturesPerWeek,
					batchLoad:   batchLoad[b.BatchID],
				})
			}
		}
	}
	return items
}

// orderWorkList applies the default "most-constrained first" heuristic:
// descending facultyLoad, then descending subject.lecturesPerWeek, then
// descending batch load, with a deterministic tie-break on ids.
func orderWorkList(items []workItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.facultyLoad != b.facultyLoad {
			return a.facultyLoad > b.facultyLoad
		}
		if a.subjectLoad != b.subjectLoad {
			return a.subjectLoad > b.subjectLoad
		}
		if a.batchLoad != b.batchLoad {
			return a.batchLoad > b.batchLoad
		}
		if a.BatchID != b.BatchID {
			return a.BatchID < b.BatchID
		}
		return a.SubjectID < b.SubjectID
	})
}

func mergeUnscheduled(items []models.UnscheduledLecture) []models.UnscheduledLecture {
	type key struct{ batch, subject, faculty string }
	counts := make(map[key]*models.UnscheduledLecture)
	var order []key
	for _, item := range items {
		k := key{item.BatchID, item.SubjectID, item.FacultyID}
		if existing, ok := counts[k]; ok {
			existing.LecturesRemaining += item.LecturesRemaining
			continue
		}
		copyItem := item
		counts[k] = &copyItem
		order = append(order, k)
	}
	out := make([]models.UnscheduledLecture, 0, len(order))
	for _, k := range order {
		out = append(out, *counts[k])
	}
	return out
}
