package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// RunAuditSink records a one-way audit trail of engine invocations. The
// engine never reads these records back to reconstruct scheduling state
// (spec.md §1) — this exists purely for operator-facing history, the
// same role the teacher's audit middleware plays for request logs.
type RunAuditSink interface {
	Record(ctx context.Context, run *models.GenerationRun) error
}

// SchedulerAppService composes the generator, feasibility analyser,
// relaxation planner, partial-schedule generator, conflict reporter and
// adjustment service (each over a fresh ConstraintEngine) into the six
// operations the HTTP collaborator layer exposes (generate, analyze,
// relax-plan, relax-apply, partial, conflicts/adjust). It holds no
// scheduling state of its own: every call is given its batches, parameters,
// and (where relevant) prior schedule explicitly.
type SchedulerAppService struct {
	generator   *ScheduleGeneratorService
	feasibility *FeasibilityService
	relaxation  *RelaxationService
	partial     *PartialScheduleService
	conflict    *ConflictService
	adjustment  *ManualAdjustmentService
	audit       RunAuditSink
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSchedulerAppService wires the composed facade. audit and metrics may
// be nil in tests; logger defaults to a no-op.
func NewSchedulerAppService(
	generator *ScheduleGeneratorService,
	feasibility *FeasibilityService,
	relaxation *RelaxationService,
	partial *PartialScheduleService,
	conflict *ConflictService,
	adjustment *ManualAdjustmentService,
	audit RunAuditSink,
	metrics *MetricsService,
	logger *zap.Logger,
) *SchedulerAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerAppService{
		generator:   generator,
		feasibility: feasibility,
		relaxation:  relaxation,
		partial:     partial,
		conflict:    conflict,
		adjustment:  adjustment,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
	}
}

// GenerateSchedule runs the full assignment search and records an audit run.
func (s *SchedulerAppService) GenerateSchedule(ctx context.Context, batches []*models.Batch, params models.SchedulingParameters) (models.WeeklySchedule, []models.UnscheduledLecture, error) {
	engine := NewConstraintEngine(params)
	schedule, unscheduled, err := s.generator.Generate(batches, engine, params)
	if err != nil {
		s.recordRun(ctx, batches, params, schedule, unscheduled, "generate", false)
		return schedule, unscheduled, err
	}
	s.recordRun(ctx, batches, params, schedule, unscheduled, "generate", true)
	return schedule, unscheduled, nil
}

// AnalyzeFeasibility runs the feasibility analyser over the given scenario.
func (s *SchedulerAppService) AnalyzeFeasibility(batches []*models.Batch, params models.SchedulingParameters) models.ScenarioAnalysis {
	engine := NewConstraintEngine(params)
	return s.feasibility.AnalyzeScenario(batches, engine, params)
}

// PlanRelaxation analyses the scenario and ranks applicable relaxation strategies.
func (s *SchedulerAppService) PlanRelaxation(batches []*models.Batch, params models.SchedulingParameters) (models.ScenarioAnalysis, []int) {
	analysis := s.AnalyzeFeasibility(batches, params)
	return analysis, s.relaxation.CreateRelaxationPlan(analysis)
}

// ApplyRelaxation applies a previously computed strategy plan.
func (s *SchedulerAppService) ApplyRelaxation(batches []*models.Batch, params models.SchedulingParameters, plan []int) (RelaxationState, []string, []string) {
	engine := NewConstraintEngine(params)
	state := RelaxationState{Engine: engine, Batches: batches, Params: params}
	return s.relaxation.ApplyRelaxationPlan(plan, state)
}

// GeneratePartial runs the partial-schedule generator.
func (s *SchedulerAppService) GeneratePartial(batches []*models.Batch, params models.SchedulingParameters, opts PartialScheduleOptions) PartialScheduleResult {
	engine := NewConstraintEngine(params)
	return s.partial.GeneratePartialSchedule(batches, engine, params, opts)
}

// DetectConflicts runs the conflict reporter over a candidate schedule.
func (s *SchedulerAppService) DetectConflicts(entries []models.ScheduleEntry, params models.SchedulingParameters) []Conflict {
	engine := NewConstraintEngine(params)
	return s.conflict.DetectConflicts(entries, params, engine)
}

// ApplyAutomaticResolutions applies effort=automatic resolutions above threshold.
func (s *SchedulerAppService) ApplyAutomaticResolutions(conflicts []Conflict, schedule models.WeeklySchedule, params models.SchedulingParameters, threshold float64) ResolutionOutcome {
	engine := NewConstraintEngine(params)
	return s.conflict.ApplyAutomaticResolutions(conflicts, schedule, params, engine, threshold)
}

// AnalyzeAdjustment analyses a proposed manual adjustment without committing it.
func (s *SchedulerAppService) AnalyzeAdjustment(request AdjustmentRequest, schedule models.WeeklySchedule, params models.SchedulingParameters) AdjustmentImpact {
	engine := NewConstraintEngine(params)
	return s.adjustment.AnalyzeAdjustmentImpact(request, schedule, params, engine)
}

// ApplyAdjustment commits a proposed manual adjustment atomically.
func (s *SchedulerAppService) ApplyAdjustment(request AdjustmentRequest, schedule models.WeeklySchedule, params models.SchedulingParameters) AdjustmentResult {
	engine := NewConstraintEngine(params)
	return s.adjustment.ApplyAdjustment(request, schedule, params, engine)
}

// RelaxationStrategyNames returns the built-in strategy catalogue's names,
// in the same order CreateRelaxationPlan indexes into.
func (s *SchedulerAppService) RelaxationStrategyNames() []string {
	strategies := s.relaxation.Strategies()
	names := make([]string, len(strategies))
	for i, strat := range strategies {
		names[i] = strat.Name
	}
	return names
}

// CreateAdjustmentRequest delegates id allocation to the adjustment service.
func (s *SchedulerAppService) CreateAdjustmentRequest(adjustmentType, description string, targetEntry models.ScheduleEntry, changes []ProposedChange, reason string, priority int, requestedBy string) AdjustmentRequest {
	return s.adjustment.CreateAdjustmentRequest(adjustmentType, description, targetEntry, changes, reason, priority, requestedBy)
}

func (s *SchedulerAppService) recordRun(ctx context.Context, batches []*models.Batch, params models.SchedulingParameters, schedule models.WeeklySchedule, unscheduled []models.UnscheduledLecture, strategy string, feasible bool) {
	if s.audit == nil {
		return
	}
	requiredLectures := 0
	subjectCount := 0
	for _, b := range batches {
		subjectCount += b.SubjectCount()
		requiredLectures += b.TotalWeeklyLectures()
	}
	run := &models.GenerationRun{
		BatchCount:       len(batches),
		SubjectCount:     subjectCount,
		RequiredLectures: requiredLectures,
		ScheduledCount:   len(schedule.Entries),
		Feasible:         feasible && len(unscheduled) == 0,
		Score:            coveragePercent(len(schedule.Entries), requiredLectures),
		ErrorCount:       schedule.Metadata.ErrorCount,
		WarningCount:     schedule.Metadata.WarningCount,
		Strategy:         strategy,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, run); err != nil {
		s.logger.Sugar().Warnw("failed to record generation run", "error", err)
	}
}
