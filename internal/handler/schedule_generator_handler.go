package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/arka-widjaja/timetable-engine/internal/dto"
	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/internal/service"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
)

// ScheduleGeneratorHandler exposes the six scheduling engine operations
// (generate, analyze, relax-plan, relax-apply, partial, conflicts/adjust)
// over HTTP.
type ScheduleGeneratorHandler struct {
	app      *service.SchedulerAppService
	validate *validator.Validate
}

// NewScheduleGeneratorHandler constructs the handler. validate may be nil,
// in which case a default validator.New() is used.
func NewScheduleGeneratorHandler(app *service.SchedulerAppService, validate *validator.Validate) *ScheduleGeneratorHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleGeneratorHandler{app: app, validate: validate}
}

// bindJSON decodes the request body and enforces the DTO's struct-tag
// invariants (required, min, dive, ...) before any business-logic
// conversion runs.
func (h *ScheduleGeneratorHandler) bindJSON(c *gin.Context, req any, label string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+label+" payload"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+label+" payload"))
		return false
	}
	return true
}

func bindParameters(c *gin.Context, raw dto.SchedulingParametersRequest) (models.SchedulingParameters, bool) {
	params, err := raw.ToParameters()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling parameters"))
		return models.SchedulingParameters{}, false
	}
	return params, true
}

func bindBatches(c *gin.Context, records []models.BatchRecord) ([]*models.Batch, bool) {
	batches, err := dto.BatchesFromRecords(records)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch record"))
		return nil, false
	}
	return batches, true
}

// Generate godoc
// @Summary Generate a full weekly schedule
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if !h.bindJSON(c, &req, "generate") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	batches, ok := bindBatches(c, req.Batches)
	if !ok {
		return
	}
	schedule, unscheduled, err := h.app.GenerateSchedule(c.Request.Context(), batches, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GenerateResponse{Schedule: schedule, Unscheduled: unscheduled}, nil)
}

// Analyze godoc
// @Summary Analyze the feasibility of a scheduling scenario
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeRequest true "Analyze payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/analyze [post]
func (h *ScheduleGeneratorHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if !h.bindJSON(c, &req, "analyze") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	batches, ok := bindBatches(c, req.Batches)
	if !ok {
		return
	}
	analysis := h.app.AnalyzeFeasibility(batches, params)
	response.JSON(c, http.StatusOK, dto.AnalyzeResponse{Analysis: analysis}, nil)
}

// RelaxationPlan godoc
// @Summary Rank applicable constraint-relaxation strategies
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.RelaxationPlanRequest true "Relaxation plan payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/relaxation-plan [post]
func (h *ScheduleGeneratorHandler) RelaxationPlan(c *gin.Context) {
	var req dto.RelaxationPlanRequest
	if !h.bindJSON(c, &req, "relaxation plan") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	batches, ok := bindBatches(c, req.Batches)
	if !ok {
		return
	}
	analysis, plan := h.app.PlanRelaxation(batches, params)
	strategies := h.app.RelaxationStrategyNames()
	names := make([]string, 0, len(plan))
	for _, idx := range plan {
		if idx >= 0 && idx < len(strategies) {
			names = append(names, strategies[idx])
		}
	}
	response.JSON(c, http.StatusOK, dto.RelaxationPlanResponse{Analysis: analysis, PlanOrder: plan, Strategies: names}, nil)
}

// RelaxationApply godoc
// @Summary Apply a previously ranked constraint-relaxation plan
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.RelaxationApplyRequest true "Relaxation apply payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/relaxation-apply [post]
func (h *ScheduleGeneratorHandler) RelaxationApply(c *gin.Context) {
	var req dto.RelaxationApplyRequest
	if !h.bindJSON(c, &req, "relaxation apply") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	batches, ok := bindBatches(c, req.Batches)
	if !ok {
		return
	}
	state, applied, tradeoffs := h.app.ApplyRelaxation(batches, params, req.PlanOrder)
	response.JSON(c, http.StatusOK, dto.RelaxationApplyResponse{
		Batches:    dto.BatchesToRecords(state.Batches),
		Parameters: dto.FromParameters(state.Params),
		Applied:    applied,
		Tradeoffs:  tradeoffs,
	}, nil)
}

// Partial godoc
// @Summary Generate the best achievable partial schedule
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.PartialScheduleRequest true "Partial schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/partial [post]
func (h *ScheduleGeneratorHandler) Partial(c *gin.Context) {
	var req dto.PartialScheduleRequest
	if !h.bindJSON(c, &req, "partial schedule") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	batches, ok := bindBatches(c, req.Batches)
	if !ok {
		return
	}
	opts := service.PartialScheduleOptions{
		PrioritizationStrategy:    service.PrioritizationStrategy(req.PrioritizationStrategy),
		TargetCoverage:            req.TargetCoverage,
		AllowConstraintRelaxation: req.AllowConstraintRelaxation,
		PreserveBalance:           req.PreserveBalance,
		GenerateAlternatives:      req.GenerateAlternatives,
	}
	result := h.app.GeneratePartial(batches, params, opts)
	response.JSON(c, http.StatusOK, dto.PartialScheduleResponse{
		Schedule:            result.Schedule,
		Unscheduled:         result.Unscheduled,
		CoveragePercent:     result.CoveragePercent,
		BatchCoverage:       result.BatchCoverage,
		SubjectCoverage:     result.SubjectCoverage,
		StrategyUsed:        string(result.StrategyUsed),
		RelaxationTradeoffs: result.RelaxationTradeoffs,
		RelaxationsApplied:  result.RelaxationsApplied,
		Alternatives:        result.Alternatives,
	}, nil)
}

// Conflicts godoc
// @Summary Detect conflicts in a candidate schedule
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ConflictReportRequest true "Conflict report payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/conflicts [post]
func (h *ScheduleGeneratorHandler) Conflicts(c *gin.Context) {
	var req dto.ConflictReportRequest
	if !h.bindJSON(c, &req, "conflict report") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	conflicts := h.app.DetectConflicts(req.Entries, params)
	response.JSON(c, http.StatusOK, dto.ConflictReportResponse{Conflicts: conflicts}, nil)
}

// ResolveConflicts godoc
// @Summary Apply automatic conflict resolutions above a confidence threshold
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.AutomaticResolutionRequest true "Automatic resolution payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/conflicts/resolve [post]
func (h *ScheduleGeneratorHandler) ResolveConflicts(c *gin.Context) {
	var req dto.AutomaticResolutionRequest
	if !h.bindJSON(c, &req, "automatic resolution") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	conflicts := h.app.DetectConflicts(req.Entries, params)
	schedule := models.NewWeeklySchedule(req.Entries, nil, time.Now().UTC())
	outcome := h.app.ApplyAutomaticResolutions(conflicts, schedule, params, req.Threshold)
	response.JSON(c, http.StatusOK, dto.AutomaticResolutionResponse{
		ResolvedSchedule:    outcome.ResolvedSchedule,
		AppliedResolutions:  outcome.AppliedResolutions,
		UnresolvedConflicts: outcome.UnresolvedConflicts,
	}, nil)
}

// Adjust godoc
// @Summary Apply a manual schedule adjustment
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.AdjustmentRequestPayload true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/adjust [post]
func (h *ScheduleGeneratorHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequestPayload
	if !h.bindJSON(c, &req, "adjustment") {
		return
	}
	params, ok := bindParameters(c, req.Parameters)
	if !ok {
		return
	}
	changes := make([]service.ProposedChange, 0, len(req.ProposedChanges))
	for _, c2 := range req.ProposedChanges {
		change, err := c2.ToProposedChange()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposed change"))
			return
		}
		changes = append(changes, change)
	}

	claims := claimsFromContext(c)
	requestedBy := req.RequestedBy
	if claims != nil {
		requestedBy = claims.OperatorID
	}

	adjustmentRequest := h.app.CreateAdjustmentRequest(req.Type, req.Description, req.TargetEntry, changes, req.Reason, req.Priority, requestedBy)
	schedule := models.NewWeeklySchedule(req.Entries, nil, time.Now().UTC())

	impact := h.app.AnalyzeAdjustment(adjustmentRequest, schedule, params)
	adjustmentRequest.Impact = impact
	result := h.app.ApplyAdjustment(adjustmentRequest, schedule, params)
	if !result.Success {
		response.Error(c, appErrors.Clone(appErrors.ErrAdjustment, "adjustment could not be applied"))
		return
	}
	response.JSON(c, http.StatusOK, dto.AdjustmentResponse{Impact: impact, Result: result}, nil)
}
