package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arka-widjaja/timetable-engine/internal/dto"
	"github.com/arka-widjaja/timetable-engine/internal/repository"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/jobs"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
)

// AsyncGenerationHandler submits a full Generate call to the background
// queue and lets the caller poll for its result, for batches large enough
// that a synchronous request would block the HTTP connection.
type AsyncGenerationHandler struct {
	queue *jobs.Queue
	cache *repository.ProposalCacheRepository
}

// NewAsyncGenerationHandler constructs the handler.
func NewAsyncGenerationHandler(queue *jobs.Queue, cache *repository.ProposalCacheRepository) *AsyncGenerationHandler {
	return &AsyncGenerationHandler{queue: queue, cache: cache}
}

type submitJobResponse struct {
	JobID string `json:"jobId"`
}

// Submit enqueues a generation request and returns its job id.
// POST /schedules/generate/async
func (h *AsyncGenerationHandler) Submit(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	jobID := uuid.NewString()
	job := jobs.Job{ID: jobID, Type: "schedule-generation", Payload: req}
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to enqueue job"))
		return
	}
	response.JSON(c, http.StatusAccepted, submitJobResponse{JobID: jobID}, nil)
}

// Status reports a submitted job's completion state, returning the cached
// proposal once it's ready. GET /schedules/generate/async/:jobId
func (h *AsyncGenerationHandler) Status(c *gin.Context) {
	jobID := c.Param("jobId")
	envelope, found, err := h.cache.Get(c.Request.Context(), jobID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read job result"))
		return
	}
	if !found {
		response.JSON(c, http.StatusAccepted, gin.H{"status": "pending"}, nil)
		return
	}
	if envelope.Error != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrConstraintExecution, envelope.Error))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"status":      "completed",
		"schedule":    envelope.Schedule,
		"unscheduled": envelope.Unscheduled,
	}, nil)
}
