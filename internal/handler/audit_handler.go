package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arka-widjaja/timetable-engine/internal/repository"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
)

// AuditHandler exposes the generation-run audit trail to operators.
type AuditHandler struct {
	repo *repository.RunAuditRepository
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(repo *repository.RunAuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ListRecent returns the most recent generation runs, newest first.
// GET /schedules/runs?limit=20
func (h *AuditHandler) ListRecent(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	runs, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, appErrors.FromError(err))
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}
