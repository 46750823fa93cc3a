package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/internal/service"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
)

// AuthHandler issues bearer tokens for a provisioned operator identity.
// Operator provisioning itself happens out of band; this endpoint only
// signs what it's handed.
type AuthHandler struct {
	tokens   *service.TokenService
	validate *validator.Validate
}

// NewAuthHandler constructs the handler. validate may be nil, in which
// case a default validator.New() is used.
func NewAuthHandler(tokens *service.TokenService, validate *validator.Validate) *AuthHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AuthHandler{tokens: tokens, validate: validate}
}

type issueTokenRequest struct {
	OperatorID string `json:"operatorId" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=admin planner viewer"`
}

type issueTokenResponse struct {
	Token string `json:"token"`
}

// IssueToken signs a bearer token for the requested operator identity and
// role. POST /auth/tokens
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token request"))
		return
	}

	role := models.OperatorRole(req.Role)
	token, err := h.tokens.Issue(req.OperatorID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issueTokenResponse{Token: token}, nil)
}
