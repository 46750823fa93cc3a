package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/arka-widjaja/timetable-engine/internal/middleware"
	"github.com/arka-widjaja/timetable-engine/internal/models"
)

func claimsFromContext(c *gin.Context) *models.OperatorClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.OperatorClaims)
	if !ok {
		return nil
	}
	return claims
}
