package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-widjaja/timetable-engine/internal/models"
)

// Audit logs a structured record of each request it wraps once the request
// completes with a status below 400; failed requests are not logged. Unlike the scheduling engine itself, this middleware is
// allowed to be stateful and side-effecting — it is a collaborator, not
// part of the core.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var operatorID string
		if claims, ok := c.Get(ContextUserKey); ok {
			if operator, ok := claims.(*models.OperatorClaims); ok {
				operatorID = operator.OperatorID
			}
		}

		logger.Info("audit_event",
			zap.String("action", action),
			zap.String("operator_id", operatorID),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
