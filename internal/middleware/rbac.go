package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
)

// RequireMutate rejects requests from operators whose role cannot mutate
// scheduling state (generate, adjust, apply relaxations).
func RequireMutate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.OperatorClaims)
		if !claims.CanMutate() {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole restricts a route to an exact set of operator roles.
func RequireRole(allowed ...models.OperatorRole) gin.HandlerFunc {
	set := make(map[models.OperatorRole]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.OperatorClaims)
		if _, ok := set[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
