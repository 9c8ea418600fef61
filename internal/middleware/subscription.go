package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type subscriptionChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// SubscriptionGate rejects users without an active trial or subscription.
// Admins always pass. A disabled gate lets every request through, which is
// how development environments run.
func SubscriptionGate(checker subscriptionChecker, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role == models.RoleAdmin {
			c.Next()
			return
		}
		active, err := checker.IsActive(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !active {
			response.Error(c, appErrors.ErrSubscriptionRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}
