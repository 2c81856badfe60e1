package middleware

import (
	"context"
	"errors"
	"net/http"

	"truvamate/internal/domain"

	"github.com/gin-gonic/gin"
)

type Authorizer interface {
	Authorize(ctx context.Context, role, object, action string) error
}

// RequirePermission checks the caller's role against the policy for
// object/action. Must run after AuthRequired.
func RequirePermission(a Authorizer, object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		err := a.Authorize(c.Request.Context(), role, object, action)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, domain.ErrPermission):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		case errors.Is(err, domain.ErrNotAuthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization unavailable"})
		}
	}
}
