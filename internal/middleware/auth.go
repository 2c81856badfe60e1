package middleware

import (
	"context"
	"net/http"
	"strings"

	"truvamate/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentitySyncer mirrors a verified identity into the user store.
type IdentitySyncer interface {
	SyncIdentity(ctx context.Context, id *auth.Identity) error
}

// AuthRequired verifies the bearer token and sets user_id, email, role and
// the identity in both the gin and the request context. A failed sync is
// logged and does not reject the request.
func AuthRequired(verifier auth.TokenVerifier, syncer IdentitySyncer, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("auth")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		id, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		ctx := auth.WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		if syncer != nil {
			if err := syncer.SyncIdentity(ctx, id); err != nil {
				log.Warn("identity sync failed", zap.String("user_id", id.UserID), zap.Error(err))
			}
		}
		c.Set("user_id", id.UserID)
		c.Set("email", id.Email)
		c.Set("role", id.Role)
		c.Set("identity", id)
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.GetString("role")
		if r == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, a := range allowed {
			if r == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// GetUserID returns the authenticated user ID (must be used after AuthRequired).
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetIdentity returns the verified identity placed by AuthRequired.
func GetIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get("identity")
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
