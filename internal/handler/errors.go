package handler

import (
	"errors"
	"net/http"

	"truvamate/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps ledger errors to HTTP responses. Unknown errors are
// recorded on the context for the request logger and answered with 500.
func respondError(c *gin.Context, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest, "invalid referral code"
	case errors.Is(err, domain.ErrSelfReferral):
		return http.StatusBadRequest, "cannot use your own referral code"
	case errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBadPageToken):
		return http.StatusBadRequest, "invalid page token"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden, "admin access required"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrAlreadyReferred):
		return http.StatusConflict, "user already referred"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "referral is not in a payable state"
	case errors.Is(err, domain.ErrCodeExhausted):
		return http.StatusServiceUnavailable, "could not issue referral code"
	}
	return http.StatusInternalServerError, "internal error"
}
