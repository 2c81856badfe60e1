package handler

import (
	"net/http"

	"truvamate/internal/middleware"
	"truvamate/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	svc *service.ReferralService
}

func NewMeHandler(svc *service.ReferralService) *MeHandler {
	return &MeHandler{svc: svc}
}

// GetMe returns the authenticated user's profile as last synced.
// GET /me
func (h *MeHandler) GetMe(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               u.ID,
		"email":            u.Email,
		"name":             u.Name,
		"role":             u.Role,
		"referral_code":    u.ReferralCode,
		"referred_by_code": u.ReferredByCode,
		"created_at":       u.CreatedAt,
	})
}

// RegisterFCMToken saves the FCM token for push notifications.
// POST /me/fcm-token
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.svc.SetFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
