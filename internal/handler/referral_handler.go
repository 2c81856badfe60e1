package handler

import (
	"net/http"

	"truvamate/internal/middleware"
	"truvamate/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// ValidateCode reports whether a code can be used at sign-up.
// GET /referral-codes/:code/validate
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	code := service.NormalizeCode(c.Param("code"))
	c.JSON(http.StatusOK, gin.H{"code": code, "valid": h.svc.ValidateCode(c.Request.Context(), code)})
}

type registerRequest struct {
	Code  string `json:"code" binding:"required"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register links the authenticated (newly signed up) user to a referrer.
// POST /referrals/register
func (h *ReferralHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	email, name := req.Email, req.Name
	if id := middleware.GetIdentity(c); id != nil {
		if id.Email != "" {
			email = id.Email
		}
		if id.Name != "" {
			name = id.Name
		}
	}
	ref, err := h.svc.Register(c.Request.Context(), req.Code, middleware.GetUserID(c), email, name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ref)
}

// GetMyReferralCode returns the authenticated user's referral code, creating one if it doesn't exist yet.
// GET /me/referral-code
func (h *ReferralHandler) GetMyReferralCode(c *gin.Context) {
	rc, err := h.svc.EnsureCode(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":                 rc.Code,
		"is_active":            rc.IsActive,
		"total_referrals":      rc.TotalReferrals,
		"total_earnings_cents": rc.TotalEarningsCents,
		"created_at":           rc.CreatedAt,
		"share":                h.svc.ShareLinks(rc.Code),
	})
}

// GetMyReferrals lists the users the authenticated user has referred, newest first.
// GET /me/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	refs := h.svc.UserReferrals(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"referrals": refs, "total": len(refs)})
}

// GET /me/referral-stats
func (h *ReferralHandler) GetMyStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context(), middleware.GetUserID(c)))
}
