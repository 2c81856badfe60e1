package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"truvamate/internal/domain"
	"truvamate/internal/export"
	"truvamate/internal/models"
	"truvamate/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc *service.ReferralService
	now func() time.Time
}

func NewAdminHandler(svc *service.ReferralService) *AdminHandler {
	return &AdminHandler{svc: svc, now: time.Now}
}

type listParams struct {
	Status    string `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
	Paid      string `form:"paid" binding:"omitempty,oneof=true false"`
	Q         string `form:"q"`
	Sort      string `form:"sort" binding:"omitempty,oneof=date commission"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	PageToken string `form:"page_token"`
}

func (p listParams) query() service.ListQuery {
	q := service.ListQuery{
		Status:    p.Status,
		Search:    p.Q,
		Sort:      p.Sort,
		Limit:     p.Limit,
		PageToken: p.PageToken,
	}
	if p.Paid != "" {
		paid, _ := strconv.ParseBool(p.Paid)
		q.Paid = &paid
	}
	return q
}

// ListReferrals returns one page of the ledger.
// GET /admin/referrals?status=&paid=&q=&sort=&limit=&page_token=
func (h *AdminHandler) ListReferrals(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.svc.ListAll(c.Request.Context(), p.query())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ExportReferrals downloads every referral matching the filters.
// GET /admin/referrals/export?format=csv|xlsx
func (h *AdminHandler) ExportReferrals(c *gin.Context) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format := c.DefaultQuery("format", export.FormatCSV)
	contentType := export.ContentType(format)
	if contentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	entries, err := h.svc.ExportReferrals(c.Request.Context(), p.query())
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, entries); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(format, h.now())+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GET /admin/referrals/:id
func (h *AdminHandler) GetReferral(c *gin.Context) {
	ref, txns, err := h.svc.ReferralDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral": ref, "transactions": txns})
}

// POST /admin/referrals/:id/mark-paid
func (h *AdminHandler) MarkPaid(c *gin.Context) {
	ref, err := h.svc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

// GET /admin/referral-settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type settingsRequest struct {
	CommissionRate       *float64 `json:"commission_rate" binding:"required"`
	MinOrderValueCents   *int64   `json:"min_order_value_cents" binding:"required"`
	RequireFirstPurchase bool     `json:"require_first_purchase"`
	MaxCommissionCents   *int64   `json:"max_commission_cents" binding:"required"`
}

// PUT /admin/referral-settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidSettings)
		return
	}
	s, err := h.svc.UpdateSettings(c.Request.Context(), models.ReferralSettings{
		CommissionRate:       *req.CommissionRate,
		MinOrderValueCents:   *req.MinOrderValueCents,
		RequireFirstPurchase: req.RequireFirstPurchase,
		MaxCommissionCents:   *req.MaxCommissionCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
