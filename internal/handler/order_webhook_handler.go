package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"truvamate/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// Settler settles a referral for a completed order.
type Settler interface {
	Settle(ctx context.Context, evt service.OrderCompleted) (*service.SettleResult, error)
}

type OrderWebhookHandler struct {
	settler Settler
	secret  string
}

func NewOrderWebhookHandler(settler Settler, secret string) *OrderWebhookHandler {
	return &OrderWebhookHandler{settler: settler, secret: secret}
}

// Handle receives order-completion notifications. It expects JSON
// { "order_id": "...", "user_id": "...", "order_value_cents": 400000, "status": "completed" }
// and, when a secret is configured, an X-Webhook-Signature hex HMAC-SHA256 of the body.
// Storage failures answer 500 so the sender retries; settlement is idempotent.
func (h *OrderWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.secret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		OrderID         string `json:"order_id"`
		UserID          string `json:"user_id"`
		OrderValueCents int64  `json:"order_value_cents"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	if payload.OrderValueCents < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_value_cents must not be negative"})
		return
	}
	if payload.Status != "" && !strings.EqualFold(payload.Status, "completed") {
		c.JSON(http.StatusOK, gin.H{"received": true, "outcome": "ignored"})
		return
	}
	res, err := h.settler.Settle(c.Request.Context(), service.OrderCompleted{
		UserID:          payload.UserID,
		OrderID:         payload.OrderID,
		OrderValueCents: payload.OrderValueCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": res.Outcome, "referral_id": res.ReferralID, "commission_cents": res.CommissionCents})
}

func (h *OrderWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}
