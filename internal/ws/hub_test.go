package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"truvamate/internal/auth"
	"truvamate/internal/domain"
	"truvamate/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticVerifier map[string]*auth.Identity

func (v staticVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

type roleAuthorizer struct{}

func (roleAuthorizer) AuthorizeFeed(ctx context.Context) error {
	id, ok := auth.FromContext(ctx)
	if !ok || id.Role != domain.RoleAdmin {
		return errors.New("forbidden")
	}
	return nil
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	a := NewClient("admin-1", domain.RoleAdmin)
	b := NewClient("admin-2", domain.RoleAdmin)
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Publish(models.LedgerEvent{Type: domain.EventReferralSettled, ReferralID: "alice_bob", AmountCents: 40000})
	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), `"referral.settled"`)
		default:
			t.Fatal("expected a queued event")
		}
	}

	a.Close()
	a.Close()
	assert.Equal(t, 1, hub.ClientCount())
	hub.Publish(models.LedgerEvent{Type: domain.EventCommissionPaid})
	assert.Len(t, b.Send, 1)
}

func TestServeLedgerFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	verifier := staticVerifier{
		"admin-token": {UserID: "root", Role: domain.RoleAdmin},
		"user-token":  {UserID: "joe", Role: domain.RoleUser},
	}
	r := gin.New()
	r.GET("/ws/admin/referrals", ServeLedgerFeed(verifier, roleAuthorizer{}, hub, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/admin/referrals"

	for token, want := range map[string]int{"": http.StatusUnauthorized, "bogus": http.StatusUnauthorized, "user-token": http.StatusForbidden} {
		_, resp, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, want, resp.StatusCode, "token %q", token)
		resp.Body.Close()
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token=admin-token", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello map[string]interface{}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello["type"])

	hub.Publish(models.LedgerEvent{Type: domain.EventReferralRegistered, ReferralID: "alice_bob"})
	var msg struct {
		Type  string             `json:"type"`
		Event models.LedgerEvent `json:"event"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ledger_event", msg.Type)
	assert.Equal(t, "alice_bob", msg.Event.ReferralID)

	b, err := json.Marshal(msg.Event)
	require.NoError(t, err)
	assert.Contains(t, string(b), domain.EventReferralRegistered)
}
