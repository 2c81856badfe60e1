package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"truvamate/config"
	"truvamate/internal/domain"
	"truvamate/internal/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComputeCommission(t *testing.T) {
	s := models.ReferralSettings{CommissionRate: 10, MinOrderValueCents: 50000, MaxCommissionCents: 50000}
	tests := []struct {
		name  string
		order int64
		want  int64
	}{
		{"ten percent", 400000, 40000},
		{"capped", 1000000, 50000},
		{"exact cap", 500000, 50000},
		{"rounds half up", 5, 1},
		{"zero order", 0, 0},
		{"negative order", -100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCommission(tt.order, s))
		})
	}

	assert.Zero(t, ComputeCommission(400000, models.ReferralSettings{CommissionRate: 0, MaxCommissionCents: 100}))
	assert.True(t, Qualifies(50000, s))
	assert.False(t, Qualifies(49999, s))
}

func TestGenerateCode(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	code, err := GenerateCode("ab-c9xyz", now)
	require.NoError(t, err)
	assert.Len(t, code, domain.CodeLength)
	assert.True(t, strings.HasPrefix(code, "ABC9"))
	assert.Equal(t, strings.ToUpper(code), code)

	short, err := GenerateCode("", now)
	require.NoError(t, err)
	assert.Len(t, short, domain.CodeLength)

	other, err := GenerateCode("ab-c9xyz", now)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)

	assert.Equal(t, "ABC123", NormalizeCode("  abc123 \n"))
}

func TestValidateSettings(t *testing.T) {
	assert.NoError(t, ValidateSettings(models.ReferralSettings{CommissionRate: 10}))
	assert.NoError(t, ValidateSettings(models.ReferralSettings{CommissionRate: 100}))
	for _, bad := range []models.ReferralSettings{
		{CommissionRate: -1},
		{CommissionRate: 101},
		{CommissionRate: 5, MinOrderValueCents: -1},
		{CommissionRate: 5, MaxCommissionCents: -1},
	} {
		assert.ErrorIs(t, ValidateSettings(bad), domain.ErrInvalidSettings)
	}
}

func TestDefaultSettings(t *testing.T) {
	got := DefaultSettings(config.ReferralConfig{
		CommissionRate:       10,
		MinOrderValueCents:   50000,
		MaxCommissionCents:   50000,
		RequireFirstPurchase: true,
		SettleLockTTL:        time.Second,
	})
	assert.Equal(t, testDefaults, got)
	assert.NoError(t, ValidateSettings(got))
}

func TestBuildShareLinks(t *testing.T) {
	links := BuildShareLinks("https://truvamate.example/", "ALIC12AB34CD")
	assert.Equal(t, "https://truvamate.example/login?ref=ALIC12AB34CD", links.Link)
	assert.Equal(t, "https://www.facebook.com/sharer/sharer.php?u=https%3A%2F%2Ftruvamate.example%2Flogin%3Fref%3DALIC12AB34CD", links.Facebook)
	assert.True(t, strings.HasPrefix(links.Line, "https://social-plugins.line.me/lineit/share?url=https%3A%2F%2F"))
	assert.Contains(t, links.Twitter, "&url=https%3A%2F%2Ftruvamate.example")
	assert.NotContains(t, links.Twitter, "+")
}

func TestComputeStats(t *testing.T) {
	refs := []models.Referral{
		{Status: domain.ReferralStatusCompleted, CommissionCents: 40000, CommissionPaid: true},
		{Status: domain.ReferralStatusCompleted, CommissionCents: 10000},
		{Status: domain.ReferralStatusPending},
		{Status: domain.ReferralStatusCancelled},
	}
	st := ComputeStats(refs)
	assert.Equal(t, Stats{
		TotalReferrals:       4,
		CompletedReferrals:   2,
		PendingReferrals:     1,
		CancelledReferrals:   1,
		TotalEarningsCents:   50000,
		PendingEarningsCents: 10000,
		PaidEarningsCents:    40000,
	}, st)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestFormatBaht(t *testing.T) {
	assert.Equal(t, "400", FormatBaht(40000))
	assert.Equal(t, "1,234,567.89", FormatBaht(123456789))
	assert.Equal(t, "0", FormatBaht(0))
	assert.Equal(t, "-12.50", FormatBaht(-1250))
}

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	return "msg-1", f.err
}

func TestCommissionNotifier(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	n := NewCommissionNotifier(NewFCMServiceWithSender(sender, zap.NewNop()))
	ref := &models.Referral{ID: "alice_bob", ReferredUserName: "Bob", CommissionCents: 40000}

	require.NoError(t, n.NotifyCommission(ctx, &models.User{ID: "alice"}, ref))
	assert.Empty(t, sender.sent)

	require.NoError(t, n.NotifyCommission(ctx, &models.User{ID: "alice", FCMToken: "tok"}, ref))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "tok", msg.Token)
	assert.Contains(t, msg.Notification.Body, "฿400")
	assert.Equal(t, NotifyTypeCommission, msg.Data["type"])
	assert.Equal(t, "40000", msg.Data["commission_cents"])

	sender.err = errors.New("unavailable")
	assert.Error(t, n.NotifyCommission(ctx, &models.User{ID: "alice", FCMToken: "tok"}, ref))

	var nilNotifier *CommissionNotifier
	assert.NoError(t, nilNotifier.NotifyCommission(ctx, &models.User{FCMToken: "tok"}, ref))
	assert.NoError(t, NewCommissionNotifier(nil).NotifyCommission(ctx, &models.User{FCMToken: "tok"}, ref))
}
