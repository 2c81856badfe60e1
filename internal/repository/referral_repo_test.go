package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"truvamate/internal/domain"
	"truvamate/internal/models"
	"truvamate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	return NewStore(testutil.NewSQLite(t))
}

func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.UpsertUser(context.Background(), &models.User{
		ID: id, Email: id + "@example.com", Name: "User " + id, Role: domain.RoleUser,
	}))
}

func seedCode(t *testing.T, s *Store, userID, code string) *models.ReferralCode {
	t.Helper()
	seedUser(t, s, userID)
	rc, err := s.AssignCode(context.Background(), &models.ReferralCode{
		Code: code, UserID: userID, IsActive: true, CreatedAt: base,
	})
	require.NoError(t, err)
	return rc
}

func pendingReferral(referrerID, code, referredID string, at time.Time) *models.Referral {
	return &models.Referral{
		ID:                models.ReferralID(referrerID, referredID),
		ReferrerID:        referrerID,
		ReferrerCode:      code,
		ReferredUserID:    referredID,
		ReferredUserEmail: referredID + "@example.com",
		ReferredUserName:  "User " + referredID,
		Status:            domain.ReferralStatusPending,
		CreatedAt:         at,
	}
}

func TestAssignCode(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	t.Run("creates code and back-reference", func(t *testing.T) {
		rc := seedCode(t, s, "alice", "ALICCODE0001")
		assert.Equal(t, "ALICCODE0001", rc.Code)

		u, err := s.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "ALICCODE0001", u.ReferralCode)
	})

	t.Run("returns the owned code on a second assignment", func(t *testing.T) {
		rc, err := s.AssignCode(ctx, &models.ReferralCode{Code: "ALICCODE0002", UserID: "alice", IsActive: true})
		require.NoError(t, err)
		assert.Equal(t, "ALICCODE0001", rc.Code)

		exists, err := s.CodeExists(ctx, "ALICCODE0002")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("collision reports code taken", func(t *testing.T) {
		seedUser(t, s, "bob")
		_, err := s.AssignCode(ctx, &models.ReferralCode{Code: "ALICCODE0001", UserID: "bob", IsActive: true})
		assert.ErrorIs(t, err, domain.ErrCodeTaken)

		u, err := s.GetUser(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, u.ReferralCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.AssignCode(ctx, &models.ReferralCode{Code: "GHOSTCODE001", UserID: "ghost", IsActive: true})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestCreateReferral(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")

	require.NoError(t, s.CreateReferral(ctx, pendingReferral("alice", "ALICE0000001", "carol", base)))

	rc, err := s.GetCode(ctx, "ALICE0000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rc.TotalReferrals)

	carol, err := s.GetUser(ctx, "carol")
	require.NoError(t, err, "referred user row is created on demand")
	assert.Equal(t, "alice", carol.ReferredBy)
	assert.Equal(t, "ALICE0000001", carol.ReferredByCode)

	t.Run("second referral of the same user is rejected", func(t *testing.T) {
		err := s.CreateReferral(ctx, pendingReferral("alice", "ALICE0000001", "carol", base))
		assert.ErrorIs(t, err, domain.ErrAlreadyReferred)

		rc, err := s.GetCode(ctx, "ALICE0000001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rc.TotalReferrals)
	})

	t.Run("referral by another referrer is rejected", func(t *testing.T) {
		seedCode(t, s, "bob", "BOB000000001")
		err := s.CreateReferral(ctx, pendingReferral("bob", "BOB000000001", "carol", base))
		assert.ErrorIs(t, err, domain.ErrAlreadyReferred)

		_, err = s.GetReferral(ctx, models.ReferralID("bob", "carol"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("inactive code rolls back", func(t *testing.T) {
		seedCode(t, s, "dan", "DAN000000001")
		require.NoError(t, s.ReferralRepository.db.Model(&models.ReferralCode{}).Where("code = ?", "DAN000000001").Update("is_active", false).Error)
		seedUser(t, s, "erin")

		err := s.CreateReferral(ctx, pendingReferral("dan", "DAN000000001", "erin", base))
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		_, err = s.GetReferral(ctx, models.ReferralID("dan", "erin"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		erin, err := s.GetUser(ctx, "erin")
		require.NoError(t, err)
		assert.False(t, erin.WasReferred())
	})
}

func settlement(ref *models.Referral, commission, order int64, at time.Time) models.Settlement {
	return models.Settlement{
		ReferralID:      ref.ID,
		ReferrerCode:    ref.ReferrerCode,
		CommissionCents: commission,
		OrderValueCents: order,
		OrderID:         "order-1",
		CompletedAt:     at,
		Transaction: models.CommissionTransaction{
			ID:              "commission_" + ref.ID + "_1",
			ReferralID:      ref.ID,
			ReferrerID:      ref.ReferrerID,
			AmountCents:     commission,
			Type:            domain.TxTypeCommission,
			Status:          domain.TxStatusPending,
			OrderValueCents: order,
			OrderID:         "order-1",
			CreatedAt:       at,
		},
	}
}

func TestCompleteReferralIsSingleShot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")
	ref := pendingReferral("alice", "ALICE0000001", "carol", base)
	require.NoError(t, s.CreateReferral(ctx, ref))

	applied, err := s.CompleteReferral(ctx, settlement(ref, 40000, 400000, base.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, applied)

	second := settlement(ref, 40000, 400000, base.Add(2*time.Hour))
	second.Transaction.ID = "commission_" + ref.ID + "_2"
	applied, err = s.CompleteReferral(ctx, second)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetReferral(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralStatusCompleted, got.Status)
	assert.Equal(t, int64(40000), got.CommissionCents)
	assert.Equal(t, int64(400000), got.OrderValueCents)
	require.NotNil(t, got.CompletedAt)

	rc, err := s.GetCode(ctx, "ALICE0000001")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), rc.TotalEarningsCents)

	txns, err := s.ListTransactions(ctx, ref.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TxStatusPending, txns[0].Status)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")
	ref := pendingReferral("alice", "ALICE0000001", "carol", base)
	require.NoError(t, s.CreateReferral(ctx, ref))

	_, err := s.MarkPaid(ctx, ref.ID, base)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	got, err := s.GetReferral(ctx, ref.ID)
	require.NoError(t, err)
	assert.False(t, got.CommissionPaid, "pending referral must never be paid")

	_, err = s.CompleteReferral(ctx, settlement(ref, 40000, 400000, base))
	require.NoError(t, err)

	paid, err := s.MarkPaid(ctx, ref.ID, base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, paid.CommissionPaid)
	require.NotNil(t, paid.PaidAt)

	_, err = s.MarkPaid(ctx, ref.ID, base.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = s.MarkPaid(ctx, "missing_ref", base)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListReferralsPaginates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")
	for i := 0; i < 5; i++ {
		ref := pendingReferral("alice", "ALICE0000001", fmt.Sprintf("friend%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.CreateReferral(ctx, ref))
	}

	var seen []string
	q := models.ReferralQuery{Limit: 2}
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, err := s.ListReferrals(ctx, q)
		require.NoError(t, err)
		for _, r := range page.Items {
			seen = append(seen, r.ReferredUserID)
		}
		if page.Next == nil {
			break
		}
		q.After = page.Next
	}
	assert.Equal(t, []string{"friend4", "friend3", "friend2", "friend1", "friend0"}, seen)

	paid := false
	page, err := s.ListReferrals(ctx, models.ReferralQuery{Paid: &paid, Status: domain.ReferralStatusPending})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Nil(t, page.Next)

	page, err = s.ListReferrals(ctx, models.ReferralQuery{Limit: -1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)

	page, err = s.ListReferrals(ctx, models.ReferralQuery{Status: domain.ReferralStatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestReferralTotals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")
	first := pendingReferral("alice", "ALICE0000001", "carol", base)
	second := pendingReferral("alice", "ALICE0000001", "dave", base.Add(time.Minute))
	require.NoError(t, s.CreateReferral(ctx, first))
	require.NoError(t, s.CreateReferral(ctx, second))
	_, err := s.CompleteReferral(ctx, settlement(first, 25000, 250000, base))
	require.NoError(t, err)

	totals, err := s.ReferralTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CodeTotals{Referrals: 2, EarningsCents: 25000}, totals["ALICE0000001"])
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	want := models.ReferralSettings{CommissionRate: 7.5, MinOrderValueCents: 10000, MaxCommissionCents: 20000, RequireFirstPurchase: true}
	require.NoError(t, s.SaveSettings(ctx, want))
	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	want.CommissionRate = 12
	require.NoError(t, s.SaveSettings(ctx, want))
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.CommissionRate)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedCode(t, s, "alice", "ALICE0000001")

	require.NoError(t, s.UpsertUser(ctx, &models.User{ID: "alice", Email: "new@example.com", Name: "Alice", Role: domain.RoleAdmin}))
	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "ALICE0000001", u.ReferralCode, "identity sync keeps referral fields")

	require.NoError(t, s.SetFCMToken(ctx, "alice", "tok"))
	assert.ErrorIs(t, s.SetFCMToken(ctx, "nobody", "tok"), domain.ErrUserNotFound)

	users, err := s.GetUsers(ctx, []string{"alice", "nobody"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "tok", users["alice"].FCMToken)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("Error 1062: Duplicate entry")))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("UNIQUE constraint failed: referral_codes.code")))
	assert.False(t, IsDuplicateKeyErr(fmt.Errorf("connection refused")))
}
