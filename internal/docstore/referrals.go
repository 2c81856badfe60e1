package docstore

import (
	"context"
	"time"

	"truvamate/internal/domain"
	"truvamate/internal/models"
	"truvamate/pkg/pagination"

	"cloud.google.com/go/firestore"
)

func (s *Store) GetCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	snap, err := s.codes().Doc(code).Get(ctx)
	if err != nil {
		return nil, wrap("get code", err, domain.ErrNotFound)
	}
	var rc models.ReferralCode
	if err := snap.DataTo(&rc); err != nil {
		return nil, domain.Persistence("decode code", err)
	}
	return &rc, nil
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.codes().Doc(code).Get(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, domain.Persistence("code exists", err)
	}
	return true, nil
}

// AssignCode stores rc and the owner's back-reference in one transaction.
// A code the user already owns is returned instead.
func (s *Store) AssignCode(ctx context.Context, rc *models.ReferralCode) (*models.ReferralCode, error) {
	userRef := s.users().Doc(rc.UserID)
	codeRef := s.codes().Doc(rc.Code)
	var out *models.ReferralCode
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(userRef); err != nil {
			if isNotFound(err) {
				return domain.ErrUserNotFound
			}
			return err
		}
		owned, err := tx.Documents(s.codes().Where("userId", "==", rc.UserID).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			var existing models.ReferralCode
			if err := owned[0].DataTo(&existing); err != nil {
				return err
			}
			out = &existing
			return tx.Update(userRef, []firestore.Update{{Path: "referralCode", Value: existing.Code}})
		}
		if _, err := tx.Get(codeRef); err == nil {
			return domain.ErrCodeTaken
		} else if !isNotFound(err) {
			return err
		}
		if err := tx.Create(codeRef, rc); err != nil {
			return err
		}
		out = rc
		return tx.Update(userRef, []firestore.Update{{Path: "referralCode", Value: rc.Code}})
	})
	if err != nil {
		return nil, wrap("assign code", err, nil)
	}
	return out, nil
}

func (s *Store) ListCodes(ctx context.Context) ([]models.ReferralCode, error) {
	list, err := all[models.ReferralCode](s.codes().OrderBy("createdAt", firestore.Asc).Documents(ctx))
	return list, wrap("list codes", err, nil)
}

// CreateReferral writes the referral, bumps the code's counter and stamps the
// referred user atomically.
func (s *Store) CreateReferral(ctx context.Context, ref *models.Referral) error {
	userRef := s.users().Doc(ref.ReferredUserID)
	refRef := s.referrals().Doc(ref.ID)
	codeRef := s.codes().Doc(ref.ReferrerCode)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		userSnap, err := tx.Get(userRef)
		found := err == nil
		if err != nil && !isNotFound(err) {
			return err
		}
		if found {
			var u models.User
			if err := userSnap.DataTo(&u); err != nil {
				return err
			}
			if u.WasReferred() {
				return domain.ErrAlreadyReferred
			}
		}
		if _, err := tx.Get(refRef); err == nil {
			return domain.ErrAlreadyReferred
		} else if !isNotFound(err) {
			return err
		}
		codeSnap, err := tx.Get(codeRef)
		if isNotFound(err) {
			return domain.ErrInvalidCode
		}
		if err != nil {
			return err
		}
		var rc models.ReferralCode
		if err := codeSnap.DataTo(&rc); err != nil {
			return err
		}
		if !rc.IsActive {
			return domain.ErrInvalidCode
		}

		if err := tx.Create(refRef, ref); err != nil {
			return err
		}
		if err := tx.Update(codeRef, []firestore.Update{{Path: "totalReferrals", Value: firestore.Increment(1)}}); err != nil {
			return err
		}
		if !found {
			now := time.Now().UTC()
			return tx.Create(userRef, models.User{
				ID:             ref.ReferredUserID,
				Email:          ref.ReferredUserEmail,
				Name:           ref.ReferredUserName,
				Role:           domain.RoleUser,
				ReferredBy:     ref.ReferrerID,
				ReferredByCode: ref.ReferrerCode,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "referredBy", Value: ref.ReferrerID},
			{Path: "referredByCode", Value: ref.ReferrerCode},
		})
	})
	return wrap("create referral", err, nil)
}

func (s *Store) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	snap, err := s.referrals().Doc(id).Get(ctx)
	if err != nil {
		return nil, wrap("get referral", err, domain.ErrNotFound)
	}
	var ref models.Referral
	if err := snap.DataTo(&ref); err != nil {
		return nil, domain.Persistence("decode referral", err)
	}
	return &ref, nil
}

func (s *Store) ListReferralsByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	q := s.referrals().Where("referrerId", "==", referrerID).OrderBy("createdAt", firestore.Desc)
	list, err := all[models.Referral](q.Documents(ctx))
	return list, wrap("list referrals by referrer", err, nil)
}

// ListReferrals pages through the ledger newest first, using the document id
// to break createdAt ties.
func (s *Store) ListReferrals(ctx context.Context, q models.ReferralQuery) (*models.ReferralPage, error) {
	q.Limit = pagination.ClampLimit(q.Limit, domain.MaxListLimit)
	query := s.referrals().Query
	if q.Status != "" {
		query = query.Where("status", "==", q.Status)
	}
	if q.Paid != nil {
		query = query.Where("commissionPaid", "==", *q.Paid)
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if q.After != nil {
		at, err := q.After.Time()
		if err != nil {
			return nil, domain.ErrBadPageToken
		}
		query = query.StartAfter(at, q.After.ID)
	}
	items, err := all[models.Referral](query.Limit(q.Limit + 1).Documents(ctx))
	if err != nil {
		return nil, wrap("list referrals", err, nil)
	}
	page := &models.ReferralPage{Items: items}
	if len(items) > q.Limit {
		page.Items = items[:q.Limit]
		page.Next = models.CursorOf(&page.Items[q.Limit-1])
	}
	if page.Items == nil {
		page.Items = []models.Referral{}
	}
	return page, nil
}

// CompleteReferral settles a pending referral. It reports false when the
// referral was no longer pending.
func (s *Store) CompleteReferral(ctx context.Context, st models.Settlement) (bool, error) {
	refRef := s.referrals().Doc(st.ReferralID)
	codeRef := s.codes().Doc(st.ReferrerCode)
	txRef := s.transactions().Doc(st.Transaction.ID)
	applied := false
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false
		snap, err := tx.Get(refRef)
		if err != nil {
			return err
		}
		var ref models.Referral
		if err := snap.DataTo(&ref); err != nil {
			return err
		}
		if !ref.IsPending() {
			return nil
		}
		if err := tx.Update(refRef, []firestore.Update{
			{Path: "status", Value: domain.ReferralStatusCompleted},
			{Path: "completedAt", Value: st.CompletedAt},
			{Path: "commissionCents", Value: st.CommissionCents},
			{Path: "orderValueCents", Value: st.OrderValueCents},
			{Path: "orderId", Value: st.OrderID},
		}); err != nil {
			return err
		}
		if err := tx.Update(codeRef, []firestore.Update{
			{Path: "totalEarningsCents", Value: firestore.Increment(st.CommissionCents)},
		}); err != nil {
			return err
		}
		applied = true
		return tx.Create(txRef, st.Transaction)
	})
	if err != nil {
		return false, wrap("complete referral", err, domain.ErrNotFound)
	}
	return applied, nil
}

// MarkPaid flags a completed, unpaid referral as paid.
func (s *Store) MarkPaid(ctx context.Context, id string, at time.Time) (*models.Referral, error) {
	refRef := s.referrals().Doc(id)
	var out models.Referral
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(refRef)
		if err != nil {
			return err
		}
		if err := snap.DataTo(&out); err != nil {
			return err
		}
		if !out.Payable() {
			return domain.ErrInvalidState
		}
		out.CommissionPaid = true
		out.PaidAt = &at
		return tx.Update(refRef, []firestore.Update{
			{Path: "commissionPaid", Value: true},
			{Path: "paidAt", Value: at},
		})
	})
	if err != nil {
		return nil, wrap("mark paid", err, domain.ErrNotFound)
	}
	return &out, nil
}

func (s *Store) ListTransactions(ctx context.Context, referralID string) ([]models.CommissionTransaction, error) {
	q := s.transactions().Where("referralId", "==", referralID).OrderBy("createdAt", firestore.Asc)
	list, err := all[models.CommissionTransaction](q.Documents(ctx))
	return list, wrap("list transactions", err, nil)
}

// ReferralTotals recomputes per-code counters by scanning the referrals.
func (s *Store) ReferralTotals(ctx context.Context) (map[string]models.CodeTotals, error) {
	refs, err := all[models.Referral](s.referrals().Documents(ctx))
	if err != nil {
		return nil, wrap("referral totals", err, nil)
	}
	out := make(map[string]models.CodeTotals)
	for i := range refs {
		t := out[refs[i].ReferrerCode]
		t.Referrals++
		if refs[i].IsCompleted() {
			t.EarningsCents += refs[i].CommissionCents
		}
		out[refs[i].ReferrerCode] = t
	}
	return out, nil
}
