package repository

import (
	"context"
	"time"

	"truvamate/internal/domain"
	"truvamate/internal/models"
	"truvamate/pkg/pagination"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GetCode returns the ReferralCode record for code, active or not.
func (r *ReferralRepository) GetCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&rc).Error
	if err != nil {
		return nil, wrap("get code", err, domain.ErrNotFound)
	}
	return &rc, nil
}

func (r *ReferralRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCode{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, wrap("code exists", err, nil)
	}
	return count > 0, nil
}

// AssignCode stores rc and points its owner at it in one transaction. When the
// owner already holds a code that code is returned instead. A code collision
// yields domain.ErrCodeTaken.
func (r *ReferralRepository) AssignCode(ctx context.Context, rc *models.ReferralCode) (*models.ReferralCode, error) {
	var out *models.ReferralCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Where("id = ?", rc.UserID).First(&u).Error; err != nil {
			return err
		}
		var owned models.ReferralCode
		err := tx.Where("user_id = ?", rc.UserID).First(&owned).Error
		switch {
		case err == nil:
			if u.ReferralCode != owned.Code {
				if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Update("referral_code", owned.Code).Error; err != nil {
					return err
				}
			}
			out = &owned
			return nil
		case !isNotFound(err):
			return err
		}
		if err := tx.Create(rc).Error; err != nil {
			if IsDuplicateKeyErr(err) {
				return domain.ErrCodeTaken
			}
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Update("referral_code", rc.Code).Error; err != nil {
			return err
		}
		out = rc
		return nil
	})
	if err != nil {
		return nil, wrap("assign code", err, domain.ErrUserNotFound)
	}
	return out, nil
}

func (r *ReferralRepository) ListCodes(ctx context.Context) ([]models.ReferralCode, error) {
	var list []models.ReferralCode
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&list).Error
	return list, wrap("list codes", err, nil)
}

// CreateReferral inserts a pending referral, bumps the code's referral counter
// and stamps the referred user in one transaction. The referred user row is
// created when identity sync has not written it yet.
func (r *ReferralRepository) CreateReferral(ctx context.Context, ref *models.Referral) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		err := tx.Where("id = ?", ref.ReferredUserID).First(&u).Error
		found := err == nil
		if err != nil && !isNotFound(err) {
			return err
		}
		if found && u.WasReferred() {
			return domain.ErrAlreadyReferred
		}

		if err := tx.Create(ref).Error; err != nil {
			if IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyReferred
			}
			return err
		}

		res := tx.Model(&models.ReferralCode{}).
			Where("code = ? AND is_active = ?", ref.ReferrerCode, true).
			UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidCode
		}

		if !found {
			return tx.Create(&models.User{
				ID:             ref.ReferredUserID,
				Email:          ref.ReferredUserEmail,
				Name:           ref.ReferredUserName,
				Role:           domain.RoleUser,
				ReferredBy:     ref.ReferrerID,
				ReferredByCode: ref.ReferrerCode,
			}).Error
		}
		res = tx.Model(&models.User{}).
			Where("id = ? AND (referred_by = ? OR referred_by IS NULL)", u.ID, "").
			Updates(map[string]interface{}{
				"referred_by":      ref.ReferrerID,
				"referred_by_code": ref.ReferrerCode,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyReferred
		}
		return nil
	})
	return wrap("create referral", err, nil)
}

func (r *ReferralRepository) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ref).Error
	if err != nil {
		return nil, wrap("get referral", err, domain.ErrNotFound)
	}
	return &ref, nil
}

// ListReferralsByReferrer returns every referral made by referrerID, newest first.
func (r *ReferralRepository) ListReferralsByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, wrap("list referrals by referrer", err, nil)
}

// ListReferrals returns one page of referrals ordered by created_at desc, id desc.
func (r *ReferralRepository) ListReferrals(ctx context.Context, q models.ReferralQuery) (*models.ReferralPage, error) {
	db := r.db.WithContext(ctx).Model(&models.Referral{})
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Paid != nil {
		db = db.Where("commission_paid = ?", *q.Paid)
	}
	if q.After != nil {
		at, err := q.After.Time()
		if err != nil {
			return nil, domain.ErrBadPageToken
		}
		db = db.Where("(created_at < ? OR (created_at = ? AND id < ?))", at, at, q.After.ID)
	}
	limit := pagination.ClampLimit(q.Limit, domain.MaxListLimit)

	var list []models.Referral
	if err := db.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&list).Error; err != nil {
		return nil, wrap("list referrals", err, nil)
	}
	page := &models.ReferralPage{Items: list}
	if len(list) > limit {
		page.Items = list[:limit]
		page.Next = models.CursorOf(&page.Items[limit-1])
	}
	return page, nil
}

// CompleteReferral applies a settlement if the referral is still pending.
// It reports false, without writing anything, when another settlement won.
func (r *ReferralRepository) CompleteReferral(ctx context.Context, s models.Settlement) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Referral{}).
			Where("id = ? AND status = ?", s.ReferralID, domain.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":            domain.ReferralStatusCompleted,
				"completed_at":      s.CompletedAt,
				"commission_cents":  s.CommissionCents,
				"order_value_cents": s.OrderValueCents,
				"order_id":          s.OrderID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&models.ReferralCode{}).
			Where("code = ?", s.ReferrerCode).
			UpdateColumn("total_earnings_cents", gorm.Expr("total_earnings_cents + ?", s.CommissionCents)).Error; err != nil {
			return err
		}
		txn := s.Transaction
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, wrap("complete referral", err, nil)
	}
	return applied, nil
}

// MarkPaid flags the commission of a completed, unpaid referral as paid.
func (r *ReferralRepository) MarkPaid(ctx context.Context, id string, at time.Time) (*models.Referral, error) {
	var out models.Referral
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Referral{}).
			Where("id = ? AND status = ? AND commission_paid = ?", id, domain.ReferralStatusCompleted, false).
			Updates(map[string]interface{}{
				"commission_paid": true,
				"paid_at":         at,
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, wrap("mark paid", err, domain.ErrNotFound)
	}
	return &out, nil
}

func (r *ReferralRepository) ListTransactions(ctx context.Context, referralID string) ([]models.CommissionTransaction, error) {
	var list []models.CommissionTransaction
	err := r.db.WithContext(ctx).Where("referral_id = ?", referralID).Order("created_at ASC").Find(&list).Error
	return list, wrap("list transactions", err, nil)
}

// ReferralTotals recomputes per-code counters from the referrals table.
func (r *ReferralRepository) ReferralTotals(ctx context.Context) (map[string]models.CodeTotals, error) {
	var rows []struct {
		ReferrerCode  string
		Referrals     int64
		EarningsCents int64
	}
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("referrer_code, COUNT(*) AS referrals, COALESCE(SUM(CASE WHEN status = ? THEN commission_cents ELSE 0 END), 0) AS earnings_cents",
			domain.ReferralStatusCompleted).
		Group("referrer_code").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("referral totals", err, nil)
	}
	out := make(map[string]models.CodeTotals, len(rows))
	for _, row := range rows {
		out[row.ReferrerCode] = models.CodeTotals{Referrals: row.Referrals, EarningsCents: row.EarningsCents}
	}
	return out, nil
}
