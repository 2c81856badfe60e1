package models

import (
	"fmt"
	"time"

	"truvamate/internal/domain"
)

// ReferralCode is a unique invite code belonging to a user.
// Each user has at most one referral code. Counters only grow.
type ReferralCode struct {
	Code               string    `gorm:"primaryKey;size:20" json:"code" firestore:"code"`
	UserID             string    `gorm:"uniqueIndex;size:128;not null" json:"user_id" firestore:"userId"`
	TotalReferrals     int64     `gorm:"not null" json:"total_referrals" firestore:"totalReferrals"`
	TotalEarningsCents int64     `gorm:"not null" json:"total_earnings_cents" firestore:"totalEarningsCents"`
	IsActive           bool      `gorm:"not null" json:"is_active" firestore:"isActive"`
	CreatedAt          time.Time `json:"created_at" firestore:"createdAt"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

// Referral tracks the relationship between a referrer and a referred user.
// The ID is "<referrerId>_<referredUserId>" and a user can only be referred once.
type Referral struct {
	ID                string     `gorm:"primaryKey;size:260" json:"id" firestore:"id"`
	ReferrerID        string     `gorm:"size:128;not null;index" json:"referrer_id" firestore:"referrerId"`
	ReferrerCode      string     `gorm:"size:20;not null;index" json:"referrer_code" firestore:"referrerCode"`
	ReferredUserID    string     `gorm:"size:128;not null;uniqueIndex" json:"referred_user_id" firestore:"referredUserId"`
	ReferredUserEmail string     `gorm:"size:255" json:"referred_user_email" firestore:"referredUserEmail"`
	ReferredUserName  string     `gorm:"size:255" json:"referred_user_name" firestore:"referredUserName"`
	Status            string     `gorm:"size:20;not null;index" json:"status" firestore:"status"`
	CommissionCents   int64      `gorm:"not null" json:"commission_cents" firestore:"commissionCents"`
	CommissionPaid    bool       `gorm:"not null;index" json:"commission_paid" firestore:"commissionPaid"`
	OrderValueCents   int64      `json:"order_value_cents,omitempty" firestore:"orderValueCents,omitempty"`
	OrderID           string     `gorm:"size:128" json:"order_id,omitempty" firestore:"orderId,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at" firestore:"createdAt"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
}

func (Referral) TableName() string { return "referrals" }

// ReferralID builds the composite key of a referral.
func ReferralID(referrerID, referredUserID string) string {
	return fmt.Sprintf("%s_%s", referrerID, referredUserID)
}

func (r *Referral) IsPending() bool   { return r.Status == domain.ReferralStatusPending }
func (r *Referral) IsCompleted() bool { return r.Status == domain.ReferralStatusCompleted }

// Payable reports whether the commission can be marked paid.
func (r *Referral) Payable() bool { return r.IsCompleted() && !r.CommissionPaid }

// CommissionTransaction is an append-only record of a settled commission.
type CommissionTransaction struct {
	ID              string    `gorm:"primaryKey;size:320" json:"id" firestore:"id"`
	ReferralID      string    `gorm:"size:260;not null;index" json:"referral_id" firestore:"referralId"`
	ReferrerID      string    `gorm:"size:128;not null;index" json:"referrer_id" firestore:"referrerId"`
	AmountCents     int64     `gorm:"not null" json:"amount_cents" firestore:"amountCents"`
	Type            string    `gorm:"size:30;not null" json:"type" firestore:"type"`
	Status          string    `gorm:"size:20;not null" json:"status" firestore:"status"`
	OrderValueCents int64     `json:"order_value_cents" firestore:"orderValueCents"`
	OrderID         string    `gorm:"size:128" json:"order_id,omitempty" firestore:"orderId,omitempty"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
}

func (CommissionTransaction) TableName() string { return "referral_transactions" }
