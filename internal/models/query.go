package models

import (
	"time"

	"truvamate/pkg/pagination"
)

// ReferralQuery selects a page of referrals ordered by created_at desc, id desc.
type ReferralQuery struct {
	Status string
	Paid   *bool
	Limit  int
	After  *pagination.Cursor
}

// ReferralPage is one page of a ReferralQuery. Next is nil on the last page.
type ReferralPage struct {
	Items []Referral
	Next  *pagination.Cursor
}

// Settlement carries everything CompleteReferral writes in one transaction.
type Settlement struct {
	ReferralID      string
	ReferrerCode    string
	CommissionCents int64
	OrderValueCents int64
	OrderID         string
	CompletedAt     time.Time
	Transaction     CommissionTransaction
}

// CursorOf returns the pagination cursor pointing at r.
func CursorOf(r *Referral) *pagination.Cursor {
	return &pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano)}
}

// CodeTotals are counters recomputed from the referrals of one code.
type CodeTotals struct {
	Referrals     int64
	EarningsCents int64
}
