package service

import (
	"truvamate/internal/domain"
	"truvamate/internal/models"
)

// Stats summarises one referrer's referrals.
type Stats struct {
	TotalReferrals       int   `json:"total_referrals"`
	CompletedReferrals   int   `json:"completed_referrals"`
	PendingReferrals     int   `json:"pending_referrals"`
	CancelledReferrals   int   `json:"cancelled_referrals"`
	TotalEarningsCents   int64 `json:"total_earnings_cents"`
	PendingEarningsCents int64 `json:"pending_earnings_cents"`
	PaidEarningsCents    int64 `json:"paid_earnings_cents"`
}

// ComputeStats aggregates a referral set. It has no side effects.
func ComputeStats(refs []models.Referral) Stats {
	var s Stats
	for i := range refs {
		r := &refs[i]
		s.TotalReferrals++
		switch r.Status {
		case domain.ReferralStatusCompleted:
			s.CompletedReferrals++
		case domain.ReferralStatusPending:
			s.PendingReferrals++
		case domain.ReferralStatusCancelled:
			s.CancelledReferrals++
		}
		s.TotalEarningsCents += r.CommissionCents
		if r.CommissionPaid {
			s.PaidEarningsCents += r.CommissionCents
		} else if r.IsCompleted() {
			s.PendingEarningsCents += r.CommissionCents
		}
	}
	return s
}

// ListSummary summarises an admin listing page.
type ListSummary struct {
	Total                  int   `json:"total"`
	Paid                   int   `json:"paid"`
	Unpaid                 int   `json:"unpaid"`
	TotalCommissionCents   int64 `json:"total_commission_cents"`
	PaidCommissionCents    int64 `json:"paid_commission_cents"`
	PendingCommissionCents int64 `json:"pending_commission_cents"`
}

func summarize(entries []ReferralEntry) ListSummary {
	var s ListSummary
	for i := range entries {
		r := &entries[i].Referral
		s.Total++
		s.TotalCommissionCents += r.CommissionCents
		if r.CommissionPaid {
			s.Paid++
			s.PaidCommissionCents += r.CommissionCents
		} else {
			s.Unpaid++
			s.PendingCommissionCents += r.CommissionCents
		}
	}
	return s
}
