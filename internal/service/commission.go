package service

import (
	"math"

	"truvamate/internal/models"
)

// ComputeCommission returns round(orderValue * rate / 100) capped at the
// per-referral maximum. All amounts are minor units.
func ComputeCommission(orderValueCents int64, s models.ReferralSettings) int64 {
	if orderValueCents <= 0 || s.CommissionRate <= 0 {
		return 0
	}
	commission := int64(math.Round(float64(orderValueCents) * s.CommissionRate / 100))
	if commission > s.MaxCommissionCents {
		commission = s.MaxCommissionCents
	}
	if commission < 0 {
		return 0
	}
	return commission
}

// Qualifies reports whether an order is large enough to settle a referral.
func Qualifies(orderValueCents int64, s models.ReferralSettings) bool {
	return orderValueCents >= s.MinOrderValueCents
}
