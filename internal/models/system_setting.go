package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemSetting stores admin-configurable settings as JSON documents keyed by name.
type SystemSetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }

// ReferralSettings controls commission computation. Amounts are in minor units.
type ReferralSettings struct {
	CommissionRate       float64 `json:"commission_rate" firestore:"commissionRate"` // percent, 0-100
	MinOrderValueCents   int64   `json:"min_order_value_cents" firestore:"minOrderValueCents"`
	RequireFirstPurchase bool    `json:"require_first_purchase" firestore:"requireFirstPurchase"`
	MaxCommissionCents   int64   `json:"max_commission_cents" firestore:"maxCommissionCents"`
}
