package models

import "time"

// LedgerEvent is pushed to admin feeds whenever the ledger changes.
type LedgerEvent struct {
	Type        string    `json:"type"`
	ReferralID  string    `json:"referral_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Code        string    `json:"code,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	At          time.Time `json:"at"`
}
