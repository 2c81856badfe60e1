package models

import "time"

// User is the ledger's view of a marketplace account. Accounts are owned by
// the identity provider; the ledger only keeps what referral flows need.
type User struct {
	ID             string    `gorm:"primaryKey;size:128" json:"id" firestore:"id"`
	Email          string    `gorm:"size:255;index" json:"email" firestore:"email"`
	Name           string    `gorm:"size:255" json:"name" firestore:"name"`
	Role           string    `gorm:"size:20;not null;index" json:"role" firestore:"role"` // user | seller | admin
	ReferralCode   string    `gorm:"size:20" json:"referral_code,omitempty" firestore:"referralCode,omitempty"`
	ReferredBy     string    `gorm:"size:128;index" json:"referred_by,omitempty" firestore:"referredBy,omitempty"`
	ReferredByCode string    `gorm:"size:20" json:"referred_by_code,omitempty" firestore:"referredByCode,omitempty"`
	FCMToken       string    `gorm:"size:512" json:"-" firestore:"fcmToken,omitempty"` // For push notifications
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) WasReferred() bool { return u.ReferredBy != "" }
func (u *User) HasCode() bool     { return u.ReferralCode != "" }

// DisplayName falls back to the email when no name was synced.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
