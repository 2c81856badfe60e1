package service

import (
	"context"
	"time"

	"truvamate/internal/models"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpsertUser(ctx context.Context, u *models.User) error
	SetFCMToken(ctx context.Context, userID, token string) error
}

type CodeStore interface {
	GetCode(ctx context.Context, code string) (*models.ReferralCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	AssignCode(ctx context.Context, rc *models.ReferralCode) (*models.ReferralCode, error)
	ListCodes(ctx context.Context) ([]models.ReferralCode, error)
}

type LedgerStore interface {
	CreateReferral(ctx context.Context, ref *models.Referral) error
	GetReferral(ctx context.Context, id string) (*models.Referral, error)
	ListReferralsByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error)
	ListReferrals(ctx context.Context, q models.ReferralQuery) (*models.ReferralPage, error)
	CompleteReferral(ctx context.Context, s models.Settlement) (bool, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (*models.Referral, error)
	ListTransactions(ctx context.Context, referralID string) ([]models.CommissionTransaction, error)
	ReferralTotals(ctx context.Context) (map[string]models.CodeTotals, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.ReferralSettings, error)
	SaveSettings(ctx context.Context, s models.ReferralSettings) error
}

// ReferralStore is everything the ledger persists. Implementations must make
// AssignCode, CreateReferral, CompleteReferral and MarkPaid atomic.
type ReferralStore interface {
	UserStore
	CodeStore
	LedgerStore
	SettingsStore
}

// Locker guards settlement of one referral across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// Notifier tells a referrer that a commission was credited.
type Notifier interface {
	NotifyCommission(ctx context.Context, referrer *models.User, ref *models.Referral) error
}

// EventPublisher fans ledger events out to live subscribers.
type EventPublisher interface {
	Publish(evt models.LedgerEvent)
}

type Authorizer interface {
	Authorize(ctx context.Context, role, object, action string) error
}
