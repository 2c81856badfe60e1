package domain

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Referral statuses. A referral moves pending -> completed exactly once;
// cancelled is reserved and never produced by the ledger itself.
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusCancelled = "cancelled"
)

const (
	TxTypeCommission = "commission"
	TxStatusPending  = "pending"
)

// Collection (document store) and setting keys.
const (
	CollectionUsers        = "users"
	CollectionCodes        = "referralCodes"
	CollectionReferrals    = "referrals"
	CollectionSettings     = "settings"
	CollectionTransactions = "referralTransactions"

	SettingReferral = "referral"
)

// Ledger event types published on the admin feed.
const (
	EventCodeIssued         = "referral.code_issued"
	EventReferralRegistered = "referral.registered"
	EventReferralSettled    = "referral.settled"
	EventCommissionPaid     = "commission.paid"
	EventSettingsUpdated    = "referral.settings_updated"
)

// Settlement outcomes.
const (
	SettleSettled      = "settled"
	SettleNotReferred  = "not_referred"
	SettleNotPending   = "not_pending"
	SettleBelowMinimum = "below_minimum"
)

const (
	CodeLength       = 12
	CodeOwnerPrefix  = 4
	CodeRandomLength = 6
	CodeMaxAttempts  = 10
)

// MaxListLimit caps admin listing pages.
const MaxListLimit = 100
