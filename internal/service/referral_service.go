package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"truvamate/internal/auth"
	"truvamate/internal/authz"
	"truvamate/internal/domain"
	"truvamate/internal/metrics"
	"truvamate/internal/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockWait  = 2 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

// ReferralService runs the referral ledger: code issuance, registration,
// commission settlement, payout marking and reporting.
type ReferralService struct {
	store     ReferralStore
	settings  *SettingsProvider
	locker    Locker
	lockTTL   time.Duration
	lockWait  time.Duration
	notifier  Notifier
	events    EventPublisher
	authz     Authorizer
	metrics   *metrics.Metrics
	publicURL string
	log       *zap.Logger
	now       func() time.Time
}

// Params wires a ReferralService. Only Store is required.
type Params struct {
	Store     ReferralStore
	Defaults  models.ReferralSettings
	Locker    Locker
	LockTTL   time.Duration
	LockWait  time.Duration
	Notifier  Notifier
	Events    EventPublisher
	Authz     Authorizer
	Metrics   *metrics.Metrics
	PublicURL string
	Log       *zap.Logger
	Clock     func() time.Time
}

func NewReferralService(p Params) *ReferralService {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := p.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	wait := p.LockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &ReferralService{
		store:     p.Store,
		settings:  NewSettingsProvider(p.Store, p.Defaults, log),
		locker:    p.Locker,
		lockTTL:   ttl,
		lockWait:  wait,
		notifier:  p.Notifier,
		events:    p.Events,
		authz:     p.Authz,
		metrics:   p.Metrics,
		publicURL: p.PublicURL,
		log:       log.Named("referral.service"),
		now:       now,
	}
}

// SyncIdentity records the identity provider's view of the caller.
func (s *ReferralService) SyncIdentity(ctx context.Context, id *auth.Identity) error {
	return s.store.UpsertUser(ctx, &models.User{
		ID:    id.UserID,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
	})
}

// Me returns the caller's synced profile.
func (s *ReferralService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *ReferralService) SetFCMToken(ctx context.Context, userID, token string) error {
	return s.store.SetFCMToken(ctx, userID, token)
}

// EnsureCode returns the user's referral code, issuing one on first use.
func (s *ReferralService) EnsureCode(ctx context.Context, userID string) (*models.ReferralCode, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.HasCode() {
		rc, err := s.store.GetCode(ctx, u.ReferralCode)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.log.Warn("referral code record missing, issuing a new one",
			zap.String("user_id", userID), zap.String("code", u.ReferralCode))
	}

	for attempt := 0; attempt < domain.CodeMaxAttempts; attempt++ {
		code, err := GenerateCode(userID, s.now())
		if err != nil {
			return nil, err
		}
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		rc, err := s.store.AssignCode(ctx, &models.ReferralCode{
			Code:      code,
			UserID:    userID,
			IsActive:  true,
			CreatedAt: s.now(),
		})
		if errors.Is(err, domain.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rc.Code == code {
			s.metrics.CodeIssued()
			s.publish(models.LedgerEvent{Type: domain.EventCodeIssued, UserID: userID, Code: code})
			s.log.Info("referral code issued", zap.String("user_id", userID), zap.String("code", code))
		}
		return rc, nil
	}
	return nil, domain.ErrCodeExhausted
}

// ValidateCode reports whether code exists and is active. It never fails:
// storage errors count as invalid.
func (s *ReferralService) ValidateCode(ctx context.Context, code string) bool {
	code = NormalizeCode(code)
	if code == "" {
		return false
	}
	rc, err := s.store.GetCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("validate code failed", zap.String("code", code), zap.Error(err))
		}
		return false
	}
	return rc.IsActive
}

// Register links newUserID to the owner of code with a pending referral.
func (s *ReferralService) Register(ctx context.Context, code, newUserID, email, name string) (*models.Referral, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	rc, err := s.store.GetCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}
	if !rc.IsActive {
		return nil, domain.ErrInvalidCode
	}
	if rc.UserID == newUserID {
		return nil, domain.ErrSelfReferral
	}

	ref := &models.Referral{
		ID:                models.ReferralID(rc.UserID, newUserID),
		ReferrerID:        rc.UserID,
		ReferrerCode:      rc.Code,
		ReferredUserID:    newUserID,
		ReferredUserEmail: email,
		ReferredUserName:  name,
		Status:            domain.ReferralStatusPending,
		CreatedAt:         s.now(),
	}
	if err := s.store.CreateReferral(ctx, ref); err != nil {
		return nil, err
	}

	s.metrics.ReferralRegistered()
	s.publish(models.LedgerEvent{Type: domain.EventReferralRegistered, ReferralID: ref.ID, UserID: rc.UserID, Code: rc.Code})
	s.log.Info("referral registered",
		zap.String("referral_id", ref.ID), zap.String("referrer_id", rc.UserID), zap.String("code", rc.Code))
	return ref, nil
}

// OrderCompleted is the order system's notification of a finished purchase.
type OrderCompleted struct {
	UserID          string
	OrderID         string
	OrderValueCents int64
}

type SettleResult struct {
	Outcome         string `json:"outcome"`
	ReferralID      string `json:"referral_id,omitempty"`
	CommissionCents int64  `json:"commission_cents,omitempty"`
}

// Settle credits the referrer of evt.UserID once the referred user completes a
// qualifying order. Repeated or concurrent calls for the same referral settle
// it at most once. Storage failures are returned so the caller can retry.
func (s *ReferralService) Settle(ctx context.Context, evt OrderCompleted) (*SettleResult, error) {
	res, err := s.settle(ctx, evt)
	if err != nil {
		s.metrics.Settlement("error", 0)
		s.log.Error("settlement failed", zap.String("user_id", evt.UserID), zap.String("order_id", evt.OrderID), zap.Error(err))
		return nil, err
	}
	s.metrics.Settlement(res.Outcome, res.CommissionCents)
	return res, nil
}

func (s *ReferralService) settle(ctx context.Context, evt OrderCompleted) (*SettleResult, error) {
	u, err := s.store.GetUser(ctx, evt.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return &SettleResult{Outcome: domain.SettleNotReferred}, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.WasReferred() {
		return &SettleResult{Outcome: domain.SettleNotReferred}, nil
	}
	refID := models.ReferralID(u.ReferredBy, u.ID)

	if release := s.lockSettlement(ctx, refID); release != nil {
		defer release()
	}

	ref, err := s.store.GetReferral(ctx, refID)
	if errors.Is(err, domain.ErrNotFound) {
		return &SettleResult{Outcome: domain.SettleNotReferred}, nil
	}
	if err != nil {
		return nil, err
	}
	if !ref.IsPending() {
		return &SettleResult{Outcome: domain.SettleNotPending, ReferralID: ref.ID}, nil
	}

	settings, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !Qualifies(evt.OrderValueCents, settings) {
		s.log.Info("order below minimum, referral stays pending",
			zap.String("referral_id", ref.ID), zap.Int64("order_value_cents", evt.OrderValueCents))
		return &SettleResult{Outcome: domain.SettleBelowMinimum, ReferralID: ref.ID}, nil
	}

	commission := ComputeCommission(evt.OrderValueCents, settings)
	now := s.now()
	applied, err := s.store.CompleteReferral(ctx, models.Settlement{
		ReferralID:      ref.ID,
		ReferrerCode:    ref.ReferrerCode,
		CommissionCents: commission,
		OrderValueCents: evt.OrderValueCents,
		OrderID:         evt.OrderID,
		CompletedAt:     now,
		Transaction: models.CommissionTransaction{
			ID:              fmt.Sprintf("commission_%s_%s", ref.ID, ulid.Make()),
			ReferralID:      ref.ID,
			ReferrerID:      ref.ReferrerID,
			AmountCents:     commission,
			Type:            domain.TxTypeCommission,
			Status:          domain.TxStatusPending,
			OrderValueCents: evt.OrderValueCents,
			OrderID:         evt.OrderID,
			CreatedAt:       now,
		},
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return &SettleResult{Outcome: domain.SettleNotPending, ReferralID: ref.ID}, nil
	}

	ref.Status = domain.ReferralStatusCompleted
	ref.CompletedAt = &now
	ref.CommissionCents = commission
	ref.OrderValueCents = evt.OrderValueCents
	ref.OrderID = evt.OrderID

	s.publish(models.LedgerEvent{Type: domain.EventReferralSettled, ReferralID: ref.ID, UserID: ref.ReferrerID, Code: ref.ReferrerCode, AmountCents: commission})
	s.log.Info("commission settled",
		zap.String("referral_id", ref.ID), zap.Int64("commission_cents", commission), zap.String("order_id", evt.OrderID))
	s.notifyReferrer(ctx, ref)
	return &SettleResult{Outcome: domain.SettleSettled, ReferralID: ref.ID, CommissionCents: commission}, nil
}

// lockSettlement serializes settlement of refID across processes. It waits up
// to lockWait for a busy lock and then proceeds unlocked, leaving the
// conditional pending -> completed update to decide; a delivery is never
// dropped because another order holds the lock. The returned func releases
// the lock and is nil when none was taken.
func (s *ReferralService) lockSettlement(ctx context.Context, refID string) func() {
	if s.locker == nil {
		return nil
	}
	key := "referral:settle:" + refID
	deadline := time.Now().Add(s.lockWait)
	for {
		token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			s.log.Warn("settle lock unavailable", zap.String("referral_id", refID), zap.Error(err))
			return nil
		}
		if ok {
			return func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("settle lock release failed", zap.String("referral_id", refID), zap.Error(err))
				}
			}
		}
		if !time.Now().Before(deadline) {
			s.log.Info("settle lock busy, continuing without it", zap.String("referral_id", refID))
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(lockPollInterval):
		}
	}
}

// MarkPaid records the payout of a completed referral's commission. Admin only.
func (s *ReferralService) MarkPaid(ctx context.Context, referralID string) (*models.Referral, error) {
	if err := s.authorize(ctx, authz.ObjectReferral, authz.ActionReferralMarkPaid); err != nil {
		return nil, err
	}
	ref, err := s.store.MarkPaid(ctx, referralID, s.now())
	if err != nil {
		return nil, err
	}
	s.metrics.CommissionPaid()
	s.publish(models.LedgerEvent{Type: domain.EventCommissionPaid, ReferralID: ref.ID, UserID: ref.ReferrerID, AmountCents: ref.CommissionCents})
	s.log.Info("commission marked paid", zap.String("referral_id", ref.ID), zap.Int64("commission_cents", ref.CommissionCents))
	return ref, nil
}

// UserReferrals lists the referrals made by userID, newest first. Storage
// failures yield an empty list.
func (s *ReferralService) UserReferrals(ctx context.Context, userID string) []models.Referral {
	refs, err := s.store.ListReferralsByReferrer(ctx, userID)
	if err != nil {
		s.log.Error("list user referrals failed", zap.String("user_id", userID), zap.Error(err))
		return []models.Referral{}
	}
	if refs == nil {
		refs = []models.Referral{}
	}
	return refs
}

// Stats aggregates userID's referrals. Storage failures yield zero stats.
func (s *ReferralService) Stats(ctx context.Context, userID string) Stats {
	return ComputeStats(s.UserReferrals(ctx, userID))
}

// ReferralDetail returns a referral with its commission transactions. Admin only.
func (s *ReferralService) ReferralDetail(ctx context.Context, referralID string) (*models.Referral, []models.CommissionTransaction, error) {
	if err := s.authorize(ctx, authz.ObjectReferral, authz.ActionReferralList); err != nil {
		return nil, nil, err
	}
	ref, err := s.store.GetReferral(ctx, referralID)
	if err != nil {
		return nil, nil, err
	}
	txns, err := s.store.ListTransactions(ctx, referralID)
	if err != nil {
		return nil, nil, err
	}
	return ref, txns, nil
}

// Settings returns the effective referral settings. Admin only.
func (s *ReferralService) Settings(ctx context.Context) (models.ReferralSettings, error) {
	if err := s.authorize(ctx, authz.ObjectSettings, authz.ActionSettingsView); err != nil {
		return models.ReferralSettings{}, err
	}
	return s.settings.Current(ctx), nil
}

// UpdateSettings validates and stores new referral settings. Admin only.
func (s *ReferralService) UpdateSettings(ctx context.Context, in models.ReferralSettings) (models.ReferralSettings, error) {
	if err := s.authorize(ctx, authz.ObjectSettings, authz.ActionSettingsUpdate); err != nil {
		return models.ReferralSettings{}, err
	}
	if err := ValidateSettings(in); err != nil {
		return models.ReferralSettings{}, err
	}
	if err := s.store.SaveSettings(ctx, in); err != nil {
		return models.ReferralSettings{}, err
	}
	s.publish(models.LedgerEvent{Type: domain.EventSettingsUpdated})
	s.log.Info("referral settings updated",
		zap.Float64("commission_rate", in.CommissionRate),
		zap.Int64("min_order_value_cents", in.MinOrderValueCents),
		zap.Int64("max_commission_cents", in.MaxCommissionCents))
	return in, nil
}

// AuthorizeFeed checks that the caller may watch live ledger events.
func (s *ReferralService) AuthorizeFeed(ctx context.Context) error {
	return s.authorize(ctx, authz.ObjectLedgerFeed, authz.ActionFeedSubscribe)
}

func (s *ReferralService) ShareLinks(code string) ShareLinks {
	return BuildShareLinks(s.publicURL, code)
}

func (s *ReferralService) authorize(ctx context.Context, object, action string) error {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if s.authz == nil {
		if id.Role != domain.RoleAdmin {
			return domain.ErrPermission
		}
		return nil
	}
	return s.authz.Authorize(ctx, id.Role, object, action)
}

func (s *ReferralService) publish(evt models.LedgerEvent) {
	if s.events == nil {
		return
	}
	evt.At = s.now()
	s.events.Publish(evt)
}

func (s *ReferralService) notifyReferrer(ctx context.Context, ref *models.Referral) {
	if s.notifier == nil {
		return
	}
	referrer, err := s.store.GetUser(ctx, ref.ReferrerID)
	if err != nil {
		s.log.Warn("commission notification skipped", zap.String("referral_id", ref.ID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyCommission(ctx, referrer, ref); err != nil {
		s.log.Warn("commission notification failed", zap.String("referral_id", ref.ID), zap.Error(err))
	}
}
