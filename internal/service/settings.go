package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"truvamate/config"
	"truvamate/internal/domain"
	"truvamate/internal/models"

	"go.uber.org/zap"
)

// DefaultSettings converts the configured defaults into ReferralSettings.
func DefaultSettings(c config.ReferralConfig) models.ReferralSettings {
	return models.ReferralSettings{
		CommissionRate:       c.CommissionRate,
		MinOrderValueCents:   c.MinOrderValueCents,
		RequireFirstPurchase: c.RequireFirstPurchase,
		MaxCommissionCents:   c.MaxCommissionCents,
	}
}

// ValidateSettings rejects settings that cannot produce a sane commission.
func ValidateSettings(s models.ReferralSettings) error {
	switch {
	case math.IsNaN(s.CommissionRate) || s.CommissionRate < 0 || s.CommissionRate > 100:
		return fmt.Errorf("%w: commission rate must be between 0 and 100", domain.ErrInvalidSettings)
	case s.MinOrderValueCents < 0:
		return fmt.Errorf("%w: minimum order value must not be negative", domain.ErrInvalidSettings)
	case s.MaxCommissionCents < 0:
		return fmt.Errorf("%w: maximum commission must not be negative", domain.ErrInvalidSettings)
	}
	return nil
}

// SettingsProvider resolves the effective referral settings on every call.
type SettingsProvider struct {
	store    SettingsStore
	defaults models.ReferralSettings
	log      *zap.Logger
}

func NewSettingsProvider(store SettingsStore, defaults models.ReferralSettings, log *zap.Logger) *SettingsProvider {
	return &SettingsProvider{store: store, defaults: defaults, log: log.Named("referral.settings")}
}

// Resolve returns the stored settings, or the defaults when none are stored.
// Storage failures are returned.
func (p *SettingsProvider) Resolve(ctx context.Context) (models.ReferralSettings, error) {
	s, err := p.store.GetSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return p.defaults, nil
	}
	if err != nil {
		return models.ReferralSettings{}, err
	}
	return *s, nil
}

// Current is Resolve for read paths: failures fall back to the defaults.
func (p *SettingsProvider) Current(ctx context.Context) models.ReferralSettings {
	s, err := p.Resolve(ctx)
	if err != nil {
		p.log.Warn("referral settings unavailable, using defaults", zap.Error(err))
		return p.defaults
	}
	return s
}
