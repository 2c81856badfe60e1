// Package authz decides which roles may perform administrative ledger
// operations. Policies are casbin rules keyed by "role:<name>".
package authz

import (
	"context"
	_ "embed"
	"strings"

	"truvamate/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectReferral   = "referral"
	ObjectSettings   = "referral_settings"
	ObjectLedgerFeed = "ledger_feed"
)

const (
	ActionReferralList     = "referral.list"
	ActionReferralExport   = "referral.export"
	ActionReferralMarkPaid = "referral.mark_paid"

	ActionSettingsView   = "referral_settings.view"
	ActionSettingsUpdate = "referral_settings.update"

	ActionFeedSubscribe = "ledger_feed.subscribe"
)

// NewEnforcer builds the policy enforcer. With a database the rules are
// persisted in casbin_rule so operators can grant extra roles; without one
// they live in memory. Default admin rules are always present.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	var enforcer *casbin.SyncedEnforcer
	if db != nil {
		adapter, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, err
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
		if err != nil {
			return nil, err
		}
		enforcer.EnableAutoSave(true)
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	admin := Subject(domain.RoleAdmin)
	policies := [][]string{
		{admin, ObjectReferral, ActionReferralList},
		{admin, ObjectReferral, ActionReferralExport},
		{admin, ObjectReferral, ActionReferralMarkPaid},
		{admin, ObjectSettings, ActionSettingsView},
		{admin, ObjectSettings, ActionSettingsUpdate},
		{admin, ObjectLedgerFeed, ActionFeedSubscribe},
	}
	for _, p := range policies {
		// AddPolicy is a no-op for rules already loaded from the adapter.
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}

// Subject is the casbin subject of a role.
func Subject(role string) string {
	return "role:" + role
}

type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

func NewAuthorizer(enforcer *casbin.SyncedEnforcer, log *zap.Logger) *Authorizer {
	return &Authorizer{enforcer: enforcer, log: log.Named("authz")}
}

// Authorize returns domain.ErrPermission when role may not perform action on object.
func (a *Authorizer) Authorize(_ context.Context, role, object, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return domain.ErrNotAuthenticated
	}
	allowed, err := a.enforcer.Enforce(Subject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		a.log.Debug("denied", zap.String("role", role), zap.String("object", object), zap.String("action", action))
		return domain.ErrPermission
	}
	return nil
}
