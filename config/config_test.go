package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8099", cfg.Server.Port)
	assert.Equal(t, "sql", cfg.Store.Backend)
	assert.Equal(t, "jwt", cfg.Auth.Provider)
	assert.Equal(t, 10.0, cfg.Referral.CommissionRate)
	assert.Equal(t, int64(50000), cfg.Referral.MinOrderValueCents)
	assert.Equal(t, int64(50000), cfg.Referral.MaxCommissionCents)
	assert.True(t, cfg.Referral.RequireFirstPurchase)
	assert.Equal(t, 30*time.Second, cfg.Referral.SettleLockTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_PUBLIC_URL", "https://shop.example/")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("REFERRAL_COMMISSION_RATE", "12.5")
	t.Setenv("REFERRAL_MAX_COMMISSION_CENTS", "100000")
	t.Setenv("REFERRAL_REQUIRE_FIRST_PURCHASE", "false")
	t.Setenv("RATELIMIT_WINDOW", "30s")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://shop.example", cfg.Server.PublicURL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "firestore", cfg.Store.Backend)
	assert.Equal(t, 12.5, cfg.Referral.CommissionRate)
	assert.Equal(t, int64(100000), cfg.Referral.MaxCommissionCents)
	assert.False(t, cfg.Referral.RequireFirstPurchase)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}
