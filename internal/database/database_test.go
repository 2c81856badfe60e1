package database

import (
	"testing"

	"truvamate/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite", ""} {
		d, err := Dialect(&config.DatabaseConfig{Driver: driver, DSN: "x"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}
	_, err := Dialect(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewDBAndMigrateSQLite(t *testing.T) {
	db, err := NewDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "referral_codes", "referrals", "referral_transactions", "system_settings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
