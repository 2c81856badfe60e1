package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Firebase  FirebaseConfig
	Auth      AuthConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Referral  ReferralConfig
	Webhook   WebhookConfig
	Jobs      JobsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PublicURL    string // storefront origin used in share links
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type StoreConfig struct {
	Backend string // sql | firestore
}

type FirebaseConfig struct {
	ProjectID          string
	ServiceAccountPath string
}

type AuthConfig struct {
	Provider string // jwt | firebase
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type RedisConfig struct {
	URL string
}

// ReferralConfig holds the defaults used when no settings record is stored.
type ReferralConfig struct {
	CommissionRate       float64
	MinOrderValueCents   int64
	MaxCommissionCents   int64
	RequireFirstPurchase bool
	SettleLockTTL        time.Duration
	SettleLockWait       time.Duration // how long a settlement waits for a busy lock
}

type WebhookConfig struct {
	OrderSecret string
}

type JobsConfig struct {
	ReconcileSpec string // cron spec, empty disables the job
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from defaults, an optional config.yml and the
// environment (.env is loaded first when present).
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/truvamate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("config: ignoring config file: %v", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.public_url", "https://truvamate.com")

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "truvamate:truvamate@tcp(localhost:3306)/truvamate?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("store.backend", "sql")

	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.service_account_path", "")

	v.SetDefault("auth.provider", "jwt")
	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.issuer", "truvamate")

	v.SetDefault("redis.url", "")

	v.SetDefault("referral.commission_rate", 10.0)
	v.SetDefault("referral.min_order_value_cents", 50000)
	v.SetDefault("referral.max_commission_cents", 50000)
	v.SetDefault("referral.require_first_purchase", true)
	v.SetDefault("referral.settle_lock_ttl", 30*time.Second)
	v.SetDefault("referral.settle_lock_wait", 2*time.Second)

	v.SetDefault("webhook.order_secret", "")

	v.SetDefault("jobs.reconcile_spec", "@hourly")

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			PublicURL:    strings.TrimRight(v.GetString("server.public_url"), "/"),
		},
		Log: LogConfig{Level: v.GetString("log.level")},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Store: StoreConfig{Backend: strings.ToLower(v.GetString("store.backend"))},
		Firebase: FirebaseConfig{
			ProjectID:          v.GetString("firebase.project_id"),
			ServiceAccountPath: v.GetString("firebase.service_account_path"),
		},
		Auth: AuthConfig{Provider: strings.ToLower(v.GetString("auth.provider"))},
		JWT: JWTConfig{
			AccessSecret: v.GetString("jwt.access_secret"),
			AccessExpiry: v.GetDuration("jwt.access_expiry"),
			Issuer:       v.GetString("jwt.issuer"),
		},
		Redis: RedisConfig{URL: v.GetString("redis.url")},
		Referral: ReferralConfig{
			CommissionRate:       v.GetFloat64("referral.commission_rate"),
			MinOrderValueCents:   v.GetInt64("referral.min_order_value_cents"),
			MaxCommissionCents:   v.GetInt64("referral.max_commission_cents"),
			RequireFirstPurchase: v.GetBool("referral.require_first_purchase"),
			SettleLockTTL:        v.GetDuration("referral.settle_lock_ttl"),
			SettleLockWait:       v.GetDuration("referral.settle_lock_wait"),
		},
		Webhook: WebhookConfig{OrderSecret: v.GetString("webhook.order_secret")},
		Jobs:    JobsConfig{ReconcileSpec: v.GetString("jobs.reconcile_spec")},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("ratelimit.requests"),
			Window:   v.GetDuration("ratelimit.window"),
		},
	}
}
