package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"truvamate/config"
	"truvamate/internal/auth"
	"truvamate/internal/authz"
	"truvamate/internal/database"
	"truvamate/internal/docstore"
	"truvamate/internal/handler"
	"truvamate/internal/jobs"
	"truvamate/internal/lock"
	"truvamate/internal/logger"
	"truvamate/internal/metrics"
	"truvamate/internal/middleware"
	"truvamate/internal/repository"
	"truvamate/internal/router"
	"truvamate/internal/service"
	"truvamate/internal/ws"
	fb "truvamate/pkg/firebase"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()
	checks := map[string]handler.Check{}

	var app *firebase.App
	if cfg.Store.Backend == "firestore" || cfg.Auth.Provider == "firebase" || cfg.Firebase.ProjectID != "" {
		a, err := fb.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountPath)
		if err != nil {
			return fmt.Errorf("firebase: %w", err)
		}
		app = a
	}

	var (
		store service.ReferralStore
		db    *gorm.DB
	)
	switch cfg.Store.Backend {
	case "firestore":
		ds, err := docstore.NewFromApp(ctx, app)
		if err != nil {
			return fmt.Errorf("firestore: %w", err)
		}
		defer func() { _ = ds.Close() }()
		store = ds
		checks["firestore"] = ds.Ping
	case "sql", "":
		opened, err := openDB(cfg)
		if err != nil {
			return err
		}
		db = opened
		store = repository.NewStore(db)
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	hub := ws.NewHub()

	params := service.Params{
		Store:     store,
		Defaults:  service.DefaultSettings(cfg.Referral),
		LockTTL:   cfg.Referral.SettleLockTTL,
		LockWait:  cfg.Referral.SettleLockWait,
		Notifier:  service.NewCommissionNotifier(service.NewFCMService(ctx, app, zl)),
		Events:    hub,
		Metrics:   m,
		PublicURL: cfg.Server.PublicURL,
		Log:       zl,
	}

	rdb, err := lock.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	var limiter middleware.Limiter
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		params.Locker = lock.NewLocker(rdb)
		limiter = middleware.NewRedisRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		mem := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer mem.Stop()
		limiter = mem
	}

	// Policies persist next to the ledger when it lives in SQL and stay in
	// memory with the document store.
	enforcer, err := authz.NewEnforcer(db)
	if err != nil {
		return fmt.Errorf("authz: %w", err)
	}
	authorizer := authz.NewAuthorizer(enforcer, zl)
	params.Authz = authorizer

	svc := service.NewReferralService(params)

	cron := jobs.NewCronManager(jobs.NewReconciler(store, m, zl), zl)
	if err := cron.SetupJobs(cfg.Jobs.ReconcileSpec); err != nil {
		return fmt.Errorf("cron: %w", err)
	}
	cron.Start()
	defer cron.Stop()

	engine := router.Setup(router.Deps{
		Config:     cfg,
		Log:        zl,
		Service:    svc,
		Verifier:   verifier,
		Authorizer: authorizer,
		Hub:        hub,
		Limiter:    limiter,
		Metrics:    m,
		Gatherer:   reg,
		Checks:     checks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	zl.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	zl.Info("server stopped")
	return nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (auth.TokenVerifier, error) {
	if cfg.Auth.Provider != "firebase" {
		return auth.NewJWTVerifier(&cfg.JWT), nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return auth.NewFirebaseVerifier(client), nil
}
