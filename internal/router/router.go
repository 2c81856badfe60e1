package router

import (
	"truvamate/config"
	"truvamate/internal/auth"
	"truvamate/internal/authz"
	"truvamate/internal/domain"
	"truvamate/internal/handler"
	"truvamate/internal/metrics"
	"truvamate/internal/middleware"
	"truvamate/internal/service"
	"truvamate/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config     *config.Config
	Log        *zap.Logger
	Service    *service.ReferralService
	Verifier   auth.TokenVerifier
	Authorizer middleware.Authorizer
	Hub        *ws.Hub
	Limiter    middleware.Limiter
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Checks     map[string]handler.Check
}

func Setup(d Deps) *gin.Engine {
	if d.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log, d.Metrics))

	referralHandler := handler.NewReferralHandler(d.Service)
	meHandler := handler.NewMeHandler(d.Service)
	adminHandler := handler.NewAdminHandler(d.Service)
	webhookHandler := handler.NewOrderWebhookHandler(d.Service, d.Config.Webhook.OrderSecret)
	healthHandler := handler.NewHealthHandler(d.Checks)

	r.GET("/healthz", healthHandler.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.Hub != nil {
		r.GET("/ws/admin/referrals", ws.ServeLedgerFeed(d.Verifier, d.Service, d.Hub, d.Log))
	}

	authMw := middleware.AuthRequired(d.Verifier, d.Service, d.Log)

	api := r.Group("/api/v1")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	{
		api.GET("/referral-codes/:code/validate", referralHandler.ValidateCode)
		api.POST("/webhooks/orders", webhookHandler.Handle)
		api.POST("/referrals/register", authMw, referralHandler.Register)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.GetMe)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
			me.GET("/referral-code", referralHandler.GetMyReferralCode)
			me.GET("/referrals", referralHandler.GetMyReferrals)
			me.GET("/referral-stats", referralHandler.GetMyStats)
		}

		admin := api.Group("/admin")
		admin.Use(authMw)
		{
			perm := func(object, action string) gin.HandlerFunc {
				if d.Authorizer == nil {
					return middleware.RequireRole(domain.RoleAdmin)
				}
				return middleware.RequirePermission(d.Authorizer, object, action)
			}
			admin.GET("/referrals", perm(authz.ObjectReferral, authz.ActionReferralList), adminHandler.ListReferrals)
			admin.GET("/referrals/export", perm(authz.ObjectReferral, authz.ActionReferralExport), adminHandler.ExportReferrals)
			admin.GET("/referrals/:id", perm(authz.ObjectReferral, authz.ActionReferralList), adminHandler.GetReferral)
			admin.POST("/referrals/:id/mark-paid", perm(authz.ObjectReferral, authz.ActionReferralMarkPaid), adminHandler.MarkPaid)
			admin.GET("/referral-settings", perm(authz.ObjectSettings, authz.ActionSettingsView), adminHandler.GetSettings)
			admin.PUT("/referral-settings", perm(authz.ObjectSettings, authz.ActionSettingsUpdate), adminHandler.UpdateSettings)
		}
	}
	return r
}
