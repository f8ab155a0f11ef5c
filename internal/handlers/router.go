package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/authz"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/services"
	"go.uber.org/zap"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Auth        *services.AuthService
	Resets      *services.PasswordResetService
	Tenants     *services.TenantService
	Memberships *services.MembershipService
	Policy      *authz.Policy
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Log         *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(d.Metrics.Middleware())

	authHandler := NewAuthHandler(d.Auth, d.Resets, d.Log)
	tenantHandler := NewTenantHandler(d.Tenants, d.Log)
	membershipHandler := NewMembershipHandler(d.Tenants, d.Log)

	requireAuth := middleware.RequireAuth(d.Auth, d.Metrics)
	guard := middleware.NewTenantGuard(d.Memberships, d.Policy, d.Metrics, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Workspace API is running",
		})
	})
	r.GET("/metrics", d.Metrics.Handler())

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			limited := auth.Group("")
			if d.RateLimiter != nil {
				limited.Use(d.RateLimiter.Middleware())
			}
			limited.POST("/register", authHandler.Register)
			limited.POST("/login", authHandler.Login)
			limited.POST("/password-reset/request", authHandler.RequestPasswordReset)
			limited.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Tenant routes (protected)
		tenants := api.Group("/tenants")
		tenants.Use(requireAuth)
		{
			admin := middleware.RequirePlatformAdmin(d.Auth, d.Metrics)
			byParam := middleware.TenantFromParam("tenantId")

			tenants.POST("", admin, tenantHandler.CreateTenant)
			tenants.GET("", admin, tenantHandler.ListTenants)
			tenants.GET("/:tenantId/members", guard.Require(authz.ListMembers, byParam), tenantHandler.ListMembers)
			tenants.POST("/:tenantId/invite", guard.Require(authz.InviteMember, byParam), tenantHandler.InviteMember)
		}

		memberships := api.Group("/memberships")
		memberships.Use(requireAuth)
		{
			byMembership := middleware.TenantFromMembership(d.Memberships, "membershipId")
			memberships.PATCH("/:membershipId", guard.Require(authz.UpdateMembership, byMembership), membershipHandler.UpdateMembership)
		}
	}

	return r
}
