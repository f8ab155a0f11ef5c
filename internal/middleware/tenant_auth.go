package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/authz"
	"github.com/tradesdesk/workspace-api/internal/constants"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/services"
	"go.uber.org/zap"
)

// TenantResolver finds the tenant a request targets.
type TenantResolver func(c *gin.Context) (string, error)

// TenantFromParam reads the tenant ID from a path parameter.
func TenantFromParam(name string) TenantResolver {
	return func(c *gin.Context) (string, error) {
		return c.Param(name), nil
	}
}

// TenantFromMembership resolves the tenant that owns the membership named by a path parameter.
func TenantFromMembership(memberships *services.MembershipService, name string) TenantResolver {
	return func(c *gin.Context) (string, error) {
		membership, err := memberships.GetByID(c.Request.Context(), c.Param(name))
		if err != nil {
			return "", err
		}
		return membership.TenantID, nil
	}
}

// TenantGuard checks the caller's role in the target tenant against the policy.
type TenantGuard struct {
	memberships *services.MembershipService
	policy      *authz.Policy
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewTenantGuard creates a TenantGuard.
func NewTenantGuard(memberships *services.MembershipService, policy *authz.Policy, m *metrics.Metrics, log *zap.Logger) *TenantGuard {
	return &TenantGuard{
		memberships: memberships,
		policy:      policy,
		metrics:     m,
		log:         log.Named("authz"),
	}
}

// Require allows the request through only when the caller holds an active
// membership in the resolved tenant whose role permits op. Must run after RequireAuth.
func (g *TenantGuard) Require(op authz.Operation, resolve TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, unauthorizedMessage)
			c.Abort()
			return
		}

		tenantID, err := resolve(c)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				apierrors.NotFound(c, "Resource not found")
			} else {
				g.log.Error("failed to resolve tenant", zap.Error(err))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		membership, err := g.memberships.GetForUser(c.Request.Context(), tenantID, identity.UserID)
		if err != nil {
			if errors.Is(err, services.ErrMembershipNotFound) {
				g.deny(c, identity, tenantID, op, "not_member")
				return
			}
			g.log.Error("failed to look up membership", zap.Error(err))
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		if membership.Status != models.StatusActive {
			g.deny(c, identity, tenantID, op, "inactive_membership")
			return
		}

		allowed, err := g.policy.Allows(membership.Role, op)
		if err != nil {
			g.log.Error("policy evaluation failed", zap.Error(err))
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if !allowed {
			g.deny(c, identity, tenantID, op, "insufficient_role")
			return
		}

		c.Set(constants.ContextKeyMembership, *membership)
		c.Next()
	}
}

func (g *TenantGuard) deny(c *gin.Context, identity services.Identity, tenantID string, op authz.Operation, reason string) {
	g.metrics.AuthFailure(reason)
	g.log.Info("access denied",
		zap.String("user_id", identity.UserID),
		zap.String("tenant_id", tenantID),
		zap.String("operation", op.String()),
		zap.String("reason", reason),
	)
	apierrors.Forbidden(c, "Insufficient permissions for this tenant")
	c.Abort()
}

// GetMembership retrieves the caller's membership set by TenantGuard.Require
func GetMembership(c *gin.Context) (models.Membership, bool) {
	v, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return models.Membership{}, false
	}
	membership, ok := v.(models.Membership)
	return membership, ok
}

// RequirePlatformAdmin re-reads the caller and rejects non platform admins.
// Must run after RequireAuth.
func RequirePlatformAdmin(auth *services.AuthService, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, unauthorizedMessage)
			c.Abort()
			return
		}

		fresh, err := auth.FreshIdentity(c.Request.Context(), identity)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				m.AuthFailure("unknown_user")
				apierrors.Unauthorized(c, unauthorizedMessage)
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if !fresh.PlatformAdmin {
			m.AuthFailure("not_platform_admin")
			apierrors.Forbidden(c, "Platform admin access required")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentity, fresh)
		c.Next()
	}
}
