package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/constants"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/services"
	"github.com/tradesdesk/workspace-api/internal/token"
)

const unauthorizedMessage = "Authentication required"

var errMissingBearer = errors.New("missing bearer token")

// RequireAuth verifies the bearer token and stores the caller's identity in context.
// Every failure produces the same 401 response.
func RequireAuth(auth *services.AuthService, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			m.AuthFailure("missing_token")
			apierrors.Unauthorized(c, unauthorizedMessage)
			c.Abort()
			return
		}

		identity, err := auth.Authenticate(raw)
		if err != nil {
			m.AuthFailure(failureReason(err))
			apierrors.Unauthorized(c, unauthorizedMessage)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)
		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity from context
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	v, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", errMissingBearer
	}
	raw := strings.TrimSpace(header[7:])
	if raw == "" {
		return "", errMissingBearer
	}
	return raw, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrMalformed):
		return "malformed"
	default:
		return "invalid_claims"
	}
}
