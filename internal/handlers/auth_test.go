package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradesdesk/workspace-api/internal/dto"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/services"
	"github.com/tradesdesk/workspace-api/internal/token"
)

func TestAuthHandler_Register(t *testing.T) {
	env := setupTestEnv(t)

	session := env.register(t, "alice", "alice-password", "Acme")

	require.NotEmpty(t, session.Token)
	require.Equal(t, "alice", session.User.Username)
	require.False(t, session.User.PlatformAdmin)
	require.NotNil(t, session.Tenant)
	require.Equal(t, "Acme", session.Tenant.Name)
	require.NotNil(t, session.Membership)
	assert.Equal(t, models.RoleOwner, session.Membership.Role)
	assert.Equal(t, models.StatusActive, session.Membership.Status)

	claims, err := env.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.String(services.ClaimUserID))
	assert.Equal(t, "alice", claims.String(services.ClaimUsername))

	entries := env.auditFor(t, session.Tenant.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditTenantCreated, entries[0].Action)
	assert.Equal(t, "registration", entries[0].Metadata["source"])
}

func TestAuthHandler_Register_DefaultTenantName(t *testing.T) {
	env := setupTestEnv(t)

	session := env.register(t, "alice", "alice-password", "")
	require.Equal(t, "alice's workspace", session.Tenant.Name)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{"missing password", map[string]string{"username": "bob"}, http.StatusBadRequest},
		{"short username", map[string]string{"username": "bo", "password": "long-enough"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": "bob", "password": "short"}, http.StatusBadRequest},
		{"taken username", map[string]string{"username": "alice", "password": "long-enough"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestAuthHandler_Login_FailuresAreIndistinguishable(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	wrongPassword := env.login(t, "alice", "not-the-password")
	unknownUser := env.login(t, "mallory", "alice-password")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Equal(t, apierrors.ErrCodeInvalidCredentials, decodeError(t, unknownUser)["code"])
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	w := env.login(t, "alice", "alice-password")
	require.Equal(t, http.StatusOK, w.Code)

	var session dto.SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	require.Nil(t, session.Tenant)
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupTestEnv(t)
	session := env.register(t, "alice", "alice-password", "Acme")

	w := env.do(t, http.MethodGet, "/api/auth/me", nil, session.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var profile dto.ProfileDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.Equal(t, "alice", profile.User.Username)
	require.Len(t, profile.Memberships, 1)
	require.Equal(t, session.Tenant.ID, profile.Memberships[0].TenantID)
}

func TestAuthHandler_Me_RejectsBadTokensUniformly(t *testing.T) {
	env := setupTestEnv(t)
	session := env.register(t, "alice", "alice-password", "Acme")

	other := token.NewService("another-secret", token.WithClock(env.clock.Now))
	forged, err := other.Sign(token.Claims{services.ClaimUserID: session.User.ID}, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":       "",
		"malformed":     "not-a-token",
		"bad signature": forged,
	}

	var bodies []string
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/auth/me", nil, raw)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			bodies = append(bodies, w.Body.String())
		})
	}

	env.clock.Advance(2 * time.Hour)
	w := env.do(t, http.MethodGet, "/api/auth/me", nil, session.Token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	bodies = append(bodies, w.Body.String())

	for _, body := range bodies[1:] {
		require.JSONEq(t, bodies[0], body)
	}
	assert.Equal(t, "Authentication required", decodeError(t, w)["message"])
}

func TestAuthHandler_PasswordReset_SingleUse(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	w := env.do(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{"username": "alice"}, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	raw, ok := env.notifier.tokenFor("alice")
	require.True(t, ok)

	confirm := map[string]string{"token": raw, "new_password": "brand-new-password"}
	w = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", confirm, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", confirm, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidToken, decodeError(t, w)["code"])

	require.Equal(t, http.StatusUnauthorized, env.login(t, "alice", "alice-password").Code)
	require.Equal(t, http.StatusOK, env.login(t, "alice", "brand-new-password").Code)
}

func TestAuthHandler_PasswordReset_Expired(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	w := env.do(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{"username": "alice"}, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	raw, ok := env.notifier.tokenFor("alice")
	require.True(t, ok)

	env.clock.Advance(time.Hour)

	w = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm",
		map[string]string{"token": raw, "new_password": "brand-new-password"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, http.StatusOK, env.login(t, "alice", "alice-password").Code)
}

func TestAuthHandler_PasswordReset_UnknownUser(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	known := env.do(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{"username": "alice"}, "")
	unknown := env.do(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{"username": "nobody"}, "")

	require.Equal(t, http.StatusAccepted, unknown.Code)
	require.JSONEq(t, known.Body.String(), unknown.Body.String())
	_, ok := env.notifier.tokenFor("nobody")
	require.False(t, ok)
}

func TestAuthHandler_PasswordReset_WeakPasswordKeepsToken(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "alice", "alice-password", "Acme")

	env.do(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{"username": "alice"}, "")
	raw, _ := env.notifier.tokenFor("alice")

	w := env.do(t, http.MethodPost, "/api/auth/password-reset/confirm",
		map[string]string{"token": raw, "new_password": "short"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidInput, decodeError(t, w)["code"])

	w = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm",
		map[string]string{"token": raw, "new_password": "long-enough-now"}, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2, metrics.New())
	env := setupTestEnvWithLimiter(t, limiter)

	for i := 0; i < 2; i++ {
		w := env.login(t, "nobody", "whatever-pass")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := env.login(t, "nobody", "whatever-pass")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	// Routes outside the auth group share no bucket.
	w = env.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}
