package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tradesdesk/workspace-api/internal/authz"
	"github.com/tradesdesk/workspace-api/internal/database"
	"github.com/tradesdesk/workspace-api/internal/dto"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/password"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/services"
	"github.com/tradesdesk/workspace-api/internal/token"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (n *captureNotifier) DeliverResetToken(_ context.Context, user *models.User, rawToken string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[user.Username] = rawToken
	return nil
}

func (n *captureNotifier) tokenFor(username string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	raw, ok := n.tokens[username]
	return raw, ok
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	clock       *testClock
	notifier    *captureNotifier
	tokens      *token.Service
	memberships *services.MembershipService
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithLimiter(t, nil)
}

func setupTestEnvWithLimiter(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log := zap.NewNop()
	require.NoError(t, database.Migrate(db, log))

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := &captureNotifier{tokens: map[string]string{}}
	tokens := token.NewService(testSecret, token.WithClock(clock.Now))
	hasher := password.NewHasher(password.Params{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 32})

	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	credentials := services.NewCredentialService(userRepo, hasher, log)
	audit := services.NewAuditService(auditRepo, log)
	memberships := services.NewMembershipService(membershipRepo, tenantRepo, userRepo, log)
	tenants := services.NewTenantService(tenantRepo, memberships, credentials, audit, log)
	auth := services.NewAuthService(services.AuthParams{
		Credentials:           credentials,
		Tenants:               tenants,
		Memberships:           memberships,
		Audit:                 audit,
		Tokens:                tokens,
		TokenTTL:              time.Hour,
		PlatformAdminUsername: "root",
		Log:                   log,
	})
	resets := services.NewPasswordResetService(services.PasswordResetParams{
		Resets:      repository.NewPasswordResetRepository(db),
		Credentials: credentials,
		Audit:       audit,
		Notifier:    notifier,
		Secret:      testSecret,
		TTL:         time.Hour,
		Now:         clock.Now,
		Log:         log,
	})

	policy, err := authz.NewPolicy()
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Auth:        auth,
		Resets:      resets,
		Tenants:     tenants,
		Memberships: memberships,
		Policy:      policy,
		Metrics:     metrics.New(),
		RateLimiter: limiter,
		Log:         log,
	})

	return &testEnv{
		db:          db,
		router:      router,
		clock:       clock,
		notifier:    notifier,
		tokens:      tokens,
		memberships: memberships,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, username, pw, tenantName string) dto.SessionDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username":    username,
		"password":    pw,
		"tenant_name": tenantName,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session dto.SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session
}

func (e *testEnv) login(t *testing.T, username, pw string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": pw,
	}, "")
}

func (e *testEnv) tokenFor(t *testing.T, username, pw string) string {
	t.Helper()
	w := e.login(t, username, pw)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session dto.SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session.Token
}

func (e *testEnv) auditFor(t *testing.T, tenantID string) []models.AuditLogEntry {
	t.Helper()
	var entries []models.AuditLogEntry
	require.NoError(t, e.db.Where("tenant_id = ?", tenantID).Order("id DESC").Find(&entries).Error)
	return entries
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
