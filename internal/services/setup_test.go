package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/password"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/token"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingAudit keeps every appended entry, including those without a tenant.
type recordingAudit struct {
	repository.AuditLogRepository
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (r *recordingAudit) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	if err := r.AuditLogRepository.Append(ctx, entry); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *recordingAudit) byAction(action models.AuditAction) []models.AuditLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type nopNotifier struct{}

func (nopNotifier) DeliverResetToken(context.Context, *models.User, string, time.Time) error {
	return nil
}

type fixture struct {
	store       *repository.MemoryStore
	clock       *fakeClock
	audit       *recordingAudit
	tokens      *token.Service
	credentials *CredentialService
	memberships *MembershipService
	tenants     *TenantService
	auth        *AuthService
	resets      *PasswordResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	audit := &recordingAudit{AuditLogRepository: store.AuditLogs()}
	tokens := token.NewService("service-test-secret", token.WithClock(clock.Now))
	hasher := password.NewHasher(password.Params{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 32})

	f := &fixture{store: store, clock: clock, audit: audit, tokens: tokens}
	auditService := NewAuditService(audit, log)
	f.credentials = NewCredentialService(store.Users(), hasher, log)
	f.memberships = NewMembershipService(store.Memberships(), store.Tenants(), store.Users(), log)
	f.tenants = NewTenantService(store.Tenants(), f.memberships, f.credentials, auditService, log)
	f.auth = NewAuthService(AuthParams{
		Credentials:           f.credentials,
		Tenants:               f.tenants,
		Memberships:           f.memberships,
		Audit:                 auditService,
		Tokens:                tokens,
		TokenTTL:              time.Hour,
		PlatformAdminUsername: "root",
		Log:                   log,
	})
	f.resets = NewPasswordResetService(PasswordResetParams{
		Resets:      store.PasswordResets(),
		Credentials: f.credentials,
		Audit:       auditService,
		Notifier:    nopNotifier{},
		Secret:      "reset-test-secret",
		TTL:         time.Hour,
		Now:         clock.Now,
		Log:         log,
	})
	return f
}

func (f *fixture) register(t *testing.T, username string) *Session {
	t.Helper()
	session, err := f.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Password: username + "-password",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return session
}
