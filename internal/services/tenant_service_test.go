package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"go.uber.org/zap"
)

func paginationAll() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 100}
}

func TestMembershipService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob, err := f.credentials.CreateUser(ctx, "bob", "bob-password", false)
	require.NoError(t, err)

	m, created, err := f.memberships.Create(ctx, CreateMembershipInput{TenantID: alice.Tenant.ID, UserID: bob.ID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.Equal(t, models.StatusInvited, m.Status)

	again, created, err := f.memberships.Create(ctx, CreateMembershipInput{
		TenantID: alice.Tenant.ID,
		UserID:   bob.ID,
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, models.RoleMember, again.Role)

	_, _, err = f.memberships.Create(ctx, CreateMembershipInput{TenantID: "missing", UserID: bob.ID})
	assert.ErrorIs(t, err, ErrTenantNotFound)
	_, _, err = f.memberships.Create(ctx, CreateMembershipInput{TenantID: alice.Tenant.ID, UserID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, _, err = f.memberships.Create(ctx, CreateMembershipInput{TenantID: alice.Tenant.ID, UserID: bob.ID, Role: "emperor"})
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, _, err = f.memberships.Create(ctx, CreateMembershipInput{TenantID: alice.Tenant.ID, UserID: bob.ID, Status: "banned"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTenantService_CreateTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.register(t, "root")

	tenant, err := f.tenants.CreateTenant(ctx, root.User.ID, " Globex ")
	require.NoError(t, err)
	assert.Equal(t, "Globex", tenant.Name)

	members, err := f.tenants.ListMembers(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = f.tenants.CreateTenant(ctx, root.User.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidTenantName)

	_, err = f.tenants.ListMembers(ctx, "missing")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestTenantService_InviteMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	result, err := f.tenants.InviteMember(ctx, InviteMemberInput{
		TenantID: alice.Tenant.ID,
		ActorID:  alice.User.ID,
		Username: "bob",
		Role:     models.RoleManager,
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.False(t, result.UserCreated)
	assert.Equal(t, models.RoleManager, result.Membership.Role)
	require.NotNil(t, result.Membership.InvitedBy)
	assert.Equal(t, alice.User.ID, *result.Membership.InvitedBy)

	invited := f.audit.byAction(models.AuditMemberInvited)
	require.Len(t, invited, 1)
	assert.Equal(t, false, invited[0].Metadata["user_created"])

	_, err = f.tenants.InviteMember(ctx, InviteMemberInput{
		TenantID: alice.Tenant.ID,
		ActorID:  alice.User.ID,
		Username: "newcomer",
	})
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = f.tenants.InviteMember(ctx, InviteMemberInput{
		TenantID: "missing",
		ActorID:  alice.User.ID,
		Username: "bob",
	})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestTenantService_InviteMember_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.tenants.InviteMember(ctx, InviteMemberInput{
				TenantID: alice.Tenant.ID,
				ActorID:  alice.User.ID,
				Username: "bob",
			})
			if err != nil {
				t.Errorf("InviteMember: %v", err)
				return
			}
			if result.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, f.audit.byAction(models.AuditMemberInvited), 1)

	members, err := f.tenants.ListMembers(ctx, alice.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

// failingMemberships rejects every membership insert with a storage error.
type failingMemberships struct {
	repository.MembershipRepository
	err error
}

func (r failingMemberships) CreateIfAbsent(context.Context, *models.Membership) (*models.Membership, bool, error) {
	return nil, false, r.err
}

func TestTenantService_InviteMember_StorageFailureDiscardsNewUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	storageErr := errors.New("disk full")
	memberships := NewMembershipService(
		failingMemberships{MembershipRepository: f.store.Memberships(), err: storageErr},
		f.store.Tenants(), f.store.Users(), zap.NewNop(),
	)
	tenants := NewTenantService(f.store.Tenants(), memberships, f.credentials, NewAuditService(f.audit, zap.NewNop()), zap.NewNop())

	_, err := tenants.InviteMember(ctx, InviteMemberInput{
		TenantID: alice.Tenant.ID,
		ActorID:  alice.User.ID,
		Username: "carol",
		Password: "carol-password",
	})
	require.ErrorIs(t, err, storageErr)

	_, err = f.credentials.GetUserByUsername(ctx, "carol")
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.audit.byAction(models.AuditMemberInvited))

	// Existing users are never removed.
	_, err = tenants.InviteMember(ctx, InviteMemberInput{
		TenantID: alice.Tenant.ID,
		ActorID:  alice.User.ID,
		Username: "bob",
	})
	require.ErrorIs(t, err, storageErr)
	_, err = f.credentials.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
}

func TestTenantService_UpdateMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	_, err := f.tenants.UpdateMembership(ctx, alice.User.ID, alice.Membership.ID, models.MembershipPatch{})
	assert.ErrorIs(t, err, ErrEmptyMembershipPatch)

	suspended := models.StatusSuspended
	_, err = f.tenants.UpdateMembership(ctx, alice.User.ID, "missing", models.MembershipPatch{Status: &suspended})
	assert.ErrorIs(t, err, ErrMembershipNotFound)

	updated, err := f.tenants.UpdateMembership(ctx, alice.User.ID, alice.Membership.ID, models.MembershipPatch{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, updated.Status)
	assert.Equal(t, models.RoleOwner, updated.Role)

	entries := f.audit.byAction(models.AuditMembershipUpdated)
	require.Len(t, entries, 1)
	after := entries[0].Metadata["after"].(map[string]interface{})
	assert.Equal(t, "suspended", after["status"])
}

func TestAuditService_AttachesRequestID(t *testing.T) {
	f := newFixture(t)
	audit := NewAuditService(f.audit, zap.NewNop())

	ctx := utils.WithRequestID(context.Background(), "req-123")
	entry, err := audit.Append(ctx, AuditEvent{
		TenantID:    "t1",
		ActorUserID: "u1",
		Action:      models.AuditTenantCreated,
	})
	require.NoError(t, err)
	assert.Equal(t, "req-123", entry.Metadata["request_id"])
	require.NotNil(t, entry.TenantID)
	assert.Nil(t, entry.TargetID)
	assert.Len(t, entry.ID, 26)
}
