package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/utils"
)

// MemoryStore is a mutex-guarded in-process store. It backs every repository
// interface and enforces the same uniqueness rules as the SQL schema.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]models.User
	usernames   map[string]string
	tenants     map[string]models.Tenant
	memberships map[string]models.Membership
	pairs       map[[2]string]string
	resets      map[string]models.PasswordResetToken
	audit       []models.AuditLogEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]models.User{},
		usernames:   map[string]string{},
		tenants:     map[string]models.Tenant{},
		memberships: map[string]models.Membership{},
		pairs:       map[[2]string]string{},
		resets:      map[string]models.PasswordResetToken{},
	}
}

// Users returns a UserRepository backed by the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Tenants returns a TenantRepository backed by the store.
func (s *MemoryStore) Tenants() TenantRepository { return memoryTenants{s} }

// Memberships returns a MembershipRepository backed by the store.
func (s *MemoryStore) Memberships() MembershipRepository { return memoryMemberships{s} }

// PasswordResets returns a PasswordResetRepository backed by the store.
func (s *MemoryStore) PasswordResets() PasswordResetRepository { return memoryResets{s} }

// AuditLogs returns an AuditLogRepository backed by the store.
func (s *MemoryStore) AuditLogs() AuditLogRepository { return memoryAudit{s} }

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.usernames[user.Username]; taken {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	stamp(&user.CreatedAt)
	r.s.users[user.ID] = *user
	r.s.usernames[user.Username] = user.ID
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r memoryUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.usernames[username]
	r.s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r memoryUsers) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.s.users[id] = user
	return nil
}

func (r memoryUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.usernames, user.Username)
	for hash, token := range r.s.resets {
		if token.UserID == id {
			delete(r.s.resets, hash)
		}
	}
	return nil
}

type memoryTenants struct{ s *MemoryStore }

func (r memoryTenants) Create(_ context.Context, tenant *models.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if _, exists := r.s.tenants[tenant.ID]; exists {
		return ErrDuplicate
	}
	stamp(&tenant.CreatedAt)
	r.s.tenants[tenant.ID] = *tenant
	return nil
}

func (r memoryTenants) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tenant, ok := r.s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tenant, nil
}

func (r memoryTenants) List(_ context.Context, params utils.PaginationParams) ([]models.Tenant, int64, error) {
	r.s.mu.RLock()
	all := make([]models.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		all = append(all, t)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	if params.Offset >= len(all) {
		return []models.Tenant{}, total, nil
	}
	end := len(all)
	if params.Limit > 0 && params.Offset+params.Limit < end {
		end = params.Offset + params.Limit
	}
	return all[params.Offset:end], total, nil
}

type memoryMemberships struct{ s *MemoryStore }

func (r memoryMemberships) CreateIfAbsent(_ context.Context, membership *models.Membership) (*models.Membership, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := [2]string{membership.TenantID, membership.UserID}
	if id, exists := r.s.pairs[key]; exists {
		existing := r.s.memberships[id]
		return &existing, false, nil
	}

	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	stamp(&membership.CreatedAt)
	stored := *membership
	stored.User = nil
	r.s.memberships[stored.ID] = stored
	r.s.pairs[key] = stored.ID
	return &stored, true, nil
}

func (r memoryMemberships) FindByID(_ context.Context, id string) (*models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	membership, ok := r.s.memberships[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &membership, nil
}

func (r memoryMemberships) FindByTenantAndUser(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	r.s.mu.RLock()
	id, ok := r.s.pairs[[2]string{tenantID, userID}]
	r.s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r memoryMemberships) ListByTenant(_ context.Context, tenantID string) ([]models.MemberWithUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := []models.MemberWithUser{}
	for _, m := range r.s.memberships {
		if m.TenantID == tenantID {
			members = append(members, models.MemberWithUser{Membership: m, User: r.s.users[m.UserID]})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return membershipLess(members[i].Membership, members[j].Membership)
	})
	return members, nil
}

func (r memoryMemberships) ListByUser(_ context.Context, userID string) ([]models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	memberships := []models.Membership{}
	for _, m := range r.s.memberships {
		if m.UserID == userID {
			memberships = append(memberships, m)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return membershipLess(memberships[i], memberships[j])
	})
	return memberships, nil
}

func (r memoryMemberships) Update(_ context.Context, id string, patch models.MembershipPatch) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	membership, ok := r.s.memberships[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Role != nil {
		membership.Role = *patch.Role
	}
	if patch.Status != nil {
		membership.Status = *patch.Status
	}
	r.s.memberships[id] = membership
	return &membership, nil
}

func membershipLess(a, b models.Membership) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

type memoryResets struct{ s *MemoryStore }

func (r memoryResets) Create(_ context.Context, token *models.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.resets {
		if existing.TokenHash == token.TokenHash {
			return ErrDuplicate
		}
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	stamp(&token.CreatedAt)
	r.s.resets[token.ID] = *token
	return nil
}

func (r memoryResets) FindByHash(_ context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, token := range r.s.resets {
		if token.TokenHash == tokenHash {
			found := token
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryResets) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resets[id]; !ok {
		return false, nil
	}
	delete(r.s.resets, id)
	return true, nil
}

func (r memoryResets) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, token := range r.s.resets {
		if token.UserID == userID {
			delete(r.s.resets, id)
		}
	}
	return nil
}

type memoryAudit struct{ s *MemoryStore }

func (r memoryAudit) Append(_ context.Context, entry *models.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = utils.NewSortableID()
	}
	stamp(&entry.CreatedAt)
	r.s.audit = append(r.s.audit, *entry)
	return nil
}
