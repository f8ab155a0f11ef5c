package repository

import (
	"context"
	"errors"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate record")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user. A taken username yields ErrDuplicate.
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePasswordHash replaces the stored password hash
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// Delete removes a user. A missing user yields ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *models.Tenant) error

	// FindByID finds a tenant by ID
	FindByID(ctx context.Context, id string) (*models.Tenant, error)

	// List returns a page of tenants ordered by creation, plus the total count
	List(ctx context.Context, params utils.PaginationParams) ([]models.Tenant, int64, error)
}

// MembershipRepository defines the interface for membership data access
type MembershipRepository interface {
	// CreateIfAbsent inserts the membership unless one already exists for its
	// (tenant, user) pair. It returns the stored record and whether it was inserted.
	CreateIfAbsent(ctx context.Context, membership *models.Membership) (*models.Membership, bool, error)

	// FindByID finds a membership by ID
	FindByID(ctx context.Context, id string) (*models.Membership, error)

	// FindByTenantAndUser finds the membership of a user in a tenant
	FindByTenantAndUser(ctx context.Context, tenantID, userID string) (*models.Membership, error)

	// ListByTenant lists the memberships of a tenant together with their users
	ListByTenant(ctx context.Context, tenantID string) ([]models.MemberWithUser, error)

	// ListByUser lists all memberships held by a user
	ListByUser(ctx context.Context, userID string) ([]models.Membership, error)

	// Update applies a partial role/status update and returns the updated record
	Update(ctx context.Context, id string, patch models.MembershipPatch) (*models.Membership, error)
}

// PasswordResetRepository defines the interface for reset token data access
type PasswordResetRepository interface {
	// Create stores a new reset token record
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// FindByHash finds a reset token by its keyed hash
	FindByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)

	// Delete removes a reset token and reports whether this call removed it
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteByUser removes every outstanding reset token of a user
	DeleteByUser(ctx context.Context, userID string) error
}

// AuditLogRepository defines the interface for audit log data access.
// The log is append-only; entries are never read back or modified here.
type AuditLogRepository interface {
	// Append writes a new entry
	Append(ctx context.Context, entry *models.AuditLogEntry) error
}

// translateError maps gorm errors onto the repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
