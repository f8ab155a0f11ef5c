package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"go.uber.org/zap"
)

// MembershipService is the membership directory: it maps (tenant, user) pairs
// to a role and status. It performs no permission checks.
type MembershipService struct {
	memberships repository.MembershipRepository
	tenants     repository.TenantRepository
	users       repository.UserRepository
	log         *zap.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(
	memberships repository.MembershipRepository,
	tenants repository.TenantRepository,
	users repository.UserRepository,
	log *zap.Logger,
) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		tenants:     tenants,
		users:       users,
		log:         log.Named("memberships"),
	}
}

// CreateMembershipInput represents parameters to create a membership.
// Zero Role and Status default to member and invited.
type CreateMembershipInput struct {
	TenantID  string
	UserID    string
	Role      models.Role
	Status    models.MembershipStatus
	InvitedBy *string
}

// Create adds the user to the tenant. When the pair already has a membership
// it is returned unchanged and created is false.
func (s *MembershipService) Create(ctx context.Context, input CreateMembershipInput) (membership *models.Membership, created bool, err error) {
	role := input.Role
	if role == "" {
		role = models.RoleMember
	} else if _, err := models.ParseRole(string(role)); err != nil {
		return nil, false, ErrInvalidRole
	}

	status := input.Status
	if status == "" {
		status = models.StatusInvited
	} else if _, err := models.ParseMembershipStatus(string(status)); err != nil {
		return nil, false, ErrInvalidStatus
	}

	if _, err := s.tenants.FindByID(ctx, input.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrTenantNotFound
		}
		return nil, false, fmt.Errorf("failed to find tenant: %w", err)
	}
	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	membership, created, err = s.memberships.CreateIfAbsent(ctx, &models.Membership{
		TenantID:  input.TenantID,
		UserID:    input.UserID,
		Role:      role,
		Status:    status,
		InvitedBy: input.InvitedBy,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create membership: %w", err)
	}

	if created {
		s.log.Info("membership created",
			zap.String("membership_id", membership.ID),
			zap.String("tenant_id", membership.TenantID),
			zap.String("role", string(membership.Role)),
		)
	}
	return membership, created, nil
}

// UpdateRoleStatus applies a partial role/status update.
func (s *MembershipService) UpdateRoleStatus(ctx context.Context, membershipID string, patch models.MembershipPatch) (*models.Membership, error) {
	membership, err := s.memberships.Update(ctx, membershipID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	return membership, nil
}

// GetByID returns a membership by ID.
func (s *MembershipService) GetByID(ctx context.Context, membershipID string) (*models.Membership, error) {
	membership, err := s.memberships.FindByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return membership, nil
}

// GetForUser returns the membership of a user in a tenant.
func (s *MembershipService) GetForUser(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	membership, err := s.memberships.FindByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return membership, nil
}

// ListByTenant returns the members of a tenant with their users.
func (s *MembershipService) ListByTenant(ctx context.Context, tenantID string) ([]models.MemberWithUser, error) {
	members, err := s.memberships.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListForUser returns every membership held by a user.
func (s *MembershipService) ListForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	memberships, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return memberships, nil
}
