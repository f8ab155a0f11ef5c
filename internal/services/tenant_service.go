package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"go.uber.org/zap"
)

// TenantService provides tenant administration and member management.
// Callers are expected to have passed the authorization middleware.
type TenantService struct {
	tenants     repository.TenantRepository
	memberships *MembershipService
	credentials *CredentialService
	audit       *AuditService
	log         *zap.Logger
}

// NewTenantService creates a new TenantService.
func NewTenantService(
	tenants repository.TenantRepository,
	memberships *MembershipService,
	credentials *CredentialService,
	audit *AuditService,
	log *zap.Logger,
) *TenantService {
	return &TenantService{
		tenants:     tenants,
		memberships: memberships,
		credentials: credentials,
		audit:       audit,
		log:         log.Named("tenants"),
	}
}

// CreateTenant creates an empty tenant and records tenant_created.
func (s *TenantService) CreateTenant(ctx context.Context, actorID, name string) (*models.Tenant, error) {
	tenant, err := s.createTenant(ctx, name)
	if err != nil {
		return nil, err
	}

	if _, err := s.audit.Append(ctx, AuditEvent{
		TenantID:    tenant.ID,
		ActorUserID: actorID,
		Action:      models.AuditTenantCreated,
		TargetType:  TargetTenant,
		TargetID:    tenant.ID,
		Metadata:    map[string]interface{}{"name": tenant.Name, "source": "platform_admin"},
	}); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) createTenant(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTenantName
	}

	tenant := &models.Tenant{Name: name}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.log.Info("tenant created", zap.String("tenant_id", tenant.ID))
	return tenant, nil
}

// GetTenant returns a tenant by ID.
func (s *TenantService) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants returns a page of tenants and the total count.
func (s *TenantService) ListTenants(ctx context.Context, params utils.PaginationParams) ([]models.Tenant, int64, error) {
	tenants, total, err := s.tenants.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, total, nil
}

// ListMembers returns the members of an existing tenant.
func (s *TenantService) ListMembers(ctx context.Context, tenantID string) ([]models.MemberWithUser, error) {
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.memberships.ListByTenant(ctx, tenantID)
}

// InviteMemberInput represents parameters to invite a user into a tenant.
// Password is only used when no user with Username exists yet.
type InviteMemberInput struct {
	TenantID string
	ActorID  string
	Username string
	Password string
	Role     models.Role
	Status   models.MembershipStatus
}

// InviteResult reports the outcome of an invite.
type InviteResult struct {
	Membership  *models.Membership
	User        *models.User
	Created     bool
	UserCreated bool
}

// InviteMember adds the named user to the tenant, creating the user first if
// needed. Repeated invites return the existing membership and write no audit entry.
func (s *TenantService) InviteMember(ctx context.Context, input InviteMemberInput) (*InviteResult, error) {
	if _, err := s.GetTenant(ctx, input.TenantID); err != nil {
		return nil, err
	}

	username, err := NormalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}

	result := &InviteResult{}
	user, err := s.credentials.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		if input.Password == "" {
			return nil, ErrPasswordRequired
		}
		user, err = s.credentials.CreateUser(ctx, username, input.Password, false)
		if err != nil {
			return nil, err
		}
		result.UserCreated = true
	default:
		return nil, err
	}
	result.User = user

	actorID := input.ActorID
	membership, created, err := s.memberships.Create(ctx, CreateMembershipInput{
		TenantID:  input.TenantID,
		UserID:    user.ID,
		Role:      input.Role,
		Status:    input.Status,
		InvitedBy: &actorID,
	})
	if err != nil {
		if result.UserCreated {
			// Do not leave a user behind that belongs to no tenant.
			if derr := s.credentials.discardUser(ctx, user.ID); derr != nil {
				s.log.Error("failed to discard invited user",
					zap.String("user_id", user.ID),
					zap.String("tenant_id", input.TenantID),
					zap.Error(derr),
				)
			}
		}
		return nil, err
	}
	result.Membership = membership
	result.Created = created

	if !created {
		return result, nil
	}

	if _, err := s.audit.Append(ctx, AuditEvent{
		TenantID:    input.TenantID,
		ActorUserID: input.ActorID,
		Action:      models.AuditMemberInvited,
		TargetType:  TargetMembership,
		TargetID:    membership.ID,
		Metadata: map[string]interface{}{
			"user_id":      user.ID,
			"username":     user.Username,
			"role":         string(membership.Role),
			"status":       string(membership.Status),
			"user_created": result.UserCreated,
		},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateMembership applies a role/status change and records the before and after values.
func (s *TenantService) UpdateMembership(ctx context.Context, actorID, membershipID string, patch models.MembershipPatch) (*models.Membership, error) {
	if patch.Empty() {
		return nil, ErrEmptyMembershipPatch
	}

	before, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	after, err := s.memberships.UpdateRoleStatus(ctx, membershipID, patch)
	if err != nil {
		return nil, err
	}

	if _, err := s.audit.Append(ctx, AuditEvent{
		TenantID:    after.TenantID,
		ActorUserID: actorID,
		Action:      models.AuditMembershipUpdated,
		TargetType:  TargetMembership,
		TargetID:    after.ID,
		Metadata: map[string]interface{}{
			"user_id": after.UserID,
			"before":  map[string]interface{}{"role": string(before.Role), "status": string(before.Status)},
			"after":   map[string]interface{}{"role": string(after.Role), "status": string(after.Status)},
		},
	}); err != nil {
		return nil, err
	}
	return after, nil
}
