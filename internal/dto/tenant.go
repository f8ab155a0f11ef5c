package dto

import (
	"time"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/utils"
)

// TenantDTO represents a tenant in API responses
type TenantDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantListDTO is a page of tenants
type TenantListDTO struct {
	Tenants    []TenantDTO              `json:"tenants"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// MembershipDTO represents a membership in API responses
type MembershipDTO struct {
	ID        string                  `json:"id"`
	TenantID  string                  `json:"tenant_id"`
	UserID    string                  `json:"user_id"`
	Role      models.Role             `json:"role"`
	Status    models.MembershipStatus `json:"status"`
	InvitedBy *string                 `json:"invited_by,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// MemberDTO pairs a membership with its user
type MemberDTO struct {
	Membership MembershipDTO `json:"membership"`
	User       UserDTO       `json:"user"`
}

// InviteDTO is returned by the invite endpoint
type InviteDTO struct {
	Membership  MembershipDTO `json:"membership"`
	User        UserDTO       `json:"user"`
	Created     bool          `json:"created"`
	UserCreated bool          `json:"user_created"`
}

// ToTenantDTO converts a tenant model to DTO
func ToTenantDTO(tenant models.Tenant) TenantDTO {
	return TenantDTO{
		ID:        tenant.ID,
		Name:      tenant.Name,
		CreatedAt: tenant.CreatedAt,
	}
}

// ToMembershipDTO converts a membership model to DTO
func ToMembershipDTO(m models.Membership) MembershipDTO {
	return MembershipDTO{
		ID:        m.ID,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		Role:      m.Role,
		Status:    m.Status,
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ToMembershipDTOs converts memberships to DTOs
func ToMembershipDTOs(memberships []models.Membership) []MembershipDTO {
	dtos := make([]MembershipDTO, len(memberships))
	for i, m := range memberships {
		dtos[i] = ToMembershipDTO(m)
	}
	return dtos
}

// ToMemberDTOs converts members with users to DTOs
func ToMemberDTOs(members []models.MemberWithUser) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = MemberDTO{
			Membership: ToMembershipDTO(m.Membership),
			User:       ToUserDTO(m.User),
		}
	}
	return dtos
}
