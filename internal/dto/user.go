package dto

import (
	"time"

	"github.com/tradesdesk/workspace-api/internal/models"
)

// UserDTO represents user information in API responses
type UserDTO struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PlatformAdmin bool      `json:"platform_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Username:      user.Username,
		PlatformAdmin: user.PlatformAdmin,
		CreatedAt:     user.CreatedAt,
	}
}

// SessionDTO is returned by register and login
type SessionDTO struct {
	Token      string         `json:"token"`
	User       UserDTO        `json:"user"`
	Tenant     *TenantDTO     `json:"tenant,omitempty"`
	Membership *MembershipDTO `json:"membership,omitempty"`
}

// ProfileDTO is returned by /api/auth/me
type ProfileDTO struct {
	User        UserDTO         `json:"user"`
	Memberships []MembershipDTO `json:"memberships"`
}
