package models

import "time"

// Membership binds a user to a tenant. At most one exists per (tenant, user).
type Membership struct {
	ID        string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID  string           `gorm:"type:varchar(36);not null;uniqueIndex:ux_membership_tenant_user,priority:1" json:"tenant_id"`
	UserID    string           `gorm:"type:varchar(36);not null;uniqueIndex:ux_membership_tenant_user,priority:2;index" json:"user_id"`
	Role      Role             `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status    MembershipStatus `gorm:"type:varchar(20);not null;default:'invited'" json:"status"`
	InvitedBy *string          `gorm:"type:varchar(36)" json:"invited_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// MembershipPatch carries a partial role/status update. Nil fields are left unchanged.
type MembershipPatch struct {
	Role   *Role
	Status *MembershipStatus
}

// Empty reports whether the patch changes nothing.
func (p MembershipPatch) Empty() bool {
	return p.Role == nil && p.Status == nil
}

// MemberWithUser pairs a membership with the user it references.
type MemberWithUser struct {
	Membership Membership
	User       User
}
