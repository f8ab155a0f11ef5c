package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditTenantCreated     AuditAction = "tenant_created"
	AuditMemberInvited     AuditAction = "member_invited"
	AuditMembershipUpdated AuditAction = "membership_updated"
	AuditPasswordReset     AuditAction = "password_reset"
)

// AuditLogEntry is append-only.
type AuditLogEntry struct {
	ID          string            `gorm:"type:varchar(26);primaryKey" json:"id"`
	TenantID    *string           `gorm:"type:varchar(36);index" json:"tenant_id,omitempty"`
	ActorUserID string            `gorm:"type:varchar(36);not null;index" json:"actor_user_id"`
	Action      AuditAction       `gorm:"type:varchar(64);not null" json:"action"`
	TargetType  *string           `gorm:"type:varchar(64)" json:"target_type,omitempty"`
	TargetID    *string           `gorm:"type:varchar(36)" json:"target_id,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}
