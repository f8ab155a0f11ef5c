package models

import "time"

// PasswordResetToken stores the keyed hash of a reset token, never the token itself.
type PasswordResetToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	TokenHash string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
