package models

import "time"

type User struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash  string    `gorm:"type:varchar(255);not null" json:"-"`
	PlatformAdmin bool      `gorm:"not null;default:false" json:"platform_admin"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	ResetTokens []PasswordResetToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
