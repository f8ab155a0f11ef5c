package models

import "time"

// Tenant is an isolated customer organization. It owns its memberships.
type Tenant struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}
