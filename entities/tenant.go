package entities

import "time"

// Tenant is the isolation unit: every call record belongs to exactly one
// tenant and all API access is scoped by its API key.
type Tenant struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	APIKey          string    `json:"api_key" gorm:"type:varchar(64);uniqueIndex;not null"`
	CanRegenReports bool      `json:"can_regen_reports" gorm:"not null;default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
