package models

import (
	"time"

	"github.com/google/uuid"
)

// Cashier is a till operator who signs in with a short code and a PIN.
type Cashier struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string     `gorm:"column:code;not null;uniqueIndex"`
	DisplayName string     `gorm:"column:display_name;not null"`
	PINHash     string     `gorm:"column:pin_hash;not null"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
