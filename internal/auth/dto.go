package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/db/models"
)

// LoginRequest captures the cashier credentials sent to the login endpoint.
type LoginRequest struct {
	CashierCode string `json:"cashier_code" validate:"required,max=32"`
	PIN         string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// CashierDTO is the public view of a cashier.
type CashierDTO struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	DisplayName string     `json:"display_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse contains the access token issued to the terminal.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Cashier     *CashierDTO `json:"cashier"`
}

// ProvisionInput describes a cashier created from the operator CLI.
type ProvisionInput struct {
	Code        string
	DisplayName string
	PIN         string
}

func FromModel(c *models.Cashier) *CashierDTO {
	if c == nil {
		return nil
	}
	return &CashierDTO{
		ID:          c.ID,
		Code:        c.Code,
		DisplayName: c.DisplayName,
		LastLoginAt: c.LastLoginAt,
	}
}
