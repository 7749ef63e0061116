package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// Payment persists one tender. Rows are append-only.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID          uuid.UUID           `gorm:"column:sale_id;type:uuid;not null;index"`
	Sequence        int                 `gorm:"column:sequence;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Amount          money.Cents         `gorm:"column:amount;not null"`
	ReferenceNumber *string             `gorm:"column:reference_number"`
	ChangeAmount    money.Cents         `gorm:"column:change_amount;not null;default:0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (p Payment) ToDomain() sale.Payment {
	return sale.Payment{
		ID:              p.ID,
		SaleID:          p.SaleID,
		PaymentMethod:   p.PaymentMethod,
		Amount:          p.Amount,
		ReferenceNumber: p.ReferenceNumber,
		ChangeAmount:    p.ChangeAmount,
		CreatedAt:       p.CreatedAt,
	}
}
