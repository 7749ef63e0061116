package sale

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
)

const (
	// DefaultQuantity is used when an add-item request omits the quantity.
	DefaultQuantity = 1
	// MaxQuantity caps a single line.
	MaxQuantity = 9999
)

type CreateSaleRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
}

type AddItemRequest struct {
	ProductID      uuid.UUID    `json:"product_id" validate:"required"`
	Quantity       int          `json:"quantity,omitempty" validate:"omitempty,min=1,max=9999"`
	DiscountAmount *money.Cents `json:"discount_amount,omitempty" validate:"omitempty,min=0"`
}

type UpdateItemRequest struct {
	Quantity       *int         `json:"quantity,omitempty" validate:"omitempty,min=1,max=9999"`
	DiscountAmount *money.Cents `json:"discount_amount,omitempty" validate:"omitempty,min=0"`
}

type ApplyDiscountRequest struct {
	DiscountAmount money.Cents `json:"discount_amount" validate:"min=0"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type AddPaymentRequest struct {
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required,enum"`
	Amount          money.Cents         `json:"amount"`
	ReferenceNumber *string             `json:"reference_number,omitempty" validate:"omitempty,max=120"`
}
