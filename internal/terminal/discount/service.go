package discount

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type gateway interface {
	ApplyDiscount(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error)
}

// Service sets the sale-level discount. Each call overwrites the previous discount;
// the server enforces the subtotal bound.
type Service interface {
	ApplyDiscount(ctx context.Context, current *sale.Sale, amount money.Cents) (*sale.Sale, error)
	ApplyDiscountText(ctx context.Context, current *sale.Sale, text string) (*sale.Sale, error)
}

type service struct {
	gw gateway
}

func NewService(gw gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("sale gateway required")
	}
	return &service{gw: gw}, nil
}

func (s *service) ApplyDiscount(ctx context.Context, current *sale.Sale, amount money.Cents) (*sale.Sale, error) {
	if err := sale.RequireDraft(current); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "discount cannot be negative").
			WithDetails(map[string]any{"discount_amount": amount})
	}
	return s.gw.ApplyDiscount(ctx, current.ID, sale.ApplyDiscountRequest{DiscountAmount: amount})
}

// ApplyDiscountText parses cashier input such as "5", "$5.00" or "5,00" before applying it.
func (s *service) ApplyDiscountText(ctx context.Context, current *sale.Sale, text string) (*sale.Sale, error) {
	if err := sale.RequireDraft(current); err != nil {
		return nil, err
	}
	amount, err := money.ParseToCents(text)
	if err != nil {
		return nil, err
	}
	return s.ApplyDiscount(ctx, current, amount)
}
