package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type gateway interface {
	AddItem(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error)
	UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error)
	RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error)
}

// Service edits the lines of a draft sale. Every call returns the server's recomputed
// sale; the snapshot passed in is never modified.
type Service interface {
	AddItem(ctx context.Context, current *sale.Sale, productID uuid.UUID, quantity int) (*sale.Sale, error)
	UpdateItemQuantity(ctx context.Context, current *sale.Sale, itemID uuid.UUID, quantity int) (*sale.Sale, error)
	UpdateItemDiscount(ctx context.Context, current *sale.Sale, itemID uuid.UUID, discount money.Cents) (*sale.Sale, error)
	RemoveItem(ctx context.Context, current *sale.Sale, itemID uuid.UUID) (*sale.Sale, error)
}

type service struct {
	gw gateway
}

// NewService builds a cart mutator on top of the sale gateway.
func NewService(gw gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("sale gateway required")
	}
	return &service{gw: gw}, nil
}

// AddItem sends one discrete add. Adding the same product twice yields two lines.
func (s *service) AddItem(ctx context.Context, current *sale.Sale, productID uuid.UUID, quantity int) (*sale.Sale, error) {
	if err := sale.RequireDraft(current); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if err := sale.CheckQuantity(quantity); err != nil {
		return nil, err
	}
	return s.gw.AddItem(ctx, current.ID, sale.AddItemRequest{ProductID: productID, Quantity: quantity})
}

func (s *service) UpdateItemQuantity(ctx context.Context, current *sale.Sale, itemID uuid.UUID, quantity int) (*sale.Sale, error) {
	if err := requireLine(current, itemID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1; remove the line instead").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if err := sale.CheckQuantity(quantity); err != nil {
		return nil, err
	}
	return s.gw.UpdateItem(ctx, current.ID, itemID, sale.UpdateItemRequest{Quantity: &quantity})
}

// UpdateItemDiscount replaces the line discount. The server rejects discounts above the line amount.
func (s *service) UpdateItemDiscount(ctx context.Context, current *sale.Sale, itemID uuid.UUID, discount money.Cents) (*sale.Sale, error) {
	if err := requireLine(current, itemID); err != nil {
		return nil, err
	}
	if discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "line discount cannot be negative")
	}
	return s.gw.UpdateItem(ctx, current.ID, itemID, sale.UpdateItemRequest{DiscountAmount: &discount})
}

func (s *service) RemoveItem(ctx context.Context, current *sale.Sale, itemID uuid.UUID) (*sale.Sale, error) {
	if err := requireLine(current, itemID); err != nil {
		return nil, err
	}
	return s.gw.RemoveItem(ctx, current.ID, itemID)
}

// requireLine rejects edits on non-draft sales and on lines the snapshot does not hold.
func requireLine(current *sale.Sale, itemID uuid.UUID) error {
	if err := sale.RequireDraft(current); err != nil {
		return err
	}
	if _, ok := current.FindItem(itemID); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found on this sale").
			WithDetails(map[string]any{"item_id": itemID})
	}
	return nil
}
