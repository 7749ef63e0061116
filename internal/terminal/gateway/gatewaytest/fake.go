// Package gatewaytest provides a scriptable in-memory stand-in for the sale gateway.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/internal/terminal/gateway"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// Fake implements every gateway method through optional func fields. Calls to an
// unset field fail with an internal error naming the method, so tests notice
// unexpected network traffic.
type Fake struct {
	CreateSaleFn        func(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error)
	GetSaleFn           func(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	ListSalesFn         func(ctx context.Context, params gateway.ListParams) (*sale.SalePage, error)
	AddItemFn           func(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error)
	UpdateItemFn        func(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error)
	RemoveItemFn        func(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error)
	ApplyDiscountFn     func(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error)
	CompleteSaleFn      func(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	VoidSaleFn          func(ctx context.Context, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error)
	AddPaymentFn        func(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error)
	GetPaymentSummaryFn func(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error)
	SearchProductsFn    func(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error)

	mu    sync.Mutex
	calls []string
}

// Calls returns the method names invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func unexpected(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unexpected gateway call %s", name))
}

func (f *Fake) CreateSale(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error) {
	f.record("CreateSale")
	if f.CreateSaleFn == nil {
		return nil, unexpected("CreateSale")
	}
	return f.CreateSaleFn(ctx, req)
}

func (f *Fake) GetSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	f.record("GetSale")
	if f.GetSaleFn == nil {
		return nil, unexpected("GetSale")
	}
	return f.GetSaleFn(ctx, saleID)
}

func (f *Fake) ListSales(ctx context.Context, params gateway.ListParams) (*sale.SalePage, error) {
	f.record("ListSales")
	if f.ListSalesFn == nil {
		return nil, unexpected("ListSales")
	}
	return f.ListSalesFn(ctx, params)
}

func (f *Fake) AddItem(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error) {
	f.record("AddItem")
	if f.AddItemFn == nil {
		return nil, unexpected("AddItem")
	}
	return f.AddItemFn(ctx, saleID, req)
}

func (f *Fake) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error) {
	f.record("UpdateItem")
	if f.UpdateItemFn == nil {
		return nil, unexpected("UpdateItem")
	}
	return f.UpdateItemFn(ctx, saleID, itemID, req)
}

func (f *Fake) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error) {
	f.record("RemoveItem")
	if f.RemoveItemFn == nil {
		return nil, unexpected("RemoveItem")
	}
	return f.RemoveItemFn(ctx, saleID, itemID)
}

func (f *Fake) ApplyDiscount(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error) {
	f.record("ApplyDiscount")
	if f.ApplyDiscountFn == nil {
		return nil, unexpected("ApplyDiscount")
	}
	return f.ApplyDiscountFn(ctx, saleID, req)
}

func (f *Fake) CompleteSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	f.record("CompleteSale")
	if f.CompleteSaleFn == nil {
		return nil, unexpected("CompleteSale")
	}
	return f.CompleteSaleFn(ctx, saleID)
}

func (f *Fake) VoidSale(ctx context.Context, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error) {
	f.record("VoidSale")
	if f.VoidSaleFn == nil {
		return nil, unexpected("VoidSale")
	}
	return f.VoidSaleFn(ctx, saleID, req)
}

func (f *Fake) AddPayment(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error) {
	f.record("AddPayment")
	if f.AddPaymentFn == nil {
		return nil, unexpected("AddPayment")
	}
	return f.AddPaymentFn(ctx, saleID, req)
}

func (f *Fake) GetPaymentSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error) {
	f.record("GetPaymentSummary")
	if f.GetPaymentSummaryFn == nil {
		return nil, unexpected("GetPaymentSummary")
	}
	return f.GetPaymentSummaryFn(ctx, saleID)
}

func (f *Fake) SearchProducts(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error) {
	f.record("SearchProducts")
	if f.SearchProductsFn == nil {
		return nil, unexpected("SearchProducts")
	}
	return f.SearchProductsFn(ctx, query, limit, cursor)
}

// DraftSale builds a draft sale snapshot with the given items.
func DraftSale(items ...sale.SaleItem) *sale.Sale {
	s := &sale.Sale{ID: uuid.New(), Status: enums.SaleStatusDraft, Items: items}
	for i := range s.Items {
		s.Items[i].SaleID = s.ID
		s.Subtotal += s.Items[i].LineTotal
	}
	s.TotalAmount = s.Subtotal
	return s
}

// Item builds a priced line without a discount.
func Item(unitPrice money.Cents, quantity int) sale.SaleItem {
	return sale.SaleItem{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: sale.LineTotal(unitPrice, quantity, 0),
	}
}
