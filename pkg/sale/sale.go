// Package sale holds the sale aggregate shared by the till client and the backend:
// wire types, the totals rule, payment reconciliation helpers and the status machine.
package sale

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
)

// Sale is one customer transaction. Items keep insertion order.
type Sale struct {
	ID             uuid.UUID        `json:"id"`
	SaleNumber     string           `json:"sale_number"`
	CashierID      uuid.UUID        `json:"cashier_id"`
	CustomerID     *uuid.UUID       `json:"customer_id,omitempty"`
	Status         enums.SaleStatus `json:"status"`
	Subtotal       money.Cents      `json:"subtotal"`
	DiscountAmount money.Cents      `json:"discount_amount"`
	TaxAmount      money.Cents      `json:"tax_amount"`
	TotalAmount    money.Cents      `json:"total_amount"`
	VoidedAt       *time.Time       `json:"voided_at,omitempty"`
	VoidedBy       *uuid.UUID       `json:"voided_by,omitempty"`
	VoidReason     *string          `json:"void_reason,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Version        int64            `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Items          []SaleItem       `json:"items"`
}

// SaleItem is one product line. Name, SKU and unit price are captured when the line is added.
type SaleItem struct {
	ID             uuid.UUID   `json:"id"`
	SaleID         uuid.UUID   `json:"sale_id"`
	ProductID      uuid.UUID   `json:"product_id"`
	ProductName    string      `json:"product_name"`
	ProductSKU     string      `json:"product_sku"`
	Quantity       int         `json:"quantity"`
	UnitPrice      money.Cents `json:"unit_price"`
	DiscountAmount money.Cents `json:"discount_amount"`
	LineTotal      money.Cents `json:"line_total"`
}

// Payment is one tender applied toward a sale.
type Payment struct {
	ID              uuid.UUID           `json:"id"`
	SaleID          uuid.UUID           `json:"sale_id"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Amount          money.Cents         `json:"amount"`
	ReferenceNumber *string             `json:"reference_number,omitempty"`
	ChangeAmount    money.Cents         `json:"change_amount"`
	CreatedAt       time.Time           `json:"created_at"`
}

// PaymentSummary reconciles the tenders recorded against a sale total.
type PaymentSummary struct {
	SaleID           uuid.UUID   `json:"sale_id"`
	TotalAmount      money.Cents `json:"total_amount"`
	TotalPaid        money.Cents `json:"total_paid"`
	RemainingBalance money.Cents `json:"remaining_balance"`
	Payments         []Payment   `json:"payments"`
}

// Product is the catalog view the till searches and adds from.
type Product struct {
	ID        uuid.UUID   `json:"id"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	UnitPrice money.Cents `json:"unit_price"`
	IsActive  bool        `json:"is_active"`
}

// ProductPage is one page of search results.
type ProductPage struct {
	Items      []Product `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// SalePage is one page of the cashier's sales.
type SalePage struct {
	Items      []Sale `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// IsDraft reports whether the sale still accepts cart edits.
func (s *Sale) IsDraft() bool {
	return s != nil && s.Status == enums.SaleStatusDraft
}

// FindItem returns the line with the given id.
func (s *Sale) FindItem(itemID uuid.UUID) (*SaleItem, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so snapshots never share item slices or pointers.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	out := *s
	out.CustomerID = cloneUUID(s.CustomerID)
	out.VoidedBy = cloneUUID(s.VoidedBy)
	out.VoidedAt = cloneTime(s.VoidedAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	if s.VoidReason != nil {
		reason := *s.VoidReason
		out.VoidReason = &reason
	}
	if s.Items != nil {
		out.Items = make([]SaleItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return &out
}

// Clone returns a deep copy of the summary.
func (p *PaymentSummary) Clone() *PaymentSummary {
	if p == nil {
		return nil
	}
	out := *p
	if p.Payments != nil {
		out.Payments = make([]Payment, len(p.Payments))
		for i, payment := range p.Payments {
			if payment.ReferenceNumber != nil {
				ref := *payment.ReferenceNumber
				payment.ReferenceNumber = &ref
			}
			out.Payments[i] = payment
		}
	}
	return &out
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
