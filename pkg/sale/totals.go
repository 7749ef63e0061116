package sale

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
)

// bpsDenominator converts basis points into a fraction.
var bpsDenominator = decimal.NewFromInt(10000)

// Totals is the derived money state of a sale.
type Totals struct {
	Subtotal money.Cents
	Discount money.Cents
	Tax      money.Cents
	Total    money.Cents
}

// LineTotal is unit price times quantity minus the line discount. Inputs must already
// have passed CheckLine.
func LineTotal(unitPrice money.Cents, quantity int, discount money.Cents) money.Cents {
	return money.MulQty(unitPrice, quantity) - discount
}

// CheckQuantity enforces 1 <= quantity <= MaxQuantity.
func CheckQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity)).
			WithDetails(map[string]any{"quantity": quantity})
	}
	return nil
}

// CheckLine validates one line and returns its total.
func CheckLine(unitPrice money.Cents, quantity int, discount money.Cents) (money.Cents, error) {
	if err := CheckQuantity(quantity); err != nil {
		return 0, err
	}
	if discount.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, "line discount must not be negative")
	}
	gross, err := money.MulQtyChecked(unitPrice, quantity)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "line amount out of range").
			WithDetails(map[string]any{"unit_price": unitPrice, "quantity": quantity})
	}
	if discount > gross {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds line amount").
			WithDetails(map[string]any{"discount_amount": discount, "line_amount": gross})
	}
	return gross - discount, nil
}

// ComputeTotals derives subtotal, tax and total from the lines and a sale-level discount.
// The discount is clamped to the subtotal; tax applies to the discounted subtotal and is
// rounded half away from zero.
func ComputeTotals(items []SaleItem, discount money.Cents, taxRateBps int64) Totals {
	var subtotal money.Cents
	for _, item := range items {
		subtotal += LineTotal(item.UnitPrice, item.Quantity, item.DiscountAmount)
	}
	subtotal = money.Max(subtotal, money.Zero)
	discount = money.Min(money.Max(discount, money.Zero), subtotal)

	taxable := subtotal - discount
	tax := ComputeTax(taxable, taxRateBps)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable + tax,
	}
}

// ComputeTax applies a basis-point rate to an amount.
func ComputeTax(taxable money.Cents, taxRateBps int64) money.Cents {
	if taxable <= 0 || taxRateBps <= 0 {
		return money.Zero
	}
	amount := decimal.NewFromInt(taxable.Int64()).
		Mul(decimal.NewFromInt(taxRateBps)).
		Div(bpsDenominator).
		Round(0)
	return money.Cents(amount.IntPart())
}

// Recompute refreshes every line total and the sale totals in place.
func (s *Sale) Recompute(taxRateBps int64) {
	if s == nil {
		return
	}
	for i := range s.Items {
		item := &s.Items[i]
		item.LineTotal = LineTotal(item.UnitPrice, item.Quantity, item.DiscountAmount)
	}
	totals := ComputeTotals(s.Items, s.DiscountAmount, taxRateBps)
	s.Subtotal = totals.Subtotal
	s.DiscountAmount = totals.Discount
	s.TaxAmount = totals.Tax
	s.TotalAmount = totals.Total
}

// CheckInvariants verifies the money relations a well-formed sale always satisfies.
// Amounts out of range are VALIDATION errors; anything else is an inconsistency.
func (s *Sale) CheckInvariants() error {
	if s == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}

	lineTotals := make([]money.Cents, 0, len(s.Items))
	for _, item := range s.Items {
		if item.UnitPrice < 0 {
			return inconsistent("item %s has a negative unit price", item.ID)
		}
		want, err := CheckLine(item.UnitPrice, item.Quantity, item.DiscountAmount)
		if err != nil {
			return err
		}
		if item.LineTotal != want {
			return inconsistent("item %s line total %d, expected %d", item.ID, item.LineTotal, want)
		}
		lineTotals = append(lineTotals, item.LineTotal)
	}
	subtotal, err := money.SumChecked(lineTotals...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "sale subtotal out of range")
	}

	switch {
	case s.Subtotal != subtotal:
		return inconsistent("subtotal %d does not match line totals %d", s.Subtotal, subtotal)
	case s.DiscountAmount < 0 || s.TaxAmount < 0:
		return inconsistent("discount and tax must be non-negative")
	case s.DiscountAmount > s.Subtotal:
		return inconsistent("discount %d exceeds subtotal %d", s.DiscountAmount, s.Subtotal)
	case s.TotalAmount != s.Subtotal-s.DiscountAmount+s.TaxAmount:
		return inconsistent("total %d != subtotal %d - discount %d + tax %d", s.TotalAmount, s.Subtotal, s.DiscountAmount, s.TaxAmount)
	case s.TotalAmount < 0:
		return inconsistent("total %d is negative", s.TotalAmount)
	}
	return nil
}

func inconsistent(format string, args ...any) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "inconsistent sale totals: "+fmt.Sprintf(format, args...))
}
