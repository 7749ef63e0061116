package sale

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
)

// TotalPaid sums every tendered amount.
func TotalPaid(payments []Payment) money.Cents {
	var paid money.Cents
	for _, p := range payments {
		paid += p.Amount
	}
	return paid
}

// RemainingBalance is total minus paid, floored at zero.
func RemainingBalance(total, paid money.Cents) money.Cents {
	return money.SubFloor(total, paid)
}

// ChangePreview is the cash handed back for a tender against the balance owed before it.
// Card and e-wallet tenders never produce change.
func ChangePreview(method enums.PaymentMethod, amount, remainingBefore money.Cents) money.Cents {
	if !method.GivesChange() {
		return money.Zero
	}
	return money.SubFloor(amount, remainingBefore)
}

// NewPaymentSummary reconciles payments against a sale total.
func NewPaymentSummary(saleID uuid.UUID, total money.Cents, payments []Payment) PaymentSummary {
	paid := TotalPaid(payments)
	if payments == nil {
		payments = []Payment{}
	}
	return PaymentSummary{
		SaleID:           saleID,
		TotalAmount:      total,
		TotalPaid:        paid,
		RemainingBalance: RemainingBalance(total, paid),
		Payments:         payments,
	}
}

// IsFullyPaid reports whether nothing remains owed.
func (p PaymentSummary) IsFullyPaid() bool {
	return p.RemainingBalance == 0
}
