package sale

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
)

func TestNewPaymentSummary(t *testing.T) {
	saleID := uuid.New()

	summary := NewPaymentSummary(saleID, 8000, nil)
	if summary.RemainingBalance != 8000 || summary.TotalPaid != 0 || summary.IsFullyPaid() {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
	if summary.Payments == nil {
		t.Fatalf("payments should encode as an empty list")
	}

	summary = NewPaymentSummary(saleID, 8000, []Payment{
		{Amount: 3000, PaymentMethod: enums.PaymentMethodCard},
		{Amount: 10000, PaymentMethod: enums.PaymentMethodCash, ChangeAmount: 5000},
	})
	if summary.TotalPaid != 13000 {
		t.Fatalf("expected paid 13000 got %d", summary.TotalPaid)
	}
	if summary.RemainingBalance != 0 || !summary.IsFullyPaid() {
		t.Fatalf("overpaid sale should have zero remaining: %+v", summary)
	}
}

func TestRemainingBalanceInvariant(t *testing.T) {
	for _, tc := range []struct{ total, paid, want money.Cents }{
		{8000, 0, 8000},
		{8000, 7999, 1},
		{8000, 8000, 0},
		{8000, 10000, 0},
	} {
		if got := RemainingBalance(tc.total, tc.paid); got != tc.want {
			t.Fatalf("RemainingBalance(%d,%d)=%d want %d", tc.total, tc.paid, got, tc.want)
		}
	}
}

func TestChangePreview(t *testing.T) {
	cases := []struct {
		method    enums.PaymentMethod
		amount    money.Cents
		remaining money.Cents
		want      money.Cents
	}{
		{enums.PaymentMethodCash, 10000, 8500, 1500},
		{enums.PaymentMethodCash, 5000, 8500, 0},
		{enums.PaymentMethodCash, 8500, 8500, 0},
		{enums.PaymentMethodCard, 10000, 8500, 0},
		{enums.PaymentMethodEWallet, 10000, 8500, 0},
	}
	for _, tc := range cases {
		if got := ChangePreview(tc.method, tc.amount, tc.remaining); got != tc.want {
			t.Fatalf("ChangePreview(%s,%d,%d)=%d want %d", tc.method, tc.amount, tc.remaining, got, tc.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	reason := "spill"
	original := &Sale{
		ID:         uuid.New(),
		VoidReason: &reason,
		Items:      []SaleItem{{ID: uuid.New(), Quantity: 1}},
	}
	clone := original.Clone()
	clone.Items[0].Quantity = 5
	*clone.VoidReason = "changed"

	if original.Items[0].Quantity != 1 {
		t.Fatalf("clone shares item storage")
	}
	if *original.VoidReason != "spill" {
		t.Fatalf("clone shares void reason")
	}
	if _, ok := original.FindItem(original.Items[0].ID); !ok {
		t.Fatalf("FindItem should locate existing line")
	}
	if _, ok := original.FindItem(uuid.New()); ok {
		t.Fatalf("FindItem should miss unknown line")
	}
}
