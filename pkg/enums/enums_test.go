package enums

import "testing"

func TestParseSaleStatus(t *testing.T) {
	for _, raw := range []string{"draft", "completed", "voided"} {
		status, err := ParseSaleStatus(raw)
		if err != nil {
			t.Fatalf("ParseSaleStatus(%q) unexpected error: %v", raw, err)
		}
		if status.String() != raw {
			t.Fatalf("expected %q got %q", raw, status)
		}
	}
	if _, err := ParseSaleStatus("DRAFT"); err == nil {
		t.Fatalf("status tokens are lowercase only")
	}
}

func TestSaleStatusTerminal(t *testing.T) {
	if SaleStatusDraft.IsTerminal() {
		t.Fatalf("draft must not be terminal")
	}
	if !SaleStatusCompleted.IsTerminal() || !SaleStatusVoided.IsTerminal() {
		t.Fatalf("completed and voided are terminal")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("e_wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != PaymentMethodEWallet || method.IsCash() {
		t.Fatalf("unexpected method %q", method)
	}
	if !PaymentMethodCash.IsCash() {
		t.Fatalf("cash should report IsCash")
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatalf("expected unknown method to fail")
	}
	if PaymentMethod("").IsValid() {
		t.Fatalf("empty method must be invalid")
	}
}

func TestPaymentMethodRules(t *testing.T) {
	cases := []struct {
		method    PaymentMethod
		change    bool
		reference bool
	}{
		{PaymentMethodCash, true, false},
		{PaymentMethodCard, false, true},
		{PaymentMethodEWallet, false, true},
		{PaymentMethod("cheque"), false, false},
	}
	for _, tc := range cases {
		if got := tc.method.GivesChange(); got != tc.change {
			t.Errorf("%s GivesChange = %v", tc.method, got)
		}
		if got := tc.method.RequiresReference(); got != tc.reference {
			t.Errorf("%s RequiresReference = %v", tc.method, got)
		}
	}
	if got := PaymentMethodNames(); len(got) != 3 || got[2] != "e_wallet" {
		t.Fatalf("unexpected names %v", got)
	}
}
