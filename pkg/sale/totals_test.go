package sale

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
)

func item(unit money.Cents, qty int, discount money.Cents) SaleItem {
	return SaleItem{
		ID:             uuid.New(),
		UnitPrice:      unit,
		Quantity:       qty,
		DiscountAmount: discount,
		LineTotal:      LineTotal(unit, qty, discount),
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(450, 3, 100); got != 1250 {
		t.Fatalf("expected 1250 got %d", got)
	}
	if got := LineTotal(450, 1, 0); got != 450 {
		t.Fatalf("expected 450 got %d", got)
	}
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		items    []SaleItem
		discount money.Cents
		bps      int64
		want     Totals
	}{
		{
			name:     "no tax with discount",
			items:    []SaleItem{item(5000, 1, 0), item(1750, 2, 0)},
			discount: 500,
			want:     Totals{Subtotal: 8500, Discount: 500, Tax: 0, Total: 8000},
		},
		{
			name:     "tax on discounted subtotal",
			items:    []SaleItem{item(8500, 1, 0)},
			discount: 500,
			bps:      1000,
			want:     Totals{Subtotal: 8500, Discount: 500, Tax: 800, Total: 8800},
		},
		{
			name:  "half cent rounds away from zero",
			items: []SaleItem{item(125, 1, 0)},
			bps:   1000,
			want:  Totals{Subtotal: 125, Discount: 0, Tax: 13, Total: 138},
		},
		{
			name:     "discount clamped to subtotal",
			items:    []SaleItem{item(300, 1, 0)},
			discount: 1000,
			bps:      825,
			want:     Totals{Subtotal: 300, Discount: 300, Tax: 0, Total: 0},
		},
		{
			name:  "empty cart",
			items: nil,
			bps:   825,
			want:  Totals{},
		},
		{
			name:  "line discount reduces subtotal",
			items: []SaleItem{item(1000, 2, 250)},
			want:  Totals{Subtotal: 1750, Total: 1750},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.items, tc.discount, tc.bps)
			if got != tc.want {
				t.Fatalf("expected %+v got %+v", tc.want, got)
			}
			if got.Total != got.Subtotal-got.Discount+got.Tax {
				t.Fatalf("total invariant broken: %+v", got)
			}
		})
	}
}

func TestRecomputeAndInvariants(t *testing.T) {
	s := &Sale{
		ID: uuid.New(),
		Items: []SaleItem{
			{ID: uuid.New(), UnitPrice: 5000, Quantity: 1},
			{ID: uuid.New(), UnitPrice: 1750, Quantity: 2},
		},
		DiscountAmount: 500,
	}
	s.Recompute(0)

	if s.Subtotal != 8500 || s.TotalAmount != 8000 {
		t.Fatalf("unexpected totals subtotal=%d total=%d", s.Subtotal, s.TotalAmount)
	}
	if s.Items[1].LineTotal != 3500 {
		t.Fatalf("expected line total 3500 got %d", s.Items[1].LineTotal)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("recomputed sale should satisfy invariants: %v", err)
	}

	s.TotalAmount++
	err := s.CheckInvariants()
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error for tampered total, got %v", err)
	}
}

func TestCheckInvariantsRejectsDiscountAboveSubtotal(t *testing.T) {
	s := &Sale{
		Items:          []SaleItem{item(100, 1, 0)},
		Subtotal:       100,
		DiscountAmount: 200,
		TotalAmount:    -100,
	}
	if err := s.CheckInvariants(); err == nil {
		t.Fatalf("expected invariant violation")
	}
}

func TestCheckInvariantsRejectsZeroQuantity(t *testing.T) {
	s := &Sale{Items: []SaleItem{{ID: uuid.New(), UnitPrice: 100, Quantity: 0}}}
	if err := s.CheckInvariants(); err == nil {
		t.Fatalf("expected quantity violation")
	}
}

func TestCheckLineBoundsQuantityAndAmount(t *testing.T) {
	if got, err := CheckLine(450, 3, 100); err != nil || got != 1250 {
		t.Fatalf("CheckLine = %d, %v", got, err)
	}
	if _, err := CheckLine(450, MaxQuantity+1, 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected quantity ceiling, got %v", err)
	}
	if _, err := CheckLine(money.MaxAmount, 2, 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected line amount out of range, got %v", err)
	}
	if _, err := CheckLine(450, 1, -1); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount for negative discount, got %v", err)
	}
}

func TestCheckInvariantsCatchesWrappedLineTotal(t *testing.T) {
	s := &Sale{Items: []SaleItem{{ID: uuid.New(), UnitPrice: 450, Quantity: 40992764608243450, LineTotal: 884}}}
	s.Subtotal, s.TotalAmount = 884, 884
	if err := s.CheckInvariants(); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
