// Package ledger records tenders against the current sale and keeps the payment
// summary in step with the server.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type gateway interface {
	AddPayment(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error)
	GetPaymentSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error)
}

// Tender is one payment as entered at the till.
type Tender struct {
	Method    enums.PaymentMethod
	Amount    money.Cents
	Reference string
}

// Result is a recorded payment. Summary is nil when the post-payment refresh failed.
type Result struct {
	Payment       *sale.Payment
	Summary       *sale.PaymentSummary
	ChangePreview money.Cents
}

type Service interface {
	GetSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error)
	AddPayment(ctx context.Context, before sale.PaymentSummary, tender Tender) (*Result, error)
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

func (s *service) GetSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}
	return s.gw.GetPaymentSummary(ctx, saleID)
}

// AddPayment submits the tender and re-reads the summary. When the payment is accepted
// but the refresh fails, the payment is returned with a dependency error so the caller
// shows it as recorded instead of tendering again.
func (s *service) AddPayment(ctx context.Context, before sale.PaymentSummary, tender Tender) (*Result, error) {
	if err := ValidateTender(tender); err != nil {
		return nil, err
	}
	if before.SaleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}

	payment, err := s.gw.AddPayment(ctx, before.SaleID, requestFor(tender))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Payment:       payment,
		ChangePreview: ChangePreview(before, tender),
	}

	summary, err := s.gw.GetPaymentSummary(ctx, before.SaleID)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment recorded but the balance could not be refreshed").
			WithDetails(map[string]any{"payment_id": payment.ID})
	}
	result.Summary = summary
	return result, nil
}

// ChangePreview is the change a tender would produce against the balance in before.
func ChangePreview(before sale.PaymentSummary, tender Tender) money.Cents {
	return sale.ChangePreview(tender.Method, tender.Amount, before.RemainingBalance)
}

// ValidateTender applies the checks that never need the server.
func ValidateTender(tender Tender) error {
	if !tender.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment amount must be greater than zero").
			WithDetails(map[string]any{"amount": tender.Amount})
	}
	if !tender.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", tender.Method)).
			WithDetails(map[string]any{"payment_method": tender.Method})
	}
	return nil
}

// ParseTender builds a tender from typed input, e.g. ("cash", "100.00", "").
func ParseTender(method, amount, reference string) (Tender, error) {
	parsedMethod, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(method)))
	if err != nil {
		return Tender{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	cents, err := money.ParseToCents(amount)
	if err != nil {
		return Tender{}, err
	}
	return Tender{Method: parsedMethod, Amount: cents, Reference: strings.TrimSpace(reference)}, nil
}

func requestFor(tender Tender) sale.AddPaymentRequest {
	req := sale.AddPaymentRequest{
		PaymentMethod: tender.Method,
		Amount:        tender.Amount,
	}
	if tender.Method.RequiresReference() {
		if ref := strings.TrimSpace(tender.Reference); ref != "" {
			req.ReferenceNumber = &ref
		}
	}
	return req
}
