package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/internal/sales"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/metrics"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type Service interface {
	AddPayment(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error)
	GetSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo    Repository
	Sales   sales.Repository
	Tx      txRunner
	Metrics *metrics.SalesMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	sales   sales.Repository
	tx      txRunner
	metrics *metrics.SalesMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		sales:   params.Sales,
		tx:      params.Tx,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// AddPayment records a tender against a draft sale. Cash may exceed the balance and
// produces change; other methods must not exceed it and need a reference.
func (s *service) AddPayment(ctx context.Context, saleID uuid.UUID, req sale.AddPaymentRequest) (*sale.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment amount must be greater than zero")
	}
	if !money.InRange(req.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment amount out of range")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
	}
	reference := normalizeReference(req.PaymentMethod, req.ReferenceNumber)
	if req.PaymentMethod.RequiresReference() && reference == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference_number is required for non-cash payments")
	}

	var out sale.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		salesRepo := s.sales.WithTx(tx)
		record, err := salesRepo.FindSale(ctx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		snapshot := record.ToDomain()
		if err := sale.RequireDraft(&snapshot); err != nil {
			return err
		}

		paid, err := salesRepo.SumPayments(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		remaining := sale.RemainingBalance(record.TotalAmount, paid)
		if remaining == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is already fully paid").
				WithDetails(map[string]any{"total_amount": record.TotalAmount, "total_paid": paid})
		}
		if !req.PaymentMethod.GivesChange() && req.Amount > remaining {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds remaining balance").
				WithDetails(map[string]any{"amount": req.Amount, "remaining_balance": remaining})
		}

		payments := s.repo.WithTx(tx)
		sequence, err := payments.NextSequence(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate payment sequence")
		}
		payment := &models.Payment{
			SaleID:          record.ID,
			Sequence:        sequence,
			PaymentMethod:   req.PaymentMethod,
			Amount:          req.Amount,
			ReferenceNumber: reference,
			ChangeAmount:    sale.ChangePreview(req.PaymentMethod, req.Amount, remaining),
		}
		if err := payments.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		if err := salesRepo.SaveSale(ctx, record, record.Version); err != nil {
			if errors.Is(err, sales.ErrVersionConflict) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sale was modified concurrently; reload and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
		}
		out = payment.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePayment(out.PaymentMethod.String(), out.Amount)
	if s.logg != nil {
		ctx = s.logg.WithFields(s.logg.WithSaleID(ctx, saleID.String()), map[string]any{
			"payment_method": out.PaymentMethod.String(),
			"amount":         out.Amount.Int64(),
		})
		s.logg.Info(ctx, "payment recorded")
	}
	return &out, nil
}

func (s *service) GetSummary(ctx context.Context, saleID uuid.UUID) (*sale.PaymentSummary, error) {
	record, err := s.sales.FindSale(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	rows, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	payments := make([]sale.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.ToDomain())
	}
	summary := sale.NewPaymentSummary(record.ID, record.TotalAmount, payments)
	return &summary, nil
}

func normalizeReference(method enums.PaymentMethod, ref *string) *string {
	if method.IsCash() || ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
