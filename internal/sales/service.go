package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/metrics"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/pagination"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

const createSaleAttempts = 3

// Service is the authoritative owner of sale state. Every mutation recomputes totals
// server-side and returns the full aggregate.
type Service interface {
	CreateSale(ctx context.Context, cashierID uuid.UUID, req sale.CreateSaleRequest) (*sale.Sale, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	ListSales(ctx context.Context, input ListInput) (*sale.SalePage, error)
	AddItem(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error)
	UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error)
	RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error)
	ApplyDiscount(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error)
	CompleteSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	VoidSale(ctx context.Context, cashierID, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error)
}

// ListInput describes the resume list request.
type ListInput struct {
	CashierID  uuid.UUID
	Status     *enums.SaleStatus
	Pagination pagination.Params
}

// ServiceParams bundles the dependencies required to build the sales service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Products productLookup
	Numbers  NumberGenerator
	Config   config.SalesConfig
	Metrics  *metrics.SalesMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLookup
	numbers  NumberGenerator
	taxBps   int64
	metrics  *metrics.SalesMetrics
	logg     *logger.Logger
	now      clock
}

// NewService builds the sales service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Numbers == nil {
		return nil, fmt.Errorf("sale number generator required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		numbers:  params.Numbers,
		taxBps:   params.Config.TaxRateBps,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) CreateSale(ctx context.Context, cashierID uuid.UUID, req sale.CreateSaleRequest) (*sale.Sale, error) {
	if cashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier identity missing")
	}

	var lastErr error
	for attempt := 0; attempt < createSaleAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate sale number")
		}
		record := &models.Sale{
			SaleNumber: number,
			CashierID:  cashierID,
			CustomerID: req.CustomerID,
			Status:     enums.SaleStatusDraft,
			Version:    1,
		}
		err = s.repo.CreateSale(ctx, record)
		if err == nil {
			s.metrics.IncCreated()
			out := record.ToDomain()
			return &out, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique sale number")
}

func (s *service) GetSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	record, err := loadSale(ctx, s.repo, saleID)
	if err != nil {
		return nil, err
	}
	out := record.ToDomain()
	return &out, nil
}

func (s *service) ListSales(ctx context.Context, input ListInput) (*sale.SalePage, error) {
	if input.CashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier identity missing")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.ListSales(ctx, ListQuery{
		CashierID: input.CashierID,
		Status:    input.Status,
		Limit:     input.Pagination.Limit,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	items := make([]sale.Sale, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToDomain())
	}
	return &sale.SalePage{Items: items, NextCursor: next}, nil
}

func (s *service) AddItem(ctx context.Context, saleID uuid.UUID, req sale.AddItemRequest) (*sale.Sale, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = sale.DefaultQuantity
	}
	if err := sale.CheckQuantity(quantity); err != nil {
		return nil, err
	}
	var discount money.Cents
	if req.DiscountAmount != nil {
		discount = *req.DiscountAmount
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for sale")
	}
	lineTotal, err := sale.CheckLine(product.UnitPrice, quantity, discount)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, saleID, func(repo Repository, record *models.Sale) error {
		position, err := repo.NextItemPosition(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate item position")
		}
		item := models.SaleItem{
			SaleID:         record.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			Quantity:       quantity,
			UnitPrice:      product.UnitPrice,
			DiscountAmount: discount,
			LineTotal:      lineTotal,
			Position:       position,
		}
		if err := repo.InsertItem(ctx, &item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale item")
		}
		record.Items = append(record.Items, item)
		return nil
	})
}

func (s *service) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req sale.UpdateItemRequest) (*sale.Sale, error) {
	if req.Quantity == nil && req.DiscountAmount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity or discount_amount is required")
	}
	if req.Quantity != nil {
		if err := sale.CheckQuantity(*req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.DiscountAmount != nil && req.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "discount must not be negative")
	}

	return s.mutate(ctx, saleID, func(repo Repository, record *models.Sale) error {
		item := findItem(record, itemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale item not found")
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.DiscountAmount != nil {
			item.DiscountAmount = *req.DiscountAmount
		}
		lineTotal, err := sale.CheckLine(item.UnitPrice, item.Quantity, item.DiscountAmount)
		if err != nil {
			return err
		}
		item.LineTotal = lineTotal
		if err := repo.UpdateItem(ctx, item); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale item")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*sale.Sale, error) {
	return s.mutate(ctx, saleID, func(repo Repository, record *models.Sale) error {
		if findItem(record, itemID) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale item not found")
		}
		if err := repo.DeleteItem(ctx, record.ID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sale item")
		}
		kept := record.Items[:0]
		for _, item := range record.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		record.Items = kept
		return nil
	})
}

func (s *service) ApplyDiscount(ctx context.Context, saleID uuid.UUID, req sale.ApplyDiscountRequest) (*sale.Sale, error) {
	if req.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "discount must not be negative")
	}

	return s.mutate(ctx, saleID, func(repo Repository, record *models.Sale) error {
		subtotal := sale.ComputeTotals(itemsOf(record), 0, 0).Subtotal
		if req.DiscountAmount > subtotal {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal").
				WithDetails(map[string]any{
					"discount_amount": req.DiscountAmount,
					"subtotal":        subtotal,
				})
		}
		record.DiscountAmount = req.DiscountAmount
		return nil
	})
}

func (s *service) CompleteSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	out, err := s.transition(ctx, saleID, enums.SaleStatusCompleted, func(repo Repository, record *models.Sale) error {
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale has no items")
		}
		paid, err := repo.SumPayments(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		if remaining := sale.RemainingBalance(record.TotalAmount, paid); remaining > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not fully paid").
				WithDetails(map[string]any{
					"total_amount":      record.TotalAmount,
					"total_paid":        paid,
					"remaining_balance": remaining,
				})
		}
		now := s.now().UTC()
		record.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncCompleted()
	s.info(ctx, out.ID, "sale completed")
	return out, nil
}

func (s *service) VoidSale(ctx context.Context, cashierID, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "void reason is required")
	}
	if cashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier identity missing")
	}

	var from enums.SaleStatus
	out, err := s.transition(ctx, saleID, enums.SaleStatusVoided, func(repo Repository, record *models.Sale) error {
		from = record.Status
		now := s.now().UTC()
		voidedBy := cashierID
		record.VoidedAt = &now
		record.VoidedBy = &voidedBy
		record.VoidReason = &reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncVoided(from.String())
	s.info(ctx, out.ID, "sale voided")
	return out, nil
}

// mutate runs a cart edit on a draft sale inside a transaction, recomputes totals and
// persists the header with a version check.
func (s *service) mutate(ctx context.Context, saleID uuid.UUID, fn func(repo Repository, record *models.Sale) error) (*sale.Sale, error) {
	var out sale.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := loadSale(ctx, repo, saleID)
		if err != nil {
			return err
		}
		snapshot := record.ToDomain()
		if err := sale.RequireDraft(&snapshot); err != nil {
			return err
		}

		expected := record.Version
		if err := fn(repo, record); err != nil {
			return err
		}
		if err := s.recompute(ctx, record); err != nil {
			return err
		}
		if err := saveSale(ctx, repo, record, expected); err != nil {
			return err
		}
		out = record.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// transition moves a sale between statuses after the state machine and fn agree.
func (s *service) transition(ctx context.Context, saleID uuid.UUID, to enums.SaleStatus, fn func(repo Repository, record *models.Sale) error) (*sale.Sale, error) {
	var out sale.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := loadSale(ctx, repo, saleID)
		if err != nil {
			return err
		}
		if err := sale.CheckTransition(record.Status, to); err != nil {
			return err
		}

		expected := record.Version
		if err := fn(repo, record); err != nil {
			return err
		}
		record.Status = to
		if err := s.checkInvariants(ctx, record.ToDomain()); err != nil {
			return err
		}
		if err := saveSale(ctx, repo, record, expected); err != nil {
			return err
		}
		out = record.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// recompute derives the header totals from the lines and refuses to persist an aggregate
// that breaks the money invariants.
func (s *service) recompute(ctx context.Context, record *models.Sale) error {
	derived := record.ToDomain()
	derived.Recompute(s.taxBps)
	if err := s.checkInvariants(ctx, derived); err != nil {
		return err
	}
	record.Subtotal = derived.Subtotal
	record.DiscountAmount = derived.DiscountAmount
	record.TaxAmount = derived.TaxAmount
	record.TotalAmount = derived.TotalAmount
	return nil
}

func (s *service) checkInvariants(ctx context.Context, derived sale.Sale) error {
	err := derived.CheckInvariants()
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithSaleID(ctx, derived.ID.String()), "sale rejected by invariant check", err)
	}
	return err
}

func (s *service) info(ctx context.Context, saleID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithSaleID(ctx, saleID.String()), msg)
}

func loadSale(ctx context.Context, repo Repository, saleID uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	record, err := repo.FindSale(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return record, nil
}

func saveSale(ctx context.Context, repo Repository, record *models.Sale, expected int64) error {
	if err := repo.SaveSale(ctx, record, expected); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sale was modified concurrently; reload and retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
	}
	return nil
}

func findItem(record *models.Sale, itemID uuid.UUID) *models.SaleItem {
	for i := range record.Items {
		if record.Items[i].ID == itemID {
			return &record.Items[i]
		}
	}
	return nil
}

func itemsOf(record *models.Sale) []sale.SaleItem {
	items := make([]sale.SaleItem, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, item.ToDomain())
	}
	return items
}
