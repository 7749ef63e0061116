package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/internal/products"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db"
	"github.com/angelmondragon/cafepos/pkg/db/dbtest"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/metrics"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/pagination"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type scriptedNumbers struct {
	values []string
	calls  int
}

func (s *scriptedNumbers) Next(ctx context.Context) (string, error) {
	value := s.values[s.calls%len(s.values)]
	s.calls++
	return value, nil
}

type counterNumbers struct{ n int }

func (c *counterNumbers) Next(ctx context.Context) (string, error) {
	c.n++
	return fmt.Sprintf("S-20260301-%04d", c.n), nil
}

type harness struct {
	conn     *gorm.DB
	svc      Service
	products *products.Repository
	cashier  uuid.UUID
	latte    *models.Product
	scone    *models.Product
	now      time.Time
}

func newHarness(t *testing.T, taxBps int64, numbers NumberGenerator) *harness {
	t.Helper()
	conn := dbtest.OpenSQLite(t)
	productRepo := products.NewRepository(conn)
	if numbers == nil {
		numbers = &counterNumbers{}
	}
	h := &harness{
		conn:     conn,
		products: productRepo,
		cashier:  uuid.New(),
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Tx:       db.NewFromConn(conn),
		Products: productRepo,
		Numbers:  numbers,
		Config:   config.SalesConfig{TaxRateBps: taxBps},
		Metrics:  metrics.NewSalesMetrics(prometheus.NewRegistry()),
		Now:      func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.svc = svc

	ctx := context.Background()
	h.latte = &models.Product{SKU: "COF-LAT", Name: "Latte", UnitPrice: 450, IsActive: true}
	h.scone = &models.Product{SKU: "BAK-SCN", Name: "Scone", UnitPrice: 325, IsActive: true}
	require.NoError(t, productRepo.Create(ctx, h.latte))
	require.NoError(t, productRepo.Create(ctx, h.scone))
	return h
}

func (h *harness) draft(t *testing.T) *sale.Sale {
	t.Helper()
	out, err := h.svc.CreateSale(context.Background(), h.cashier, sale.CreateSaleRequest{})
	require.NoError(t, err)
	return out
}

func (h *harness) pay(t *testing.T, saleID uuid.UUID, amount money.Cents) {
	t.Helper()
	require.NoError(t, h.conn.Create(&models.Payment{
		ID: uuid.New(), SaleID: saleID, PaymentMethod: enums.PaymentMethodCash, Amount: amount,
	}).Error)
}

func qty(n int) *int { return &n }

func cents(c money.Cents) *money.Cents { return &c }

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, pkgerrors.As(err).Code(), err.Error())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateSaleStartsEmptyDraft(t *testing.T) {
	h := newHarness(t, 0, nil)
	out := h.draft(t)

	assert.Equal(t, enums.SaleStatusDraft, out.Status)
	assert.Equal(t, "S-20260301-0001", out.SaleNumber)
	assert.Equal(t, h.cashier, out.CashierID)
	assert.Empty(t, out.Items)
	assert.EqualValues(t, 0, out.TotalAmount)
	assert.Equal(t, int64(1), out.Version)

	_, err := h.svc.CreateSale(context.Background(), uuid.Nil, sale.CreateSaleRequest{})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestCreateSaleRetriesDuplicateNumbers(t *testing.T) {
	numbers := &scriptedNumbers{values: []string{"S-1", "S-1", "S-2"}}
	h := newHarness(t, 0, numbers)

	first := h.draft(t)
	second := h.draft(t)
	assert.Equal(t, "S-1", first.SaleNumber)
	assert.Equal(t, "S-2", second.SaleNumber)
	assert.Equal(t, 3, numbers.calls)
}

func TestAddItemRecomputesTotalsWithTax(t *testing.T) {
	h := newHarness(t, 825, nil)
	ctx := context.Background()
	draft := h.draft(t)

	out, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, Quantity: 2})
	require.NoError(t, err)
	out, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.scone.ID})
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "Latte", out.Items[0].ProductName)
	assert.Equal(t, 2, out.Items[0].Quantity)
	assert.Equal(t, 1, out.Items[1].Quantity)
	assert.EqualValues(t, 1225, out.Subtotal)
	assert.EqualValues(t, 101, out.TaxAmount)
	assert.EqualValues(t, 1326, out.TotalAmount)
	assert.Equal(t, int64(3), out.Version)
	require.NoError(t, out.CheckInvariants())
}

func TestAddItemNeverMergesLines(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	_, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	require.NoError(t, err)
	out, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.NotEqual(t, out.Items[0].ID, out.Items[1].ID)
	assert.EqualValues(t, 900, out.TotalAmount)
}

func TestAddItemRejectsBadProducts(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	_, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: uuid.New()})
	requireCode(t, err, pkgerrors.CodeNotFound)

	retired := &models.Product{SKU: "OLD", Name: "Retired", UnitPrice: 100, IsActive: false}
	require.NoError(t, h.products.Create(ctx, retired))
	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: retired.ID})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, DiscountAmount: cents(451)})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.AddItem(ctx, uuid.New(), sale.AddItemRequest{ProductID: h.latte.ID})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestHugeQuantityIsRejectedBeforeOverflow(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	_, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, Quantity: 40992764608243450})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, Quantity: sale.MaxQuantity + 1})
	requireCode(t, err, pkgerrors.CodeValidation)

	out, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, Quantity: sale.MaxQuantity})
	require.NoError(t, err)
	assert.EqualValues(t, 450*sale.MaxQuantity, out.Items[0].LineTotal)

	_, err = h.svc.UpdateItem(ctx, draft.ID, out.Items[0].ID, sale.UpdateItemRequest{Quantity: qty(40992764608243450)})
	requireCode(t, err, pkgerrors.CodeValidation)

	pricey := &models.Product{SKU: "GIFT-MAX", Name: "Gift card", UnitPrice: money.MaxAmount, IsActive: true}
	require.NoError(t, h.products.Create(ctx, pricey))
	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: pricey.ID, Quantity: 2})
	requireCode(t, err, pkgerrors.CodeValidation)

	stored, err := h.svc.GetSale(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, sale.MaxQuantity, stored.Items[0].Quantity)
	require.NoError(t, stored.CheckInvariants())
}

func TestSaleTotalsStayWithinRange(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	pricey := &models.Product{SKU: "GIFT-MAX", Name: "Gift card", UnitPrice: money.MaxAmount, IsActive: true}
	require.NoError(t, h.products.Create(ctx, pricey))
	_, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: pricey.ID})
	require.NoError(t, err)

	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	requireCode(t, err, pkgerrors.CodeValidation)

	stored, err := h.svc.GetSale(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, money.MaxAmount, stored.TotalAmount)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	out, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	require.NoError(t, err)
	itemID := out.Items[0].ID

	out, err = h.svc.UpdateItem(ctx, draft.ID, itemID, sale.UpdateItemRequest{Quantity: qty(3), DiscountAmount: cents(50)})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Items[0].Quantity)
	assert.EqualValues(t, 1300, out.Items[0].LineTotal)
	assert.EqualValues(t, 1300, out.Subtotal)

	_, err = h.svc.UpdateItem(ctx, draft.ID, itemID, sale.UpdateItemRequest{Quantity: qty(0)})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.UpdateItem(ctx, draft.ID, itemID, sale.UpdateItemRequest{})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.UpdateItem(ctx, draft.ID, uuid.New(), sale.UpdateItemRequest{Quantity: qty(1)})
	requireCode(t, err, pkgerrors.CodeNotFound)

	out, err = h.svc.RemoveItem(ctx, draft.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.EqualValues(t, 0, out.TotalAmount)

	_, err = h.svc.RemoveItem(ctx, draft.ID, itemID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestApplyDiscountBoundsAndClamp(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	out, err := h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID, Quantity: 2})
	require.NoError(t, err)
	firstItem := out.Items[0].ID
	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.scone.ID})
	require.NoError(t, err)

	_, err = h.svc.ApplyDiscount(ctx, draft.ID, sale.ApplyDiscountRequest{DiscountAmount: 1226})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.ApplyDiscount(ctx, draft.ID, sale.ApplyDiscountRequest{DiscountAmount: -1})
	requireCode(t, err, pkgerrors.CodeInvalidAmount)

	out, err = h.svc.ApplyDiscount(ctx, draft.ID, sale.ApplyDiscountRequest{DiscountAmount: 1000})
	require.NoError(t, err)
	assert.EqualValues(t, 225, out.TotalAmount)

	out, err = h.svc.RemoveItem(ctx, draft.ID, firstItem)
	require.NoError(t, err)
	assert.EqualValues(t, 325, out.DiscountAmount)
	assert.EqualValues(t, 0, out.TotalAmount)
}

func TestCompleteSaleRequiresFullPayment(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	_, err := h.svc.CompleteSale(ctx, draft.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	require.NoError(t, err)
	h.pay(t, draft.ID, 200)

	_, err = h.svc.CompleteSale(ctx, draft.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 250, details["remaining_balance"])

	h.pay(t, draft.ID, 250)
	out, err := h.svc.CompleteSale(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusCompleted, out.Status)
	require.NotNil(t, out.CompletedAt)
	assert.True(t, out.CompletedAt.Equal(h.now))

	_, err = h.svc.AddItem(ctx, draft.ID, sale.AddItemRequest{ProductID: h.latte.ID})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	_, err = h.svc.CompleteSale(ctx, draft.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestVoidSale(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	draft := h.draft(t)

	_, err := h.svc.VoidSale(ctx, h.cashier, draft.ID, sale.VoidSaleRequest{Reason: "   "})
	requireCode(t, err, pkgerrors.CodeValidation)

	out, err := h.svc.VoidSale(ctx, h.cashier, draft.ID, sale.VoidSaleRequest{Reason: " customer left "})
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusVoided, out.Status)
	require.NotNil(t, out.VoidReason)
	assert.Equal(t, "customer left", *out.VoidReason)
	require.NotNil(t, out.VoidedBy)
	assert.Equal(t, h.cashier, *out.VoidedBy)

	_, err = h.svc.VoidSale(ctx, h.cashier, draft.ID, sale.VoidSaleRequest{Reason: "again"})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestListSalesFiltersByStatus(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()
	first := h.draft(t)
	h.draft(t)
	_, err := h.svc.VoidSale(ctx, h.cashier, first.ID, sale.VoidSaleRequest{Reason: "test"})
	require.NoError(t, err)

	draftStatus := enums.SaleStatusDraft
	page, err := h.svc.ListSales(ctx, ListInput{CashierID: h.cashier, Status: &draftStatus, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, first.ID, page.Items[0].ID)

	_, err = h.svc.ListSales(ctx, ListInput{CashierID: h.cashier, Pagination: pagination.Params{Cursor: "%%"}})
	requireCode(t, err, pkgerrors.CodeValidation)
}

type racingRepo struct {
	Repository
}

func (r racingRepo) WithTx(tx *gorm.DB) Repository {
	return racingRepo{Repository: r.Repository.WithTx(tx)}
}

func (r racingRepo) SaveSale(ctx context.Context, record *models.Sale, expected int64) error {
	return ErrVersionConflict
}

func TestVersionConflictMapsToConflict(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	productRepo := products.NewRepository(conn)
	product := &models.Product{SKU: "COF-LAT", Name: "Latte", UnitPrice: 450, IsActive: true}
	require.NoError(t, productRepo.Create(context.Background(), product))

	base := NewRepository(conn)
	record := &models.Sale{SaleNumber: "S-1", CashierID: uuid.New(), Status: enums.SaleStatusDraft}
	require.NoError(t, base.CreateSale(context.Background(), record))

	svc, err := NewService(ServiceParams{
		Repo:     racingRepo{Repository: base},
		Tx:       db.NewFromConn(conn),
		Products: productRepo,
		Numbers:  &counterNumbers{},
	})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), record.ID, sale.AddItemRequest{ProductID: product.ID})
	requireCode(t, err, pkgerrors.CodeConflict)

	reloaded, err := base.FindSale(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
}
