package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/pagination"
)

// ErrVersionConflict is returned by SaveSale when another writer bumped the version first.
var ErrVersionConflict = errors.New("sale version conflict")

// Repository defines persistence operations for the sales tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSale(ctx context.Context, sale *models.Sale) error
	FindSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	SaveSale(ctx context.Context, sale *models.Sale, expectedVersion int64) error
	InsertItem(ctx context.Context, item *models.SaleItem) error
	UpdateItem(ctx context.Context, item *models.SaleItem) error
	DeleteItem(ctx context.Context, saleID, itemID uuid.UUID) error
	NextItemPosition(ctx context.Context, saleID uuid.UUID) (int, error)
	SumPayments(ctx context.Context, saleID uuid.UUID) (money.Cents, error)
	ListSales(ctx context.Context, query ListQuery) ([]models.Sale, string, error)
}

// ListQuery filters the cashier's sales for the resume list.
type ListQuery struct {
	CashierID uuid.UUID
	Status    *enums.SaleStatus
	Limit     int
	Cursor    *pagination.Cursor
}

// NumberGenerator issues human-readable sale numbers.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type clock func() time.Time
