package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the sales repository to a GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.Version == 0 {
		sale.Version = 1
	}
	return r.db.WithContext(ctx).Omit("Items").Create(sale).Error
}

func (r *repository) FindSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaveSale writes the header columns and bumps the version only if nobody else has.
func (r *repository) SaveSale(ctx context.Context, sale *models.Sale, expectedVersion int64) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND version = ?", sale.ID, expectedVersion).
		Updates(map[string]any{
			"status":          sale.Status,
			"subtotal":        sale.Subtotal,
			"discount_amount": sale.DiscountAmount,
			"tax_amount":      sale.TaxAmount,
			"total_amount":    sale.TotalAmount,
			"void_reason":     sale.VoidReason,
			"voided_at":       sale.VoidedAt,
			"voided_by":       sale.VoidedBy,
			"completed_at":    sale.CompletedAt,
			"version":         expectedVersion + 1,
			"updated_at":      now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	sale.Version = expectedVersion + 1
	sale.UpdatedAt = now
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item *models.SaleItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, item *models.SaleItem) error {
	res := r.db.WithContext(ctx).
		Model(&models.SaleItem{}).
		Where("id = ? AND sale_id = ?", item.ID, item.SaleID).
		Updates(map[string]any{
			"quantity":        item.Quantity,
			"discount_amount": item.DiscountAmount,
			"line_total":      item.LineTotal,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, saleID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND sale_id = ?", itemID, saleID).
		Delete(&models.SaleItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) NextItemPosition(ctx context.Context, saleID uuid.UUID) (int, error) {
	var last int
	err := r.db.WithContext(ctx).
		Model(&models.SaleItem{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *repository) SumPayments(ctx context.Context, saleID uuid.UUID) (money.Cents, error) {
	var paid int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return 0, err
	}
	return money.Cents(paid), nil
}

func (r *repository) ListSales(ctx context.Context, query ListQuery) ([]models.Sale, string, error) {
	pageSize := pagination.NormalizeLimit(query.Limit)

	qb := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("cashier_id = ?", query.CashierID)
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if c := query.Cursor; c != nil {
		qb = qb.Where("((created_at < ?) OR (created_at = ? AND id < ?))", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []models.Sale
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.NextPage(rows, pageSize, func(last models.Sale) string {
		return pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	})
	return rows, next, nil
}
