package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/pagination"
)

// Repository exposes catalog reads and the seed/upsert writes used by tooling.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads a product regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type searchQuery struct {
	Query  string
	Limit  int
	Cursor *pagination.KeyCursor
}

// Search returns active products whose name or SKU contains the query, ordered by name.
func (r *Repository) Search(ctx context.Context, query searchQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Limit)
	cursor := query.Cursor

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)

	if search := strings.TrimSpace(query.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("((LOWER(name) > ?) OR (LOWER(name) = ? AND id > ?))", cursor.Key, cursor.Key, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("LOWER(name) ASC").Order("id ASC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.NextPage(rows, pageSize, func(last models.Product) string {
		return pagination.EncodeKeyCursor(pagination.KeyCursor{Key: strings.ToLower(last.Name), ID: last.ID})
	})
	return rows, next, nil
}
