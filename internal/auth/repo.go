package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
)

// Repository exposes cashier persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cashier repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new cashier.
func (r *Repository) Create(ctx context.Context, cashier *models.Cashier) error {
	if cashier.ID == uuid.Nil {
		cashier.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cashier).Error
}

// FindByCode retrieves the cashier matching the sign-in code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Cashier, error) {
	var cashier models.Cashier
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&cashier).Error; err != nil {
		return nil, err
	}
	return &cashier, nil
}

// FindByID loads a cashier by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cashier, error) {
	var cashier models.Cashier
	if err := r.db.WithContext(ctx).First(&cashier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cashier, nil
}

// UpdateLastLogin refreshes the cashier's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cashier{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
