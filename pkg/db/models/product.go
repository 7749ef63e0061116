package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// Product is a sellable catalog entry. Prices are captured onto sale lines when added.
type Product struct {
	ID        uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU       string      `gorm:"column:sku;not null;uniqueIndex"`
	Name      string      `gorm:"column:name;not null"`
	UnitPrice money.Cents `gorm:"column:unit_price;not null"`
	IsActive  bool        `gorm:"column:is_active;not null"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (p Product) ToDomain() sale.Product {
	return sale.Product{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		IsActive:  p.IsActive,
	}
}
