package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/enums"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// Sale persists the aggregate header. Version increments on every write.
type Sale struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleNumber     string           `gorm:"column:sale_number;not null;uniqueIndex"`
	CashierID      uuid.UUID        `gorm:"column:cashier_id;type:uuid;not null"`
	CustomerID     *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	Status         enums.SaleStatus `gorm:"column:status;type:sale_status;not null;default:'draft'"`
	Subtotal       money.Cents      `gorm:"column:subtotal;not null;default:0"`
	DiscountAmount money.Cents      `gorm:"column:discount_amount;not null;default:0"`
	TaxAmount      money.Cents      `gorm:"column:tax_amount;not null;default:0"`
	TotalAmount    money.Cents      `gorm:"column:total_amount;not null;default:0"`
	VoidReason     *string          `gorm:"column:void_reason"`
	VoidedAt       *time.Time       `gorm:"column:voided_at"`
	VoidedBy       *uuid.UUID       `gorm:"column:voided_by;type:uuid"`
	CompletedAt    *time.Time       `gorm:"column:completed_at"`
	Version        int64            `gorm:"column:version;not null;default:1"`
	Items          []SaleItem       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// SaleItem persists one cart line. Position keeps insertion order stable.
type SaleItem struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID         uuid.UUID   `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID      uuid.UUID   `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string      `gorm:"column:product_name;not null"`
	ProductSKU     string      `gorm:"column:product_sku;not null"`
	Quantity       int         `gorm:"column:quantity;not null"`
	UnitPrice      money.Cents `gorm:"column:unit_price;not null"`
	DiscountAmount money.Cents `gorm:"column:discount_amount;not null;default:0"`
	LineTotal      money.Cents `gorm:"column:line_total;not null"`
	Position       int         `gorm:"column:position;not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// ToDomain maps the row and its preloaded items onto the wire aggregate.
func (s Sale) ToDomain() sale.Sale {
	items := make([]sale.SaleItem, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, item.ToDomain())
	}
	return sale.Sale{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		CashierID:      s.CashierID,
		CustomerID:     s.CustomerID,
		Status:         s.Status,
		Subtotal:       s.Subtotal,
		DiscountAmount: s.DiscountAmount,
		TaxAmount:      s.TaxAmount,
		TotalAmount:    s.TotalAmount,
		VoidReason:     s.VoidReason,
		VoidedAt:       s.VoidedAt,
		VoidedBy:       s.VoidedBy,
		CompletedAt:    s.CompletedAt,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Items:          items,
	}
}

func (i SaleItem) ToDomain() sale.SaleItem {
	return sale.SaleItem{
		ID:             i.ID,
		SaleID:         i.SaleID,
		ProductID:      i.ProductID,
		ProductName:    i.ProductName,
		ProductSKU:     i.ProductSKU,
		Quantity:       i.Quantity,
		UnitPrice:      i.UnitPrice,
		DiscountAmount: i.DiscountAmount,
		LineTotal:      i.LineTotal,
	}
}
