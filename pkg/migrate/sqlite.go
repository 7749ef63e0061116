package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for the embedded engine used in dev and tests.
// Enum columns become text with CHECK constraints; ids are assigned by the repositories.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS cashiers (
		id text PRIMARY KEY,
		code text NOT NULL UNIQUE,
		display_name text NOT NULL,
		pin_hash text NOT NULL,
		is_active boolean NOT NULL DEFAULT true,
		last_login_at datetime,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id text PRIMARY KEY,
		sku text NOT NULL UNIQUE,
		name text NOT NULL,
		unit_price integer NOT NULL CHECK (unit_price >= 0),
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id text PRIMARY KEY,
		sale_number text NOT NULL UNIQUE,
		cashier_id text NOT NULL,
		customer_id text,
		status text NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'completed', 'voided')),
		subtotal integer NOT NULL DEFAULT 0,
		discount_amount integer NOT NULL DEFAULT 0,
		tax_amount integer NOT NULL DEFAULT 0,
		total_amount integer NOT NULL DEFAULT 0,
		void_reason text,
		voided_at datetime,
		voided_by text,
		completed_at datetime,
		version integer NOT NULL DEFAULT 1,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id text PRIMARY KEY,
		sale_id text NOT NULL REFERENCES sales (id) ON DELETE CASCADE,
		product_id text NOT NULL,
		product_name text NOT NULL,
		product_sku text NOT NULL,
		quantity integer NOT NULL CHECK (quantity >= 1),
		unit_price integer NOT NULL,
		discount_amount integer NOT NULL DEFAULT 0,
		line_total integer NOT NULL,
		position integer NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id text PRIMARY KEY,
		sale_id text NOT NULL REFERENCES sales (id) ON DELETE CASCADE,
		sequence integer NOT NULL,
		payment_method text NOT NULL CHECK (payment_method IN ('cash', 'card', 'e_wallet')),
		amount integer NOT NULL CHECK (amount > 0),
		reference_number text,
		change_amount integer NOT NULL DEFAULT 0,
		created_at datetime
	)`,
}

// ApplySQLiteSchema creates the tables on a sqlite connection if they are missing.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
