package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements are kept to the subset MySQL and SQLite both accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
	id              VARCHAR(36)   NOT NULL PRIMARY KEY,
	shop_id         VARCHAR(64)   NOT NULL,
	sale_number     VARCHAR(32)   NOT NULL UNIQUE,
	customer_id     VARCHAR(64)   NULL,
	sale_date       VARCHAR(10)   NOT NULL,
	currency        VARCHAR(3)    NOT NULL,
	status          VARCHAR(16)   NOT NULL,
	payment_status  VARCHAR(16)   NOT NULL,
	discount_type   VARCHAR(16)   NULL,
	discount_value  DECIMAL(14,2) NOT NULL DEFAULT 0,
	discount_amount DECIMAL(14,2) NOT NULL DEFAULT 0,
	tax_amount      DECIMAL(14,2) NOT NULL DEFAULT 0,
	subtotal        DECIMAL(14,2) NOT NULL DEFAULT 0,
	total_amount    DECIMAL(14,2) NOT NULL DEFAULT 0,
	paid_amount     DECIMAL(14,2) NOT NULL DEFAULT 0,
	notes           TEXT          NULL,
	created_by      VARCHAR(64)   NOT NULL,
	created_at      DATETIME      NOT NULL,
	updated_at      DATETIME      NOT NULL,
	completed_at    DATETIME      NULL
)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
	id             VARCHAR(36)   NOT NULL PRIMARY KEY,
	sale_id        VARCHAR(36)   NOT NULL,
	item_id        VARCHAR(64)   NOT NULL,
	sku            VARCHAR(64)   NULL,
	name           VARCHAR(255)  NULL,
	unit_price     DECIMAL(14,2) NOT NULL,
	quantity       INT           NOT NULL,
	discount_type  VARCHAR(16)   NULL,
	discount_value DECIMAL(14,2) NOT NULL DEFAULT 0,
	line_total     DECIMAL(14,2) NOT NULL,
	created_at     DATETIME      NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS sale_payments (
	id           VARCHAR(36)   NOT NULL PRIMARY KEY,
	sale_id      VARCHAR(36)   NOT NULL,
	payment_type VARCHAR(32)   NOT NULL,
	amount       DECIMAL(14,2) NOT NULL,
	reference    VARCHAR(128)  NULL,
	notes        TEXT          NULL,
	created_by   VARCHAR(64)   NOT NULL,
	created_at   DATETIME      NOT NULL
)`,
}

// Migrate creates the sale tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
