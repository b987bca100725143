package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// PostgresArchive is an optional write-behind sink that mirrors orders into
// PostgreSQL for offline inspection. The in-memory store stays authoritative;
// archive failures are reported to the caller for logging, never for
// rollback.
type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

const createOrdersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		customer_id      TEXT NOT NULL,
		items            JSONB NOT NULL,
		total_amount     NUMERIC(12,2) NOT NULL,
		status           TEXT NOT NULL,
		payment_status   TEXT NOT NULL,
		payment_id       TEXT,
		shipping_address JSONB,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)
`

// Migrate creates the archive schema.
func (a *PostgresArchive) Migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("orders table migration error: %w", err)
	}
	return nil
}

// SaveOrder upserts the current order projection.
func (a *PostgresArchive) SaveOrder(ctx context.Context, order *types.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("items serialization error: %w", err)
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("shipping address serialization error: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, customer_id, items, total_amount, status,
			payment_status, payment_id, shipping_address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total_amount = EXCLUDED.total_amount,
			status = EXCLUDED.status,
			payment_status = EXCLUDED.payment_status,
			payment_id = EXCLUDED.payment_id,
			shipping_address = EXCLUDED.shipping_address,
			updated_at = EXCLUDED.updated_at
	`

	_, err = a.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.CustomerID,
		itemsJSON,
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		nullString(order.PaymentID),
		addressJSON,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("order archive error: %w", err)
	}
	return nil
}

// LoadOrder reads an archived order projection back.
func (a *PostgresArchive) LoadOrder(ctx context.Context, orderID string) (*types.Order, error) {
	query := `
		SELECT id, customer_id, items, total_amount, status,
			   payment_status, payment_id, shipping_address, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &types.Order{}
	var itemsJSON, addressJSON []byte
	var paymentID sql.NullString

	err := a.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.CustomerID,
		&itemsJSON,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&paymentID,
		&addressJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("order archive read error: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("items deserialization error: %w", err)
	}
	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("shipping address deserialization error: %w", err)
		}
	}
	order.PaymentID = paymentID.String
	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
