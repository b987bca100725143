// Package catalog owns products and stock for the order service. Reservation
// is a single atomic check-and-decrement per product; stock never goes
// negative and concurrent reservations never lose a decrement.
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

type Store interface {
	// Reserve atomically decrements stock by quantity and returns the unit
	// price at reservation time.
	Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error)
	// Read returns the current product projection.
	Read(ctx context.Context, productID string) (*types.Product, error)
	// Restock atomically increments stock. It is an explicit operation:
	// order cancellation never calls it implicitly.
	Restock(ctx context.Context, productID string, quantity int) error
	// Put inserts or replaces a product.
	Put(ctx context.Context, product types.Product) error
}

func notFound(productID string) error {
	return fmt.Errorf("product %s %w", productID, apperr.ErrNotFound)
}

func insufficientStock(productID string) error {
	return fmt.Errorf("%w for product %s", apperr.ErrInsufficientStock, productID)
}
