package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	products map[string]*types.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*types.Product),
	}
}

func (s *MemoryStore) Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	_ = ctx
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("quantity must be greater than zero: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return decimal.Zero, notFound(productID)
	}
	if product.StockQuantity < quantity {
		return decimal.Zero, insufficientStock(productID)
	}

	product.StockQuantity -= quantity
	return product.Price, nil
}

func (s *MemoryStore) Read(ctx context.Context, productID string) (*types.Product, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, notFound(productID)
	}

	clone := *product
	return &clone, nil
}

func (s *MemoryStore) Restock(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return fmt.Errorf("quantity must be greater than zero: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return notFound(productID)
	}

	product.StockQuantity += quantity
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, product types.Product) error {
	_ = ctx
	if product.ID == "" {
		return fmt.Errorf("product id is required: %w", apperr.ErrInvalidInput)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("product price must not be negative: %w", apperr.ErrInvalidInput)
	}
	if product.StockQuantity < 0 {
		return fmt.Errorf("product stock must not be negative: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := product
	s.products[product.ID] = &clone
	return nil
}

// SeedDemoProducts loads the demo catalog used by the runnable services and
// the integration tests.
func SeedDemoProducts(ctx context.Context, store Store) error {
	products := []types.Product{
		{
			ID:            "prod_001",
			Name:          "Laptop Computer",
			Description:   "High-performance laptop with 16GB RAM",
			Price:         decimal.RequireFromString("1299.99"),
			Category:      "Electronics",
			StockQuantity: 50,
			SKU:           "LAPTOP-001",
		},
		{
			ID:            "prod_002",
			Name:          "Wireless Mouse",
			Description:   "Ergonomic wireless mouse",
			Price:         decimal.RequireFromString("29.99"),
			Category:      "Electronics",
			StockQuantity: 200,
			SKU:           "MOUSE-001",
		},
		{
			ID:            "prod_003",
			Name:          "Coffee Mug",
			Description:   "Ceramic coffee mug, 12oz",
			Price:         decimal.RequireFromString("12.99"),
			Category:      "Home & Kitchen",
			StockQuantity: 150,
			SKU:           "MUG-001",
		},
	}

	for _, p := range products {
		if err := store.Put(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
