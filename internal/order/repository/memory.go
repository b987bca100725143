package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ecommerce-checkout/checkout-services/internal/order/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

type OrderStore interface {
	NextID(ctx context.Context) string
	Insert(ctx context.Context, order *types.Order) error
	Get(ctx context.Context, id string) (*types.Order, error)
	// Mutate runs fn against the stored order under the store lock, giving
	// single-writer-per-order semantics for status and payment updates.
	Mutate(ctx context.Context, id string, fn func(order *types.Order) error) (*types.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*types.Order, error)
}

type CustomerStore interface {
	Insert(ctx context.Context, customer *types.Customer) (string, error)
	Get(ctx context.Context, id string) (*types.Customer, error)
}

type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*types.Order
	seq    int
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: make(map[string]*types.Order),
	}
}

func (s *MemoryOrderStore) NextID(ctx context.Context) string {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return fmt.Sprintf("order_%06d", s.seq)
}

func (s *MemoryOrderStore) Insert(ctx context.Context, order *types.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists: %w", order.ID, apperr.ErrInvalidInput)
	}
	s.orders[order.ID] = domain.Clone(order)
	return nil
}

func (s *MemoryOrderStore) Get(ctx context.Context, id string) (*types.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s %w", id, apperr.ErrNotFound)
	}
	return domain.Clone(order), nil
}

func (s *MemoryOrderStore) Mutate(ctx context.Context, id string, fn func(order *types.Order) error) (*types.Order, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s %w", id, apperr.ErrNotFound)
	}

	working := domain.Clone(order)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.orders[id] = working
	return domain.Clone(working), nil
}

func (s *MemoryOrderStore) ListByCustomer(ctx context.Context, customerID string) ([]*types.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []*types.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			orders = append(orders, domain.Clone(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

type MemoryCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*types.Customer
	seq       int
}

func NewMemoryCustomerStore() *MemoryCustomerStore {
	return &MemoryCustomerStore{
		customers: make(map[string]*types.Customer),
	}
}

func (s *MemoryCustomerStore) Insert(ctx context.Context, customer *types.Customer) (string, error) {
	_ = ctx
	if customer == nil {
		return "", fmt.Errorf("customer is required: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" {
		s.seq++
		customer.ID = fmt.Sprintf("cust_%03d", s.seq)
	} else if n := parseCustomerSeq(customer.ID); n > s.seq {
		s.seq = n
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	clone := *customer
	s.customers[customer.ID] = &clone
	return customer.ID, nil
}

func (s *MemoryCustomerStore) Get(ctx context.Context, id string) (*types.Customer, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s %w", id, apperr.ErrNotFound)
	}
	clone := *customer
	return &clone, nil
}

func parseCustomerSeq(id string) int {
	var n int
	if _, err := fmt.Sscanf(id, "cust_%d", &n); err != nil {
		return 0
	}
	return n
}

// SeedDemoCustomers loads the demo customer directory.
func SeedDemoCustomers(ctx context.Context, store CustomerStore) error {
	customers := []*types.Customer{
		{
			ID:    "cust_001",
			Name:  "John Doe",
			Email: "john.doe@example.com",
			Phone: "+1-555-0123",
			Address: map[string]string{
				"street":  "123 Main St",
				"city":    "New York",
				"state":   "NY",
				"zip":     "10001",
				"country": "USA",
			},
		},
		{
			ID:    "cust_002",
			Name:  "Jane Smith",
			Email: "jane.smith@example.com",
			Phone: "+1-555-0456",
			Address: map[string]string{
				"street":  "456 Oak Ave",
				"city":    "Los Angeles",
				"state":   "CA",
				"zip":     "90210",
				"country": "USA",
			},
		},
	}

	for _, c := range customers {
		if _, err := store.Insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
