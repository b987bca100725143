// Package repository provides the in-memory stores backing the payment
// service. Payments are mutated through per-key critical sections so a
// capture and a refund racing on the same payment serialize instead of
// clobbering each other.
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

type PaymentStore interface {
	Insert(ctx context.Context, payment *types.Payment) error
	Get(ctx context.Context, paymentID string) (*types.Payment, error)
	// Mutate runs fn against the payment under its lock and persists the
	// result when fn succeeds.
	Mutate(ctx context.Context, paymentID string, fn func(*types.Payment) error) (*types.Payment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*types.Payment, error)
	List(ctx context.Context) ([]*types.Payment, error)
}

// PayingCustomer is a customer record together with their stored
// payment methods.
type PayingCustomer struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	PaymentMethods []types.PaymentMethod
}

type CustomerDirectory interface {
	Get(ctx context.Context, customerID string) (*PayingCustomer, error)
	// AddPaymentMethod stores a method; when it is flagged default, every
	// other method of the customer loses the flag atomically.
	AddPaymentMethod(ctx context.Context, customerID string, method types.PaymentMethod) error
}

type MemoryPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*types.Payment
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{payments: make(map[string]*types.Payment)}
}

func (s *MemoryPaymentStore) Insert(_ context.Context, payment *types.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.ID]; exists {
		return fmt.Errorf("payment %s already exists: %w", payment.ID, apperr.ErrInvalidInput)
	}
	s.payments[payment.ID] = domain.Clone(payment)
	return nil
}

func (s *MemoryPaymentStore) Get(_ context.Context, paymentID string) (*types.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s %w", paymentID, apperr.ErrNotFound)
	}
	return domain.Clone(payment), nil
}

func (s *MemoryPaymentStore) Mutate(_ context.Context, paymentID string, fn func(*types.Payment) error) (*types.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s %w", paymentID, apperr.ErrNotFound)
	}
	draft := domain.Clone(payment)
	if err := fn(draft); err != nil {
		return nil, err
	}
	s.payments[paymentID] = draft
	return domain.Clone(draft), nil
}

func (s *MemoryPaymentStore) ListByCustomer(_ context.Context, customerID string) ([]*types.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.Payment
	for _, payment := range s.payments {
		if payment.CustomerID == customerID {
			out = append(out, domain.Clone(payment))
		}
	}
	return out, nil
}

func (s *MemoryPaymentStore) List(_ context.Context) ([]*types.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Payment, 0, len(s.payments))
	for _, payment := range s.payments {
		out = append(out, domain.Clone(payment))
	}
	return out, nil
}

type MemoryCustomerDirectory struct {
	mu        sync.Mutex
	customers map[string]*PayingCustomer
}

func NewMemoryCustomerDirectory() *MemoryCustomerDirectory {
	return &MemoryCustomerDirectory{customers: make(map[string]*PayingCustomer)}
}

func (d *MemoryCustomerDirectory) Put(customer PayingCustomer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[customer.ID] = &customer
}

func (d *MemoryCustomerDirectory) Get(_ context.Context, customerID string) (*PayingCustomer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	customer, ok := d.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %s %w", customerID, apperr.ErrNotFound)
	}
	clone := *customer
	clone.PaymentMethods = append([]types.PaymentMethod(nil), customer.PaymentMethods...)
	return &clone, nil
}

func (d *MemoryCustomerDirectory) AddPaymentMethod(_ context.Context, customerID string, method types.PaymentMethod) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	customer, ok := d.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %s %w", customerID, apperr.ErrNotFound)
	}
	if method.IsDefault {
		for i := range customer.PaymentMethods {
			customer.PaymentMethods[i].IsDefault = false
		}
	}
	customer.PaymentMethods = append(customer.PaymentMethods, method)
	return nil
}

// SeedDemoCustomers loads the demo customer directory.
func SeedDemoCustomers(d *MemoryCustomerDirectory) {
	d.Put(PayingCustomer{
		ID:    "cust_001",
		Name:  "John Doe",
		Email: "john.doe@example.com",
		Phone: "+1-555-0123",
		PaymentMethods: []types.PaymentMethod{
			{ID: "pm_001", Type: "credit_card", LastFour: "1234", ExpiryMonth: 12, ExpiryYear: 2025, CardType: "Visa", IsDefault: true},
			{ID: "pm_002", Type: "debit_card", LastFour: "5678", ExpiryMonth: 8, ExpiryYear: 2026, CardType: "Mastercard"},
		},
	})
	d.Put(PayingCustomer{
		ID:    "cust_002",
		Name:  "Jane Smith",
		Email: "jane.smith@example.com",
		Phone: "+1-555-0456",
		PaymentMethods: []types.PaymentMethod{
			{ID: "pm_003", Type: "credit_card", LastFour: "9012", ExpiryMonth: 3, ExpiryYear: 2027, CardType: "American Express", IsDefault: true},
		},
	})
}
