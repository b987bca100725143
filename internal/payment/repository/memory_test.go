package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

func seedPayment(t *testing.T, store *MemoryPaymentStore, customerID, amount string) *types.Payment {
	t.Helper()
	p := domain.NewPayment("order_000001", customerID, decimal.RequireFromString(amount), "USD", "credit_card", nil)
	require.NoError(t, domain.Settle(p, types.PaymentStatusCompleted))
	require.NoError(t, store.Insert(context.Background(), p))
	return p
}

func TestPaymentStoreInsertAndGet(t *testing.T) {
	store := NewMemoryPaymentStore()
	ctx := context.Background()
	p := seedPayment(t, store, "cust_001", "100.00")

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	// Mutating the returned copy must not leak into the store.
	got.Status = types.PaymentStatusFailed
	again, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusCompleted, again.Status)

	assert.ErrorIs(t, store.Insert(ctx, p), apperr.ErrInvalidInput)

	_, err = store.Get(ctx, "pay_missing1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPaymentStoreMutateRollsBackOnError(t *testing.T) {
	store := NewMemoryPaymentStore()
	ctx := context.Background()
	p := seedPayment(t, store, "cust_001", "100.00")

	_, err := store.Mutate(ctx, p.ID, func(draft *types.Payment) error {
		draft.Status = types.PaymentStatusRefunded
		return assert.AnError
	})
	require.Error(t, err)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusCompleted, got.Status)
}

func TestPaymentStoreMutateSerializesRefunds(t *testing.T) {
	store := NewMemoryPaymentStore()
	ctx := context.Background()
	p := seedPayment(t, store, "cust_001", "100.00")

	refund := decimal.RequireFromString("10.00")
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(ctx, p.ID, func(draft *types.Payment) error {
				return domain.Refund(draft, refund)
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// 100.00 absorbs exactly ten 10.00 refunds; the rest must be
	// rejected rather than overdrawn.
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t,
			errors.Is(err, apperr.ErrExceedsAvailable) || errors.Is(err, apperr.ErrInvalidState),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 10, succeeded)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusRefunded, got.Status)
	assert.True(t, got.RefundedAmount.Equal(got.Amount))
}

func TestPaymentStoreListByCustomer(t *testing.T) {
	store := NewMemoryPaymentStore()
	ctx := context.Background()
	seedPayment(t, store, "cust_001", "10.00")
	seedPayment(t, store, "cust_001", "20.00")
	seedPayment(t, store, "cust_002", "30.00")

	mine, err := store.ListByCustomer(ctx, "cust_001")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.ListByCustomer(ctx, "cust_999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCustomerDirectorySeedAndDefaults(t *testing.T) {
	dir := NewMemoryCustomerDirectory()
	SeedDemoCustomers(dir)
	ctx := context.Background()

	john, err := dir.Get(ctx, "cust_001")
	require.NoError(t, err)
	require.Len(t, john.PaymentMethods, 2)
	assert.True(t, john.PaymentMethods[0].IsDefault)

	_, err = dir.Get(ctx, "cust_404")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Adding a new default method demotes the old one.
	method, err := domain.NewPaymentMethod("credit_card", "4242", "Visa", 11, 2029, true)
	require.NoError(t, err)
	require.NoError(t, dir.AddPaymentMethod(ctx, "cust_001", method))

	john, err = dir.Get(ctx, "cust_001")
	require.NoError(t, err)
	require.Len(t, john.PaymentMethods, 3)
	defaults := 0
	for _, m := range john.PaymentMethods {
		if m.IsDefault {
			defaults++
			assert.Equal(t, method.ID, m.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	assert.ErrorIs(t, dir.AddPaymentMethod(ctx, "cust_404", method), apperr.ErrNotFound)
}
