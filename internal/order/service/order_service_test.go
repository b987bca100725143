package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-checkout/checkout-services/internal/order/catalog"
	"github.com/ecommerce-checkout/checkout-services/internal/order/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

func newService(t *testing.T) (*OrderService, catalog.Store) {
	t.Helper()
	ctx := context.Background()

	store := catalog.NewMemoryStore()
	require.NoError(t, catalog.SeedDemoProducts(ctx, store))

	customers := repository.NewMemoryCustomerStore()
	require.NoError(t, repository.SeedDemoCustomers(ctx, customers))

	return NewOrderService(store, repository.NewMemoryOrderStore(), customers, nil, nil), store
}

func stock(t *testing.T, store catalog.Store, productID string) int {
	t.Helper()
	product, err := store.Read(context.Background(), productID)
	require.NoError(t, err)
	return product.StockQuantity
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	result, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items: []CreateOrderItemInput{
			{ProductID: "prod_001", Quantity: 1},
		},
		ShippingAddress: map[string]string{"city": "New York"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_000001", result.OrderID)
	assert.Equal(t, "1299.99", result.TotalAmount.String())
	assert.Equal(t, types.OrderStatusPending, result.Status)
	assert.Equal(t, 49, stock(t, store, "prod_001"))

	order, err := svc.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderPaymentPending, order.PaymentStatus)
	assert.Equal(t, "1299.99", order.Items[0].UnitPrice.String())
}

func TestCreateOrderTotalIsSumOfLines(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	result, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_002",
		Items: []CreateOrderItemInput{
			{ProductID: "prod_001", Quantity: 1},
			{ProductID: "prod_002", Quantity: 2},
			{ProductID: "prod_003", Quantity: 3},
		},
		ShippingAddress: map[string]string{"city": "Los Angeles"},
	})
	require.NoError(t, err)

	// 1299.99 + 2*29.99 + 3*12.99
	assert.Equal(t, "1398.94", result.TotalAmount.String())
	assert.Equal(t, 49, stock(t, store, "prod_001"))
	assert.Equal(t, 198, stock(t, store, "prod_002"))
	assert.Equal(t, 147, stock(t, store, "prod_003"))
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	// Second line exceeds stock; the first line's reservation must be rolled
	// back.
	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items: []CreateOrderItemInput{
			{ProductID: "prod_001", Quantity: 5},
			{ProductID: "prod_002", Quantity: 1000},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))
	assert.Equal(t, 50, stock(t, store, "prod_001"))
	assert.Equal(t, 200, stock(t, store, "prod_002"))

	// Unknown product mid-order rolls back too.
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items: []CreateOrderItemInput{
			{ProductID: "prod_003", Quantity: 2},
			{ProductID: "prod_999", Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, 150, stock(t, store, "prod_003"))
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_404",
		Items:      []CreateOrderItemInput{{ProductID: "prod_001", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{CustomerID: "cust_001"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	result, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items:      []CreateOrderItemInput{{ProductID: "prod_002", Quantity: 1}},
	})
	require.NoError(t, err)

	order, err := svc.UpdateOrderStatus(ctx, result.OrderID, types.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusConfirmed, order.Status)

	_, err = svc.UpdateOrderStatus(ctx, result.OrderID, types.OrderStatus("teleported"))
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.UpdateOrderStatus(ctx, "order_404404", types.OrderStatusConfirmed)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCancellationDoesNotRestock(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	result, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items:      []CreateOrderItemInput{{ProductID: "prod_001", Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 46, stock(t, store, "prod_001"))

	_, err = svc.UpdateOrderStatus(ctx, result.OrderID, types.OrderStatusCancelled)
	require.NoError(t, err)

	// Stock is only returned by an explicit restock.
	assert.Equal(t, 46, stock(t, store, "prod_001"))
}

func TestGetCustomerOrders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "cust_001",
			Items:      []CreateOrderItemInput{{ProductID: "prod_003", Quantity: 1}},
		})
		require.NoError(t, err)
	}
	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_002",
		Items:      []CreateOrderItemInput{{ProductID: "prod_003", Quantity: 1}},
	})
	require.NoError(t, err)

	orders, err := svc.GetCustomerOrders(ctx, "cust_001")
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	_, err = svc.GetCustomerOrders(ctx, "cust_404")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAddCustomer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	customer, err := svc.AddCustomer(ctx, AddCustomerInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+1-555-0789",
	})
	require.NoError(t, err)
	assert.Equal(t, "cust_003", customer.ID)

	_, err = svc.AddCustomer(ctx, AddCustomerInput{Name: "No Email"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestMarkPaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	result, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "cust_001",
		Items:      []CreateOrderItemInput{{ProductID: "prod_002", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaymentStatus(ctx, result.OrderID, types.OrderPaymentPaid, "pay_abc12345"))

	order, err := svc.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderPaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay_abc12345", order.PaymentID)

	// Redelivered notification stays a no-op.
	require.NoError(t, svc.MarkPaymentStatus(ctx, result.OrderID, types.OrderPaymentPaid, "pay_abc12345"))

	err = svc.MarkPaymentStatus(ctx, "order_404404", types.OrderPaymentPaid, "pay_abc12345")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = svc.MarkPaymentStatus(ctx, result.OrderID, types.OrderPaymentStatus("maybe"), "pay_abc12345")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}
