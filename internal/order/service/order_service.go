package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/order/catalog"
	"github.com/ecommerce-checkout/checkout-services/internal/order/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/order/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// Archiver mirrors order projections into an external sink. Failures are
// logged, never propagated: the in-memory store is authoritative.
type Archiver interface {
	SaveOrder(ctx context.Context, order *types.Order) error
}

type OrderService struct {
	catalog   catalog.Store
	orders    repository.OrderStore
	customers repository.CustomerStore
	archive   Archiver
	log       *zap.Logger
}

func NewOrderService(
	catalogStore catalog.Store,
	orders repository.OrderStore,
	customers repository.CustomerStore,
	archive Archiver,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		catalog:   catalogStore,
		orders:    orders,
		customers: customers,
		archive:   archive,
		log:       logger,
	}
}

type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID      string
	Items           []CreateOrderItemInput
	ShippingAddress map[string]string
}

type CreateOrderResult struct {
	OrderID     string
	TotalAmount decimal.Decimal
	Status      types.OrderStatus
}

// CreateOrder reserves stock for every line and creates the order, or does
// nothing at all: a failed line rolls back every reservation already taken
// for this order.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", apperr.ErrInvalidInput)
	}

	var items []types.OrderItem
	for _, line := range input.Items {
		unitPrice, err := s.catalog.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.rollbackReservations(ctx, items)
			return nil, err
		}
		items = append(items, domain.NewOrderItem(line.ProductID, line.Quantity, unitPrice))
	}

	order := domain.NewOrder(s.orders.NextID(ctx), input.CustomerID, items, input.ShippingAddress)
	if err := s.orders.Insert(ctx, order); err != nil {
		s.rollbackReservations(ctx, items)
		return nil, err
	}

	s.archiveOrder(ctx, order)
	s.log.Info("order_created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.String("total_amount", order.TotalAmount.String()),
	)

	return &CreateOrderResult{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}, nil
}

func (s *OrderService) rollbackReservations(ctx context.Context, items []types.OrderItem) {
	for _, item := range items {
		if err := s.catalog.Restock(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.Error("reservation_rollback_failed",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) (*types.Order, error) {
	order, err := s.orders.Mutate(ctx, orderID, func(o *types.Order) error {
		return domain.UpdateStatus(o, status)
	})
	if err != nil {
		return nil, err
	}

	s.archiveOrder(ctx, order)
	s.log.Info("order_status_updated",
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
	)
	return order, nil
}

func (s *OrderService) GetCustomerOrders(ctx context.Context, customerID string) ([]*types.Order, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.orders.ListByCustomer(ctx, customerID)
}

type AddCustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address map[string]string
}

func (s *OrderService) AddCustomer(ctx context.Context, input AddCustomerInput) (*types.Customer, error) {
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("customer name and email are required: %w", apperr.ErrInvalidInput)
	}

	customer := &types.Customer{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	id, err := s.customers.Insert(ctx, customer)
	if err != nil {
		return nil, err
	}
	customer.ID = id

	s.log.Info("customer_added",
		zap.String("customer_id", id),
		zap.String("name", customer.Name),
	)
	return customer, nil
}

func (s *OrderService) CheckInventory(ctx context.Context, productID string) (*types.Product, error) {
	return s.catalog.Read(ctx, productID)
}

// MarkPaymentStatus is the callback entry point invoked by the payment
// service. It is idempotent per payment id. An unknown order id is the
// caller's problem to log; state is left untouched.
func (s *OrderService) MarkPaymentStatus(ctx context.Context, orderID string, status types.OrderPaymentStatus, paymentID string) error {
	if !types.ValidOrderPaymentStatus(status) {
		return fmt.Errorf("invalid payment status: %s: %w", status, apperr.ErrInvalidInput)
	}

	changed := false
	order, err := s.orders.Mutate(ctx, orderID, func(o *types.Order) error {
		changed = domain.ApplyPaymentOutcome(o, status, paymentID)
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.archiveOrder(ctx, order)
		s.log.Info("order_payment_status_marked",
			zap.String("order_id", orderID),
			zap.String("payment_status", string(status)),
			zap.String("payment_id", paymentID),
		)
	}
	return nil
}

func (s *OrderService) archiveOrder(ctx context.Context, order *types.Order) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveOrder(ctx, order); err != nil {
		s.log.Warn("order_archive_failed",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}
