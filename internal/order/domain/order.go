package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// NewOrder builds a pending order whose total is frozen at creation time:
// later product price changes never affect it.
func NewOrder(id, customerID string, items []types.OrderItem, shippingAddress map[string]string) *types.Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}

	now := time.Now().UTC()
	return &types.Order{
		ID:              id,
		CustomerID:      customerID,
		Items:           items,
		TotalAmount:     total,
		Status:          types.OrderStatusPending,
		PaymentStatus:   types.OrderPaymentPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewOrderItem snapshots the unit price and computes the line total.
func NewOrderItem(productID string, quantity int, unitPrice decimal.Decimal) types.OrderItem {
	return types.OrderItem{
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// UpdateStatus overwrites the order status. Transitions are deliberately
// permissive: only enum membership is checked, any status may follow any
// other.
func UpdateStatus(o *types.Order, status types.OrderStatus) error {
	if !types.ValidOrderStatus(status) {
		return fmt.Errorf("invalid status: %s: %w", status, apperr.ErrInvalidInput)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyPaymentOutcome records the payment service's verdict on the order.
// It is idempotent per payment id so redelivered callbacks are harmless;
// the return value reports whether the order actually changed.
func ApplyPaymentOutcome(o *types.Order, status types.OrderPaymentStatus, paymentID string) bool {
	if o.PaymentStatus == status && o.PaymentID == paymentID {
		return false
	}
	o.PaymentStatus = status
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	o.UpdatedAt = time.Now().UTC()
	return true
}

// Clone deep-copies an order so stored state never aliases caller state.
func Clone(o *types.Order) *types.Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]types.OrderItem(nil), o.Items...)
	if o.ShippingAddress != nil {
		clone.ShippingAddress = make(map[string]string, len(o.ShippingAddress))
		for k, v := range o.ShippingAddress {
			clone.ShippingAddress[k] = v
		}
	}
	return &clone
}
