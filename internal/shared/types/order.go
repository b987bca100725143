package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderPaymentStatus is the order's view of its payment, updated through the
// payment-service callback. It is tracked separately from OrderStatus.
type OrderPaymentStatus string

const (
	OrderPaymentPending    OrderPaymentStatus = "pending"
	OrderPaymentAuthorized OrderPaymentStatus = "authorized"
	OrderPaymentPaid       OrderPaymentStatus = "paid"
	OrderPaymentFailed     OrderPaymentStatus = "failed"
	OrderPaymentRefunded   OrderPaymentStatus = "refunded"
)

// ValidOrderStatus reports whether s is one of the six order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidOrderPaymentStatus reports whether s is one of the five payment statuses.
func ValidOrderPaymentStatus(s OrderPaymentStatus) bool {
	switch s {
	case OrderPaymentPending, OrderPaymentAuthorized, OrderPaymentPaid,
		OrderPaymentFailed, OrderPaymentRefunded:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	Items           []OrderItem        `json:"items"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          OrderStatus        `json:"status"`
	PaymentStatus   OrderPaymentStatus `json:"payment_status"`
	PaymentID       string             `json:"payment_id,omitempty"`
	ShippingAddress map[string]string  `json:"shipping_address"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
