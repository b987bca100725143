// Package service implements the payment processing use cases on top of
// the ledger, the gateway and the order-service notification outbox.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/gateway"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/outbox"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/messaging"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {},
}

var supportedMethods = map[string]struct{}{
	"credit_card": {}, "debit_card": {}, "bank_transfer": {}, "digital_wallet": {},
}

// Notifier queues a payment outcome for delivery to the order service.
type Notifier interface {
	Enqueue(n outbox.Notification)
}

// EventPublisher mirrors ledger state changes onto the message broker.
type EventPublisher interface {
	PublishPaymentEvent(event messaging.PaymentEvent) error
}

type PaymentService struct {
	payments  repository.PaymentStore
	customers repository.CustomerDirectory
	gateway   gateway.Gateway
	notifier  Notifier       // optional
	events    EventPublisher // optional
	log       *zap.Logger
}

func NewPaymentService(
	payments repository.PaymentStore,
	customers repository.CustomerDirectory,
	gw gateway.Gateway,
	notifier Notifier,
	events EventPublisher,
	log *zap.Logger,
) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{
		payments:  payments,
		customers: customers,
		gateway:   gw,
		notifier:  notifier,
		events:    events,
		log:       log,
	}
}

// ChargeInput is a charge or authorization request against the gateway.
type ChargeInput struct {
	OrderID        string
	CustomerID     string
	Amount         decimal.Decimal
	Currency       string
	PaymentMethod  string
	PaymentDetails map[string]any
}

func (in ChargeInput) validate() error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be greater than zero: %w", apperr.ErrInvalidInput)
	}
	if _, ok := supportedCurrencies[in.Currency]; !ok {
		return fmt.Errorf("unsupported currency: %s: %w", in.Currency, apperr.ErrInvalidInput)
	}
	if _, ok := supportedMethods[in.PaymentMethod]; !ok {
		return fmt.Errorf("unsupported payment method: %s: %w", in.PaymentMethod, apperr.ErrInvalidInput)
	}
	return nil
}

// ProcessPayment runs a full charge. A gateway decline still produces a
// Payment record in status failed; validation failures produce none.
func (s *PaymentService) ProcessPayment(ctx context.Context, in ChargeInput) (*types.Payment, error) {
	return s.charge(ctx, in, false)
}

// AuthorizePayment places a funds hold without capturing. The ledger
// entry and payment land in status authorized on approval.
func (s *PaymentService) AuthorizePayment(ctx context.Context, in ChargeInput) (*types.Payment, error) {
	return s.charge(ctx, in, true)
}

func (s *PaymentService) charge(ctx context.Context, in ChargeInput, authorizeOnly bool) (*types.Payment, error) {
	if _, err := s.customers.Get(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	chargeStart := time.Now()
	res, err := s.gateway.Charge(ctx, gateway.ChargeRequest{
		OrderID:       in.OrderID,
		CustomerID:    in.CustomerID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("charging gateway: %w", err)
	}

	payment := domain.NewPayment(in.OrderID, in.CustomerID, in.Amount, in.Currency, in.PaymentMethod, map[string]any{
		"gateway":         "simulated_gateway",
		"processing_time": time.Since(chargeStart).Seconds(),
	})

	txnType := types.TransactionTypePayment
	outcome := types.PaymentStatusCompleted
	if authorizeOnly {
		txnType = types.TransactionTypeAuthorization
		outcome = types.PaymentStatusAuthorized
	}
	if !res.Approved {
		outcome = types.PaymentStatusFailed
	}

	domain.Append(payment, domain.NewTransaction(payment.ID, txnType, in.Amount, in.Currency, outcome, res.Response))
	if err := domain.Settle(payment, outcome); err != nil {
		return nil, err
	}
	if err := s.payments.Insert(ctx, payment); err != nil {
		return nil, err
	}

	switch outcome {
	case types.PaymentStatusCompleted:
		s.log.Info("payment processed",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", payment.OrderID),
			zap.String("amount", payment.Amount.String()))
		s.notify(payment, string(types.OrderPaymentPaid))
		s.publish(payment, messaging.PaymentCompletedEvent)
	case types.PaymentStatusAuthorized:
		s.log.Info("payment authorized",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", payment.OrderID))
		s.notify(payment, string(types.OrderPaymentAuthorized))
	case types.PaymentStatusFailed:
		s.log.Warn("payment declined",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", payment.OrderID))
		s.publish(payment, messaging.PaymentFailedEvent)
	}
	return payment, nil
}

// CapturePayment settles a previous authorization. A nil amount captures
// the full authorized amount.
func (s *PaymentService) CapturePayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*types.Payment, error) {
	payment, err := s.payments.Mutate(ctx, paymentID, func(draft *types.Payment) error {
		captureAmount := draft.Amount
		if amount != nil {
			captureAmount = *amount
		}
		if err := domain.Capture(draft); err != nil {
			return err
		}
		domain.Append(draft, domain.NewTransaction(
			draft.ID, types.TransactionTypeCapture, captureAmount, draft.Currency,
			types.PaymentStatusCompleted, gateway.CaptureResponse(captureAmount)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment captured", zap.String("payment_id", payment.ID))
	s.notify(payment, string(types.OrderPaymentPaid))
	s.publish(payment, messaging.PaymentCompletedEvent)
	return payment, nil
}

// VoidPayment releases an authorization hold before capture.
func (s *PaymentService) VoidPayment(ctx context.Context, paymentID, reason string) (*types.Payment, error) {
	payment, err := s.payments.Mutate(ctx, paymentID, func(draft *types.Payment) error {
		if err := domain.Void(draft); err != nil {
			return err
		}
		response := gateway.VoidResponse()
		response["reason"] = reason
		domain.Append(draft, domain.NewTransaction(
			draft.ID, types.TransactionTypeVoid, decimal.Zero, draft.Currency,
			types.PaymentStatusCompleted, response))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment voided",
		zap.String("payment_id", payment.ID),
		zap.String("reason", reason))
	s.publish(payment, messaging.PaymentVoidedEvent)
	return payment, nil
}

// RefundPayment refunds part or all of a completed payment. A nil amount
// refunds the full remaining balance.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID, reason string, amount *decimal.Decimal) (*types.Payment, error) {
	payment, err := s.payments.Mutate(ctx, paymentID, func(draft *types.Payment) error {
		refundAmount := domain.RemainingRefundable(draft)
		if amount != nil {
			refundAmount = *amount
		}
		if err := domain.Refund(draft, refundAmount); err != nil {
			return err
		}
		response := gateway.RefundResponse(refundAmount)
		response["reason"] = reason
		domain.Append(draft, domain.NewTransaction(
			draft.ID, types.TransactionTypeRefund, refundAmount, draft.Currency,
			types.PaymentStatusCompleted, response))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment refunded",
		zap.String("payment_id", payment.ID),
		zap.String("refunded_amount", payment.RefundedAmount.String()),
		zap.String("status", string(payment.Status)))
	if payment.Status == types.PaymentStatusRefunded {
		s.notify(payment, string(types.OrderPaymentRefunded))
	}
	s.publish(payment, messaging.PaymentRefundedEvent)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*types.Payment, error) {
	return s.payments.Get(ctx, paymentID)
}

// GetCustomerPayments lists a customer's payments, optionally narrowed
// to a single status.
func (s *PaymentService) GetCustomerPayments(ctx context.Context, customerID, statusFilter string) ([]*types.Payment, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if statusFilter == "" {
		return payments, nil
	}
	filtered := payments[:0]
	for _, p := range payments {
		if string(p.Status) == statusFilter {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// AddPaymentMethod stores a validated method on the customer's profile.
func (s *PaymentService) AddPaymentMethod(ctx context.Context, customerID string, method types.PaymentMethod) error {
	if err := s.customers.AddPaymentMethod(ctx, customerID, method); err != nil {
		return err
	}
	s.log.Info("payment method added",
		zap.String("customer_id", customerID),
		zap.String("payment_method_id", method.ID))
	return nil
}

func (s *PaymentService) notify(payment *types.Payment, status string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(outbox.Notification{
		OrderID:       payment.OrderID,
		PaymentStatus: status,
		PaymentID:     payment.ID,
	})
}

func (s *PaymentService) publish(payment *types.Payment, eventType messaging.PaymentEventType) {
	if s.events == nil {
		return
	}
	err := s.events.PublishPaymentEvent(messaging.PaymentEvent{
		EventType: eventType,
		Service:   "payment-service",
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Payload: map[string]any{
			"amount":   payment.Amount.InexactFloat64(),
			"currency": payment.Currency,
			"status":   string(payment.Status),
		},
	})
	if err != nil {
		// The broker mirror is best effort; the HTTP callback is the
		// contractual channel.
		s.log.Warn("payment event publish failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}
}
