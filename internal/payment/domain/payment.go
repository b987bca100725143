// Package domain holds the payment aggregate and its state machine:
//
//	PENDING    -> AUTHORIZED | COMPLETED | FAILED
//	AUTHORIZED -> COMPLETED (capture) | CANCELLED (void)
//	COMPLETED | PARTIALLY_REFUNDED -> PARTIALLY_REFUNDED | REFUNDED (refund)
//
// FAILED, CANCELLED and REFUNDED are terminal. Transactions are an
// append-only ledger; the sum of refund transactions always equals
// RefundedAmount.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

func NewPaymentID() string     { return "pay_" + shortHex() }
func NewTransactionID() string { return "txn_" + shortHex() }
func NewMethodID() string      { return "pm_" + shortHex() }

func shortHex() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func NewPayment(orderID, customerID string, amount decimal.Decimal, currency, method string, metadata map[string]any) *types.Payment {
	now := time.Now().UTC()
	return &types.Payment{
		ID:             NewPaymentID(),
		OrderID:        orderID,
		CustomerID:     customerID,
		Amount:         amount,
		Currency:       currency,
		PaymentMethod:  method,
		Status:         types.PaymentStatusPending,
		RefundedAmount: decimal.Zero,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewTransaction builds a processed ledger entry carrying the gateway
// payload verbatim.
func NewTransaction(paymentID string, txnType types.TransactionType, amount decimal.Decimal, currency string, status types.PaymentStatus, gatewayResponse map[string]any) types.Transaction {
	now := time.Now().UTC()
	return types.Transaction{
		ID:              NewTransactionID(),
		PaymentID:       paymentID,
		Type:            txnType,
		Amount:          amount,
		Currency:        currency,
		Status:          status,
		GatewayResponse: gatewayResponse,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
}

// Append attaches a ledger entry and refreshes the payment timestamp.
// Entries are never modified or removed afterwards.
func Append(p *types.Payment, txn types.Transaction) {
	p.Transactions = append(p.Transactions, txn)
	p.UpdatedAt = time.Now().UTC()
}

// Settle moves a pending payment to its gateway outcome.
func Settle(p *types.Payment, outcome types.PaymentStatus) error {
	if p.Status != types.PaymentStatusPending {
		return invalidState(p, "settle")
	}
	switch outcome {
	case types.PaymentStatusCompleted, types.PaymentStatusAuthorized, types.PaymentStatusFailed:
		p.Status = outcome
		p.UpdatedAt = time.Now().UTC()
		return nil
	}
	return invalidState(p, "settle")
}

// Capture completes a previously authorized payment.
func Capture(p *types.Payment) error {
	if p.Status != types.PaymentStatusAuthorized {
		return fmt.Errorf("payment must be authorized to be captured: %w", apperr.ErrInvalidState)
	}
	p.Status = types.PaymentStatusCompleted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Void cancels a previously authorized payment before capture.
func Void(p *types.Payment) error {
	if p.Status != types.PaymentStatusAuthorized {
		return fmt.Errorf("payment must be authorized to be voided: %w", apperr.ErrInvalidState)
	}
	p.Status = types.PaymentStatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RemainingRefundable is the amount still available for refund.
func RemainingRefundable(p *types.Payment) decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

// Refund applies a refund of the given amount. Completed and partially
// refunded payments are refundable up to the remaining balance;
// RefundedAmount only ever grows.
func Refund(p *types.Payment, amount decimal.Decimal) error {
	if p.Status != types.PaymentStatusCompleted && p.Status != types.PaymentStatusPartiallyRefunded {
		return fmt.Errorf("payment must be completed to be refunded: %w", apperr.ErrInvalidState)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("refund amount must be greater than zero: %w", apperr.ErrInvalidInput)
	}
	if amount.GreaterThan(RemainingRefundable(p)) {
		return fmt.Errorf("refund amount %s %w of %s", amount, apperr.ErrExceedsAvailable, RemainingRefundable(p))
	}

	p.RefundedAmount = p.RefundedAmount.Add(amount)
	if p.RefundedAmount.Equal(p.Amount) {
		p.Status = types.PaymentStatusRefunded
	} else {
		p.Status = types.PaymentStatusPartiallyRefunded
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func invalidState(p *types.Payment, op string) error {
	return fmt.Errorf("cannot %s payment in status %s: %w", op, p.Status, apperr.ErrInvalidState)
}

// Clone deep-copies a payment so stored state never aliases caller state.
func Clone(p *types.Payment) *types.Payment {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Transactions = append([]types.Transaction(nil), p.Transactions...)
	if p.Metadata != nil {
		clone.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
