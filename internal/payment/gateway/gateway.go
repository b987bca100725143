// Package gateway abstracts the card network the payment service settles
// against. The simulated implementation approves a configurable share of
// charges after a short processing delay, mirroring how an acquirer
// behaves without any external dependency.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response codes follow the ISO 8583 convention used by most acquirers.
const (
	ResponseCodeApproved = "00"
	ResponseCodeDeclined = "05"

	declineMessage = "Insufficient funds"
)

type ChargeRequest struct {
	OrderID       string
	CustomerID    string
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
}

// ChargeResult carries the gateway decision plus the raw response payload
// that gets archived on the transaction ledger.
type ChargeResult struct {
	Approved bool
	Response map[string]any
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// SimulatedGateway approves successRate of charges uniformly at random.
type SimulatedGateway struct {
	successRate float64
	delay       time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(successRate float64, delay time.Duration) *SimulatedGateway {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &SimulatedGateway{
		successRate: successRate,
		delay:       delay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the random source, used to make outcomes deterministic.
func (g *SimulatedGateway) WithRand(rng *rand.Rand) *SimulatedGateway {
	g.rng = rng
	return g
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("gateway charge interrupted: %w", ctx.Err())
		}
	}

	g.mu.Lock()
	approved := g.rng.Float64() < g.successRate
	g.mu.Unlock()

	txnRef := "gateway_" + shortHex(12)
	if !approved {
		return &ChargeResult{
			Approved: false,
			Response: map[string]any{
				"transaction_id": txnRef,
				"status":         "declined",
				"error_code":     ResponseCodeDeclined,
				"error_message":  declineMessage,
			},
		}, nil
	}
	return &ChargeResult{
		Approved: true,
		Response: map[string]any{
			"transaction_id":     txnRef,
			"status":             "approved",
			"authorization_code": "AUTH" + strings.ToUpper(shortHex(6)),
			"response_code":      ResponseCodeApproved,
		},
	}, nil
}

// CaptureResponse builds the settlement payload recorded when a previous
// authorization is captured. Captures always succeed once the funds hold
// exists, so no gateway round trip is made.
func CaptureResponse(amount decimal.Decimal) map[string]any {
	return map[string]any{
		"capture_id": "CAP" + strings.ToUpper(shortHex(6)),
		"status":     "captured",
		"amount":     amount.InexactFloat64(),
	}
}

// VoidResponse builds the payload recorded when an authorization hold
// is released.
func VoidResponse() map[string]any {
	return map[string]any{
		"void_id": "VOID" + strings.ToUpper(shortHex(6)),
		"status":  "voided",
	}
}

// RefundResponse builds the payload recorded for a refund back to the
// original payment method.
func RefundResponse(amount decimal.Decimal) map[string]any {
	return map[string]any{
		"refund_id": "REF" + strings.ToUpper(shortHex(6)),
		"status":    "refunded",
		"amount":    amount.InexactFloat64(),
	}
}

func shortHex(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}
