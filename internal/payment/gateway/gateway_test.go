package gateway

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chargeReq() ChargeRequest {
	return ChargeRequest{
		OrderID:       "order_000001",
		CustomerID:    "cust_001",
		Amount:        decimal.RequireFromString("49.99"),
		Currency:      "USD",
		PaymentMethod: "credit_card",
	}
}

func TestChargeAlwaysApproves(t *testing.T) {
	g := NewSimulatedGateway(1.0, 0)

	res, err := g.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, "approved", res.Response["status"])
	assert.Equal(t, ResponseCodeApproved, res.Response["response_code"])
	assert.Regexp(t, `^gateway_[0-9a-f]{12}$`, res.Response["transaction_id"])
	assert.Regexp(t, `^AUTH[0-9A-F]{6}$`, res.Response["authorization_code"])
}

func TestChargeAlwaysDeclines(t *testing.T) {
	g := NewSimulatedGateway(0.0, 0)

	res, err := g.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "declined", res.Response["status"])
	assert.Equal(t, ResponseCodeDeclined, res.Response["error_code"])
	assert.Equal(t, "Insufficient funds", res.Response["error_message"])
}

func TestChargeApprovalRate(t *testing.T) {
	g := NewSimulatedGateway(0.9, 0).WithRand(rand.New(rand.NewSource(42)))

	approved := 0
	for i := 0; i < 1000; i++ {
		res, err := g.Charge(context.Background(), chargeReq())
		require.NoError(t, err)
		if res.Approved {
			approved++
		}
	}
	// Loose bounds: the point is the rate is applied, not its exact value.
	assert.Greater(t, approved, 850)
	assert.Less(t, approved, 950)
}

func TestChargeHonoursContextDuringDelay(t *testing.T) {
	g := NewSimulatedGateway(1.0, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Charge(ctx, chargeReq())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuccessRateIsClamped(t *testing.T) {
	res, err := NewSimulatedGateway(7.5, 0).Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.True(t, res.Approved)

	res, err = NewSimulatedGateway(-1, 0).Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.False(t, res.Approved)
}

func TestLedgerPayloadBuilders(t *testing.T) {
	amount := decimal.RequireFromString("25.50")

	capture := CaptureResponse(amount)
	assert.Equal(t, "captured", capture["status"])
	assert.Equal(t, 25.5, capture["amount"])
	assert.Regexp(t, `^CAP[0-9A-F]{6}$`, capture["capture_id"])

	void := VoidResponse()
	assert.Equal(t, "voided", void["status"])
	assert.Regexp(t, `^VOID[0-9A-F]{6}$`, void["void_id"])

	refund := RefundResponse(amount)
	assert.Equal(t, "refunded", refund["status"])
	assert.Regexp(t, `^REF[0-9A-F]{6}$`, refund["refund_id"])
}
