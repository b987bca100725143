package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/domain"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/tools"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// Tool names form a closed dispatch set; adding a tool means registering it
// here and nowhere else.
const (
	toolProcessPayment        = "process_payment"
	toolGetPayment            = "get_payment"
	toolRefundPayment         = "refund_payment"
	toolAuthorizePayment      = "authorize_payment"
	toolCapturePayment        = "capture_payment"
	toolVoidPayment           = "void_payment"
	toolGetCustomerPayments   = "get_customer_payments"
	toolAddPaymentMethod      = "add_payment_method"
	toolValidatePaymentMethod = "validate_payment_method"
	toolGetPaymentStatistics  = "get_payment_statistics"
)

func (h *PaymentHandler) registerTools() {
	chargeSchema := tools.Schema{
		Type: "object",
		Properties: map[string]tools.Property{
			"amount":          {Type: "number", Description: "Payment amount", Minimum: tools.Min(0)},
			"currency":        {Type: "string", Description: "Currency code (USD, EUR, etc.)"},
			"payment_method":  {Type: "string", Description: "Payment method type"},
			"payment_details": {Type: "object", Description: "Payment method details"},
			"order_id":        {Type: "string", Description: "Associated order ID"},
			"customer_id":     {Type: "string", Description: "Customer ID"},
		},
		Required: []string{"amount", "currency", "payment_method", "payment_details", "order_id", "customer_id"},
	}

	h.registry.Register(tools.Tool{
		Name:        toolProcessPayment,
		Description: "Process a payment for an order",
		InputSchema: chargeSchema,
		Handler:     h.handleProcessPayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolAuthorizePayment,
		Description: "Authorize a payment without capturing funds",
		InputSchema: chargeSchema,
		Handler:     h.handleAuthorizePayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolGetPayment,
		Description: "Get payment details by payment ID",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"payment_id": {Type: "string", Description: "Payment ID"},
			},
			Required: []string{"payment_id"},
		},
		Handler: h.handleGetPayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolRefundPayment,
		Description: "Refund a payment (full or partial)",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"payment_id": {Type: "string"},
				"amount":     {Type: "number", Description: "Refund amount (optional for full refund)"},
				"reason":     {Type: "string", Description: "Refund reason"},
			},
			Required: []string{"payment_id", "reason"},
		},
		Handler: h.handleRefundPayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolCapturePayment,
		Description: "Capture a previously authorized payment",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"payment_id": {Type: "string"},
				"amount":     {Type: "number", Description: "Amount to capture (optional for full amount)"},
			},
			Required: []string{"payment_id"},
		},
		Handler: h.handleCapturePayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolVoidPayment,
		Description: "Void a payment before it's captured",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"payment_id": {Type: "string"},
				"reason":     {Type: "string"},
			},
			Required: []string{"payment_id", "reason"},
		},
		Handler: h.handleVoidPayment,
	})

	h.registry.Register(tools.Tool{
		Name:        toolGetCustomerPayments,
		Description: "Get all payments for a customer",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"customer_id": {Type: "string"},
				"status":      {Type: "string", Description: "Filter by status (optional)"},
			},
			Required: []string{"customer_id"},
		},
		Handler: h.handleGetCustomerPayments,
	})

	h.registry.Register(tools.Tool{
		Name:        toolAddPaymentMethod,
		Description: "Add a new payment method for a customer",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"customer_id":    {Type: "string"},
				"payment_method": {Type: "object"},
			},
			Required: []string{"customer_id", "payment_method"},
		},
		Handler: h.handleAddPaymentMethod,
	})

	h.registry.Register(tools.Tool{
		Name:        toolValidatePaymentMethod,
		Description: "Validate a payment method",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"payment_method":  {Type: "string"},
				"payment_details": {Type: "object"},
			},
			Required: []string{"payment_method", "payment_details"},
		},
		Handler: h.handleValidatePaymentMethod,
	})

	h.registry.Register(tools.Tool{
		Name:        toolGetPaymentStatistics,
		Description: "Get payment processing statistics",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"start_date": {Type: "string", Description: "Start date (ISO format)"},
				"end_date":   {Type: "string", Description: "End date (ISO format)"},
				"currency":   {Type: "string", Description: "Filter by currency (optional)"},
			},
		},
		Handler: h.handleGetPaymentStatistics,
	})
}

func chargeInputFromArgs(args map[string]any) (service.ChargeInput, error) {
	var in service.ChargeInput

	amount, err := tools.DecimalArg(args, "amount")
	if err != nil {
		return in, err
	}
	currency, err := tools.StringArg(args, "currency")
	if err != nil {
		return in, err
	}
	method, err := tools.StringArg(args, "payment_method")
	if err != nil {
		return in, err
	}
	details, err := tools.ObjectArg(args, "payment_details")
	if err != nil {
		return in, err
	}
	orderID, err := tools.StringArg(args, "order_id")
	if err != nil {
		return in, err
	}
	customerID, err := tools.StringArg(args, "customer_id")
	if err != nil {
		return in, err
	}

	return service.ChargeInput{
		OrderID:        orderID,
		CustomerID:     customerID,
		Amount:         amount,
		Currency:       currency,
		PaymentMethod:  method,
		PaymentDetails: details,
	}, nil
}

func (h *PaymentHandler) handleProcessPayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	in, err := chargeInputFromArgs(args)
	if err != nil {
		return nil, err
	}

	payment, err := h.paymentService.ProcessPayment(ctx, in)
	if err != nil {
		return nil, err
	}

	if payment.Status == types.PaymentStatusFailed {
		return map[string]any{
			"success":    false,
			"payment_id": payment.ID,
			"status":     string(payment.Status),
			"error":      "Payment declined by gateway",
			"message":    "Payment processing failed",
		}, nil
	}

	return map[string]any{
		"payment_id":     payment.ID,
		"transaction_id": payment.Transactions[0].ID,
		"status":         string(payment.Status),
		"amount":         payment.Amount.InexactFloat64(),
		"currency":       payment.Currency,
		"message":        "Payment processed successfully",
	}, nil
}

func (h *PaymentHandler) handleAuthorizePayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	in, err := chargeInputFromArgs(args)
	if err != nil {
		return nil, err
	}

	payment, err := h.paymentService.AuthorizePayment(ctx, in)
	if err != nil {
		return nil, err
	}

	if payment.Status == types.PaymentStatusFailed {
		return map[string]any{
			"success":    false,
			"payment_id": payment.ID,
			"status":     string(payment.Status),
			"error":      "Payment declined by gateway",
			"message":    "Payment authorization failed",
		}, nil
	}

	return map[string]any{
		"payment_id":     payment.ID,
		"transaction_id": payment.Transactions[0].ID,
		"status":         string(payment.Status),
		"amount":         payment.Amount.InexactFloat64(),
		"currency":       payment.Currency,
		"message":        "Payment authorized successfully",
	}, nil
}

func (h *PaymentHandler) handleGetPayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	paymentID, err := tools.StringArg(args, "payment_id")
	if err != nil {
		return nil, err
	}

	payment, err := h.paymentService.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return map[string]any{"payment": paymentProjection(payment)}, nil
}

func (h *PaymentHandler) handleRefundPayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	paymentID, err := tools.StringArg(args, "payment_id")
	if err != nil {
		return nil, err
	}
	reason, err := tools.StringArg(args, "reason")
	if err != nil {
		return nil, err
	}
	amount, hasAmount, err := tools.OptionalDecimalArg(args, "amount")
	if err != nil {
		return nil, err
	}

	var refundAmount *decimal.Decimal
	if hasAmount {
		refundAmount = &amount
	}

	payment, err := h.paymentService.RefundPayment(ctx, paymentID, reason, refundAmount)
	if err != nil {
		return nil, err
	}

	refund := payment.Transactions[len(payment.Transactions)-1]
	return map[string]any{
		"refund_id": refund.ID,
		"amount":    refund.Amount.InexactFloat64(),
		"currency":  payment.Currency,
		"status":    string(payment.Status),
		"message":   "Refund processed successfully",
	}, nil
}

func (h *PaymentHandler) handleCapturePayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	paymentID, err := tools.StringArg(args, "payment_id")
	if err != nil {
		return nil, err
	}
	amount, hasAmount, err := tools.OptionalDecimalArg(args, "amount")
	if err != nil {
		return nil, err
	}

	var captureAmount *decimal.Decimal
	if hasAmount {
		captureAmount = &amount
	}

	payment, err := h.paymentService.CapturePayment(ctx, paymentID, captureAmount)
	if err != nil {
		return nil, err
	}

	capture := payment.Transactions[len(payment.Transactions)-1]
	return map[string]any{
		"capture_id": capture.ID,
		"amount":     capture.Amount.InexactFloat64(),
		"currency":   payment.Currency,
		"status":     string(payment.Status),
		"message":    "Payment captured successfully",
	}, nil
}

func (h *PaymentHandler) handleVoidPayment(ctx context.Context, args map[string]any) (map[string]any, error) {
	paymentID, err := tools.StringArg(args, "payment_id")
	if err != nil {
		return nil, err
	}
	reason, err := tools.StringArg(args, "reason")
	if err != nil {
		return nil, err
	}

	payment, err := h.paymentService.VoidPayment(ctx, paymentID, reason)
	if err != nil {
		return nil, err
	}

	void := payment.Transactions[len(payment.Transactions)-1]
	return map[string]any{
		"void_id": void.ID,
		"status":  string(payment.Status),
		"message": "Payment voided successfully",
	}, nil
}

func (h *PaymentHandler) handleGetCustomerPayments(ctx context.Context, args map[string]any) (map[string]any, error) {
	customerID, err := tools.StringArg(args, "customer_id")
	if err != nil {
		return nil, err
	}
	status := tools.OptionalStringArg(args, "status")

	payments, err := h.paymentService.GetCustomerPayments(ctx, customerID, status)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(payments))
	for _, payment := range payments {
		summaries = append(summaries, map[string]any{
			"id":              payment.ID,
			"order_id":        payment.OrderID,
			"amount":          payment.Amount.InexactFloat64(),
			"currency":        payment.Currency,
			"status":          string(payment.Status),
			"refunded_amount": payment.RefundedAmount.InexactFloat64(),
			"created_at":      payment.CreatedAt,
		})
	}

	return map[string]any{
		"customer_id": customerID,
		"payments":    summaries,
		"count":       len(summaries),
	}, nil
}

func (h *PaymentHandler) handleAddPaymentMethod(ctx context.Context, args map[string]any) (map[string]any, error) {
	customerID, err := tools.StringArg(args, "customer_id")
	if err != nil {
		return nil, err
	}
	data, err := tools.ObjectArg(args, "payment_method")
	if err != nil {
		return nil, err
	}

	methodType, err := tools.StringArg(data, "type")
	if err != nil {
		return nil, err
	}
	lastFour, err := tools.StringArg(data, "last_four")
	if err != nil {
		return nil, err
	}
	expiryMonth, err := tools.IntArg(data, "expiry_month")
	if err != nil {
		return nil, err
	}
	expiryYear, err := tools.IntArg(data, "expiry_year")
	if err != nil {
		return nil, err
	}
	cardType := tools.OptionalStringArg(data, "card_type")
	if cardType == "" {
		cardType = "Unknown"
	}
	isDefault, _ := data["is_default"].(bool)

	method, err := domain.NewPaymentMethod(methodType, lastFour, cardType, expiryMonth, expiryYear, isDefault)
	if err != nil {
		return nil, err
	}
	if err := h.paymentService.AddPaymentMethod(ctx, customerID, method); err != nil {
		return nil, err
	}

	return map[string]any{
		"payment_method_id": method.ID,
		"message":           "Payment method added successfully",
	}, nil
}

func (h *PaymentHandler) handleValidatePaymentMethod(_ context.Context, args map[string]any) (map[string]any, error) {
	if _, err := tools.StringArg(args, "payment_method"); err != nil {
		return nil, err
	}
	details, err := tools.ObjectArg(args, "payment_details")
	if err != nil {
		return nil, err
	}

	validation := h.paymentService.ValidatePaymentMethod(details)
	return map[string]any{
		"validation": map[string]any{
			"valid":        validation.Valid,
			"card_type":    validation.CardType,
			"last_four":    validation.LastFour,
			"expiry_valid": validation.ExpiryValid,
			"cvv_valid":    validation.CVVValid,
		},
		"message": "Payment method validation completed",
	}, nil
}

func (h *PaymentHandler) handleGetPaymentStatistics(ctx context.Context, args map[string]any) (map[string]any, error) {
	startDate := tools.OptionalStringArg(args, "start_date")
	endDate := tools.OptionalStringArg(args, "end_date")
	currency := tools.OptionalStringArg(args, "currency")

	filter, err := service.ParsePeriod(startDate, endDate, currency)
	if err != nil {
		return nil, err
	}

	stats, err := h.paymentService.PaymentStatistics(ctx, filter)
	if err != nil {
		return nil, err
	}

	period := map[string]any{
		"start_date": nilIfEmpty(startDate),
		"end_date":   nilIfEmpty(endDate),
		"currency":   nilIfEmpty(currency),
	}

	return map[string]any{
		"statistics": map[string]any{
			"total_payments":      stats.TotalPayments,
			"total_amount":        stats.TotalAmount.InexactFloat64(),
			"successful_payments": stats.SuccessfulPayments,
			"failed_payments":     stats.FailedPayments,
			"success_rate":        stats.SuccessRate,
			"total_refunds":       stats.TotalRefunds.InexactFloat64(),
			"net_amount":          stats.NetAmount.InexactFloat64(),
		},
		"period": period,
	}, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func paymentProjection(payment *types.Payment) map[string]any {
	transactions := make([]map[string]any, 0, len(payment.Transactions))
	for _, txn := range payment.Transactions {
		entry := map[string]any{
			"id":         txn.ID,
			"type":       string(txn.Type),
			"amount":     txn.Amount.InexactFloat64(),
			"status":     string(txn.Status),
			"created_at": txn.CreatedAt,
		}
		if txn.ProcessedAt != nil {
			entry["processed_at"] = txn.ProcessedAt
		}
		transactions = append(transactions, entry)
	}

	return map[string]any{
		"id":              payment.ID,
		"order_id":        payment.OrderID,
		"customer_id":     payment.CustomerID,
		"amount":          payment.Amount.InexactFloat64(),
		"currency":        payment.Currency,
		"payment_method":  payment.PaymentMethod,
		"status":          string(payment.Status),
		"refunded_amount": payment.RefundedAmount.InexactFloat64(),
		"transactions":    transactions,
		"metadata":        payment.Metadata,
		"created_at":      payment.CreatedAt,
		"updated_at":      payment.UpdatedAt,
	}
}
