package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/order/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/httpx"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/tools"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

type OrderHandler struct {
	orderService *service.OrderService
	registry     *tools.Registry
	log          *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &OrderHandler{
		orderService: orderService,
		registry:     tools.NewRegistry(logger),
		log:          logger,
	}
	h.registerTools()
	return h
}

func (h *OrderHandler) Registry() *tools.Registry {
	return h.registry
}

func (h *OrderHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/tools", h.GetAvailableTools)
	app.Post("/tools/call", h.CallTool)
	app.Post("/update_payment_status", h.UpdatePaymentStatus)
	app.Get("/health", h.Health)
}

func (h *OrderHandler) GetAvailableTools(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"tools": h.registry.Definitions(),
	})
}

type callToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallTool dispatches a named tool. Failures are carried inside the result
// map; the HTTP layer always answers 200 so callers branch on the success
// field, not on transport status.
func (h *OrderHandler) CallTool(c *fiber.Ctx) error {
	var req callToolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(fiber.Map{"error": "invalid request body"})
	}
	return c.JSON(h.registry.Call(c.Context(), req.Name, req.Arguments))
}

type updatePaymentStatusRequest struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id"`
}

// UpdatePaymentStatus is the unauthenticated callback the payment service
// posts after a payment settles. Unknown orders are logged and dropped; the
// response is 2xx either way so the notifier stops redelivering.
func (h *OrderHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	var req updatePaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]any{
			"parse_error": err.Error(),
		})
	}

	err := h.orderService.MarkPaymentStatus(
		c.Context(),
		req.OrderID,
		types.OrderPaymentStatus(req.PaymentStatus),
		req.PaymentID,
	)
	switch {
	case err == nil:
		return httpx.SuccessResponse(c, "Payment status updated", fiber.Map{
			"order_id":       req.OrderID,
			"payment_status": req.PaymentStatus,
		})
	case errors.Is(err, apperr.ErrNotFound):
		h.log.Warn("payment_status_for_unknown_order",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
		)
		return httpx.SuccessResponse(c, "Order unknown, notification dropped", fiber.Map{
			"order_id": req.OrderID,
		})
	default:
		return httpx.ErrorResponse(c, err)
	}
}

func (h *OrderHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": "order-service"})
}
