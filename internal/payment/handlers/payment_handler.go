// Package handlers exposes the payment service over HTTP: tool discovery
// and dispatch, plus a health probe.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/tools"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	registry       *tools.Registry
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PaymentHandler{
		paymentService: paymentService,
		registry:       tools.NewRegistry(logger),
		log:            logger,
	}
	h.registerTools()
	return h
}

func (h *PaymentHandler) Registry() *tools.Registry {
	return h.registry
}

func (h *PaymentHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/tools", h.GetAvailableTools)
	app.Post("/tools/call", h.CallTool)
	app.Get("/health", h.Health)
}

func (h *PaymentHandler) GetAvailableTools(c *fiber.Ctx) error {
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
func (h *PaymentHandler) CallTool(c *fiber.Ctx) error {
	var req callToolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(fiber.Map{"error": "invalid request body"})
	}
	return c.JSON(h.registry.Call(c.Context(), req.Name, req.Arguments))
}

func (h *PaymentHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": "payment-service"})
}
