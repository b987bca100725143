package handlers

import (
	"context"
	"fmt"

	"github.com/ecommerce-checkout/checkout-services/internal/order/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/tools"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// Tool names form a closed dispatch set; adding a tool means registering it
// here and nowhere else.
const (
	toolCreateOrder       = "create_order"
	toolGetOrder          = "get_order"
	toolUpdateOrderStatus = "update_order_status"
	toolCheckInventory    = "check_inventory"
	toolGetCustomerOrders = "get_customer_orders"
	toolAddCustomer       = "add_customer"
)

func (h *OrderHandler) registerTools() {
	h.registry.Register(tools.Tool{
		Name:        toolCreateOrder,
		Description: "Create a new order for a customer",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"customer_id":      {Type: "string", Description: "Customer ID"},
				"items":            {Type: "array", Description: "Order lines: product_id + quantity"},
				"shipping_address": {Type: "object"},
			},
			Required: []string{"customer_id", "items", "shipping_address"},
		},
		Handler: h.handleCreateOrder,
	})

	h.registry.Register(tools.Tool{
		Name:        toolGetOrder,
		Description: "Get order details by order ID",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"order_id": {Type: "string", Description: "Order ID"},
			},
			Required: []string{"order_id"},
		},
		Handler: h.handleGetOrder,
	})

	h.registry.Register(tools.Tool{
		Name:        toolUpdateOrderStatus,
		Description: "Update order status",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"order_id": {Type: "string"},
				"status": {
					Type: "string",
					Enum: []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"},
				},
			},
			Required: []string{"order_id", "status"},
		},
		Handler: h.handleUpdateOrderStatus,
	})

	h.registry.Register(tools.Tool{
		Name:        toolCheckInventory,
		Description: "Check product inventory levels",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"product_id": {Type: "string", Description: "Product ID"},
			},
			Required: []string{"product_id"},
		},
		Handler: h.handleCheckInventory,
	})

	h.registry.Register(tools.Tool{
		Name:        toolGetCustomerOrders,
		Description: "Get all orders for a customer",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"customer_id": {Type: "string"},
			},
			Required: []string{"customer_id"},
		},
		Handler: h.handleGetCustomerOrders,
	})

	h.registry.Register(tools.Tool{
		Name:        toolAddCustomer,
		Description: "Add a new customer",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"name":    {Type: "string"},
				"email":   {Type: "string"},
				"phone":   {Type: "string"},
				"address": {Type: "object"},
			},
			Required: []string{"name", "email", "phone", "address"},
		},
		Handler: h.handleAddCustomer,
	})
}

func (h *OrderHandler) handleCreateOrder(ctx context.Context, args map[string]any) (map[string]any, error) {
	customerID, err := tools.StringArg(args, "customer_id")
	if err != nil {
		return nil, err
	}
	rawItems, err := tools.ArrayArg(args, "items")
	if err != nil {
		return nil, err
	}
	shippingAddress, err := tools.StringMapArg(args, "shipping_address")
	if err != nil {
		return nil, err
	}

	var items []service.CreateOrderItemInput
	for i, raw := range rawItems {
		line, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d must be an object: %w", i, apperr.ErrInvalidInput)
		}
		productID, err := tools.StringArg(line, "product_id")
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		quantity, err := tools.IntArg(line, "quantity")
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, service.CreateOrderItemInput{
			ProductID: productID,
			Quantity:  quantity,
		})
	}

	result, err := h.orderService.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: shippingAddress,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"order_id":     result.OrderID,
		"total_amount": result.TotalAmount.InexactFloat64(),
		"status":       string(result.Status),
		"message":      "Order created successfully",
	}, nil
}

func (h *OrderHandler) handleGetOrder(ctx context.Context, args map[string]any) (map[string]any, error) {
	orderID, err := tools.StringArg(args, "order_id")
	if err != nil {
		return nil, err
	}

	order, err := h.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return map[string]any{"order": orderProjection(order)}, nil
}

func (h *OrderHandler) handleUpdateOrderStatus(ctx context.Context, args map[string]any) (map[string]any, error) {
	orderID, err := tools.StringArg(args, "order_id")
	if err != nil {
		return nil, err
	}
	status, err := tools.StringArg(args, "status")
	if err != nil {
		return nil, err
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, orderID, types.OrderStatus(status))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
		"message":  "Order status updated successfully",
	}, nil
}

func (h *OrderHandler) handleCheckInventory(ctx context.Context, args map[string]any) (map[string]any, error) {
	productID, err := tools.StringArg(args, "product_id")
	if err != nil {
		return nil, err
	}

	product, err := h.orderService.CheckInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"product": map[string]any{
			"id":             product.ID,
			"name":           product.Name,
			"stock_quantity": product.StockQuantity,
			"sku":            product.SKU,
		},
	}, nil
}

func (h *OrderHandler) handleGetCustomerOrders(ctx context.Context, args map[string]any) (map[string]any, error) {
	customerID, err := tools.StringArg(args, "customer_id")
	if err != nil {
		return nil, err
	}

	orders, err := h.orderService.GetCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, map[string]any{
			"id":             order.ID,
			"total_amount":   order.TotalAmount.InexactFloat64(),
			"status":         string(order.Status),
			"payment_status": string(order.PaymentStatus),
			"created_at":     order.CreatedAt,
		})
	}

	return map[string]any{
		"customer_id": customerID,
		"orders":      summaries,
		"count":       len(summaries),
	}, nil
}

func (h *OrderHandler) handleAddCustomer(ctx context.Context, args map[string]any) (map[string]any, error) {
	name, err := tools.StringArg(args, "name")
	if err != nil {
		return nil, err
	}
	email, err := tools.StringArg(args, "email")
	if err != nil {
		return nil, err
	}
	phone := tools.OptionalStringArg(args, "phone")
	address, err := tools.StringMapArg(args, "address")
	if err != nil {
		return nil, err
	}

	customer, err := h.orderService.AddCustomer(ctx, service.AddCustomerInput{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: address,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"customer_id": customer.ID,
		"message":     "Customer added successfully",
	}, nil
}

func orderProjection(order *types.Order) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"product_id":  item.ProductID,
			"quantity":    item.Quantity,
			"unit_price":  item.UnitPrice.InexactFloat64(),
			"total_price": item.TotalPrice.InexactFloat64(),
		})
	}

	projection := map[string]any{
		"id":               order.ID,
		"customer_id":      order.CustomerID,
		"items":            items,
		"total_amount":     order.TotalAmount.InexactFloat64(),
		"status":           string(order.Status),
		"payment_status":   string(order.PaymentStatus),
		"shipping_address": order.ShippingAddress,
		"created_at":       order.CreatedAt,
		"updated_at":       order.UpdatedAt,
	}
	if order.PaymentID != "" {
		projection["payment_id"] = order.PaymentID
	}
	return projection
}
