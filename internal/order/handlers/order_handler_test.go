package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/order/catalog"
	"github.com/ecommerce-checkout/checkout-services/internal/order/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/order/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := catalog.NewMemoryStore()
	require.NoError(t, catalog.SeedDemoProducts(context.Background(), store))
	orders := repository.NewMemoryOrderStore()
	customers := repository.NewMemoryCustomerStore()
	require.NoError(t, repository.SeedDemoCustomers(context.Background(), customers))

	svc := service.NewOrderService(store, orders, customers, nil, zap.NewNop())
	handler := NewOrderHandler(svc, zap.NewNop())

	app := fiber.New()
	handler.RegisterRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestToolDiscovery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tools []struct {
			Name        string `json:"name"`
			InputSchema struct {
				Type string `json:"type"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 6)
	assert.Equal(t, "object", body.Tools[0].InputSchema.Type)
}

func TestCallToolAlwaysAnswers200(t *testing.T) {
	app := newTestApp(t)

	// A successful call.
	resp, body := postJSON(t, app, "/tools/call", map[string]any{
		"name": "check_inventory",
		"arguments": map[string]any{
			"product_id": "prod_001",
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// A business failure rides the same 200 with success=false.
	resp, body = postJSON(t, app, "/tools/call", map[string]any{
		"name": "check_inventory",
		"arguments": map[string]any{
			"product_id": "prod_404",
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "prod_404")

	// Unknown tools answer with the bare error shape.
	resp, body = postJSON(t, app, "/tools/call", map[string]any{
		"name": "teleport_order",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Unknown tool: teleport_order", body["error"])
	_, hasSuccess := body["success"]
	assert.False(t, hasSuccess)
}

func TestCreateOrderRoundTrip(t *testing.T) {
	app := newTestApp(t)

	_, body := postJSON(t, app, "/tools/call", map[string]any{
		"name": "create_order",
		"arguments": map[string]any{
			"customer_id": "cust_001",
			"items": []map[string]any{
				{"product_id": "prod_001", "quantity": 1},
				{"product_id": "prod_002", "quantity": 2},
			},
			"shipping_address": map[string]any{
				"street": "123 Main St", "city": "Anytown",
			},
		},
	})
	require.Equal(t, true, body["success"])
	assert.Equal(t, "order_000001", body["order_id"])
	assert.InDelta(t, 1359.97, body["total_amount"], 0.001)
	assert.Equal(t, "pending", body["status"])

	_, body = postJSON(t, app, "/tools/call", map[string]any{
		"name": "get_order",
		"arguments": map[string]any{
			"order_id": "order_000001",
		},
	})
	require.Equal(t, true, body["success"])
	order := body["order"].(map[string]any)
	assert.Equal(t, "cust_001", order["customer_id"])
	assert.Equal(t, "pending", order["payment_status"])
}

func TestUpdatePaymentStatusCallback(t *testing.T) {
	app := newTestApp(t)

	_, created := postJSON(t, app, "/tools/call", map[string]any{
		"name": "create_order",
		"arguments": map[string]any{
			"customer_id": "cust_001",
			"items": []map[string]any{
				{"product_id": "prod_002", "quantity": 1},
			},
			"shipping_address": map[string]any{"city": "Anytown"},
		},
	})
	require.Equal(t, true, created["success"])
	orderID := created["order_id"].(string)

	callback := map[string]any{
		"order_id":       orderID,
		"payment_status": "paid",
		"payment_id":     "pay_abc12345",
	}
	resp, body := postJSON(t, app, "/update_payment_status", callback)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Redelivery of the same notification stays 2xx.
	resp, _ = postJSON(t, app, "/update_payment_status", callback)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown orders are acknowledged so the sender stops retrying.
	resp, _ = postJSON(t, app, "/update_payment_status", map[string]any{
		"order_id":       "order_999999",
		"payment_status": "paid",
		"payment_id":     "pay_abc12345",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, fetched := postJSON(t, app, "/tools/call", map[string]any{
		"name":      "get_order",
		"arguments": map[string]any{"order_id": orderID},
	})
	order := fetched["order"].(map[string]any)
	assert.Equal(t, "paid", order["payment_status"])
	assert.Equal(t, "pay_abc12345", order["payment_id"])
}
