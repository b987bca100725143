package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
)

func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "Echo back the given message",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"message":  {Type: "string"},
				"quantity": {Type: "integer", Minimum: Min(1)},
				"amount":   {Type: "number"},
				"details":  {Type: "object"},
			},
			Required: []string{"message"},
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"message": args["message"]}, nil
		},
	}
}

func TestRegistryCall(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(echoTool())

	result := reg.Call(context.Background(), "echo", map[string]any{"message": "hi"})
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "hi", result["message"])
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(echoTool())

	result := reg.Call(context.Background(), "nope", nil)
	_, hasSuccess := result["success"]
	assert.False(t, hasSuccess)
	assert.Equal(t, "Unknown tool: nope", result["error"])
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(echoTool())

	tests := []struct {
		name string
		args map[string]any
		ok   bool
	}{
		{"missing_required", map[string]any{}, false},
		{"wrong_type", map[string]any{"message": 7}, false},
		{"integer_as_float", map[string]any{"message": "m", "quantity": 2.0}, true},
		{"fractional_integer", map[string]any{"message": "m", "quantity": 2.5}, false},
		{"below_minimum", map[string]any{"message": "m", "quantity": 0.0}, false},
		{"bad_object", map[string]any{"message": "m", "details": "oops"}, false},
		{"number_ok", map[string]any{"message": "m", "amount": 12.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := reg.Call(context.Background(), "echo", tt.args)
			assert.Equal(t, tt.ok, result["success"] == true)
			if !tt.ok {
				assert.NotEmpty(t, result["error"])
			}
		})
	}
}

func TestRegistryHandlerError(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Tool{
		Name:        "broken",
		InputSchema: Schema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, errors.New("payment pay_12345678 not found")
		},
	})

	result := reg.Call(context.Background(), "broken", nil)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "payment pay_12345678 not found", result["error"])
}

func TestRegistryKeepsHandlerSuccessFlag(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Tool{
		Name:        "declining",
		InputSchema: Schema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			// A business outcome, not an error: the flag must survive.
			return map[string]any{"success": false, "status": "failed"}, nil
		},
	})

	result := reg.Call(context.Background(), "declining", nil)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "failed", result["status"])
}

func TestRegistryHandlerPanicContained(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Tool{
		Name:        "panicky",
		InputSchema: Schema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			panic("boom")
		},
	})

	result := reg.Call(context.Background(), "panicky", nil)
	assert.Equal(t, false, result["success"])
	assert.NotEmpty(t, result["error"])
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Tool{Name: "b_tool", InputSchema: Schema{Type: "object"}})
	reg.Register(Tool{Name: "a_tool", InputSchema: Schema{Type: "object"}})

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a_tool", defs[0].Name)
	assert.Equal(t, "b_tool", defs[1].Name)
}

func TestDecimalArg(t *testing.T) {
	d, err := DecimalArg(map[string]any{"amount": 1299.99}, "amount")
	require.NoError(t, err)
	assert.Equal(t, "1299.99", d.String())

	_, err = DecimalArg(map[string]any{"amount": "abc"}, "amount")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, present, err := OptionalDecimalArg(map[string]any{}, "amount")
	require.NoError(t, err)
	assert.False(t, present)
}
