package tools

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
)

// Argument extraction helpers for tool handlers. JSON-decoded argument bags
// carry numbers as float64; these normalise them into domain types.

func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q: %w", key, apperr.ErrInvalidInput)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string: %w", key, apperr.ErrInvalidInput)
	}
	return s, nil
}

func OptionalStringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func IntArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q: %w", key, apperr.ErrInvalidInput)
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("argument %q must be an integer: %w", key, apperr.ErrInvalidInput)
	}
	return int(f), nil
}

func DecimalArg(args map[string]any, key string) (decimal.Decimal, error) {
	v, ok := args[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing argument %q: %w", key, apperr.ErrInvalidInput)
	}
	return toDecimal(key, v)
}

// OptionalDecimalArg returns (zero, false, nil) when the key is absent.
func OptionalDecimalArg(args map[string]any, key string) (decimal.Decimal, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return decimal.Zero, false, nil
	}
	d, err := toDecimal(key, v)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

func ObjectArg(args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing argument %q: %w", key, apperr.ErrInvalidInput)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object: %w", key, apperr.ErrInvalidInput)
	}
	return m, nil
}

func ArrayArg(args map[string]any, key string) ([]any, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing argument %q: %w", key, apperr.ErrInvalidInput)
	}
	a, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array: %w", key, apperr.ErrInvalidInput)
	}
	return a, nil
}

// StringMapArg coerces a JSON object into map[string]string, stringifying
// scalar values. Used for address bags.
func StringMapArg(args map[string]any, key string) (map[string]string, error) {
	obj, err := ObjectArg(args, key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out, nil
}

func toDecimal(key string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, fmt.Errorf("argument %q is not a valid amount: %w", key, apperr.ErrInvalidInput)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("argument %q must be a number: %w", key, apperr.ErrInvalidInput)
}
