package service

import (
	"time"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/domain"
)

// MethodValidation is the outcome of checking stored card details
// without touching the gateway.
type MethodValidation struct {
	Valid       bool   `json:"valid"`
	CardType    string `json:"card_type"`
	LastFour    string `json:"last_four"`
	ExpiryValid bool   `json:"expiry_valid"`
	CVVValid    bool   `json:"cvv_valid"`
}

// ValidatePaymentMethod performs a local plausibility check of the
// supplied card details. Expiry is the only hard check: a card expired
// before now fails validation outright.
func (s *PaymentService) ValidatePaymentMethod(details map[string]any) MethodValidation {
	result := MethodValidation{
		Valid:       true,
		CardType:    stringOr(details, "card_type", "Unknown"),
		LastFour:    stringOr(details, "last_four", "****"),
		ExpiryValid: true,
		CVVValid:    true,
	}

	month, monthOK := intField(details, "expiry_month")
	year, yearOK := intField(details, "expiry_year")
	if monthOK && yearOK && !domain.ExpiryValid(month, year, time.Now().UTC()) {
		result.ExpiryValid = false
		result.Valid = false
	}
	return result
}

func stringOr(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
