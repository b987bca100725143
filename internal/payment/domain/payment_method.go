package domain

import (
	"fmt"
	"time"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// NewPaymentMethod validates the stored card details and assigns a fresh id.
func NewPaymentMethod(methodType, lastFour, cardType string, expiryMonth, expiryYear int, isDefault bool) (types.PaymentMethod, error) {
	if methodType == "" {
		return types.PaymentMethod{}, fmt.Errorf("payment method type is required: %w", apperr.ErrInvalidInput)
	}
	if len(lastFour) != 4 {
		return types.PaymentMethod{}, fmt.Errorf("last_four must be exactly 4 digits: %w", apperr.ErrInvalidInput)
	}
	if expiryMonth < 1 || expiryMonth > 12 {
		return types.PaymentMethod{}, fmt.Errorf("expiry_month %d is out of range: %w", expiryMonth, apperr.ErrInvalidInput)
	}
	if expiryYear < 2000 {
		return types.PaymentMethod{}, fmt.Errorf("expiry_year %d is out of range: %w", expiryYear, apperr.ErrInvalidInput)
	}
	return types.PaymentMethod{
		ID:          NewMethodID(),
		Type:        methodType,
		LastFour:    lastFour,
		ExpiryMonth: expiryMonth,
		ExpiryYear:  expiryYear,
		CardType:    cardType,
		IsDefault:   isDefault,
	}, nil
}

// ExpiryValid reports whether a card expiring at the end of the given
// month is still usable at the reference time.
func ExpiryValid(expiryMonth, expiryYear int, now time.Time) bool {
	if expiryMonth < 1 || expiryMonth > 12 {
		return false
	}
	// Cards stay valid through the last day of their expiry month.
	endOfMonth := time.Date(expiryYear, time.Month(expiryMonth), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
	return now.Before(endOfMonth)
}
