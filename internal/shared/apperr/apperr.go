package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidState        = errors.New("invalid state")
	ErrExceedsAvailable    = errors.New("exceeds available amount")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"

	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"

	case errors.Is(err, ErrInvalidState):
		return "invalid_state"

	case errors.Is(err, ErrExceedsAvailable):
		return "exceeds_available"

	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrExceedsAvailable):
		return http.StatusBadRequest

	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict

	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
