package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
)

// HTTPSender posts notifications to the order service callback endpoint.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSender(orderServiceURL string) *HTTPSender {
	return &HTTPSender{
		baseURL: orderServiceURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSender) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/update_payment_status", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting payment status: %w: %w", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("order service rejected payment status: %w: http %d", apperr.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}
