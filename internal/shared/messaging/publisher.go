package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type PaymentEventType string

const (
	PaymentCompletedEvent PaymentEventType = "payment.completed"
	PaymentFailedEvent    PaymentEventType = "payment.failed"
	PaymentRefundedEvent  PaymentEventType = "payment.refunded"
	PaymentVoidedEvent    PaymentEventType = "payment.voided"
)

// PaymentEvent mirrors a payment ledger state change onto the broker for
// downstream consumers (reporting, reconciliation).
type PaymentEvent struct {
	ID        uuid.UUID        `json:"id"`
	EventType PaymentEventType `json:"event_type"`
	Service   string           `json:"service"`
	PaymentID string           `json:"payment_id"`
	OrderID   string           `json:"order_id"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   map[string]any   `json:"payload,omitempty"`
}

type Publisher struct {
	client *RabbitMQClient
}

func NewPublisher(client *RabbitMQClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishPaymentEvent(event PaymentEvent) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %w", err)
	}

	routingKey := fmt.Sprintf("%s.%s", event.Service, string(event.EventType))

	channel := p.client.Channel()
	err = channel.Publish(
		p.client.config.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"payment_id": event.PaymentID,
				"order_id":   event.OrderID,
				"service":    event.Service,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}
	return nil
}
