// Package messaging publishes balance-change events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// PublishError wraps any failure on the publish path. Callers treat it as
// non-fatal: the ledger mutation that triggered the publish has already
// committed.
type PublishError struct {
	Queue string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish to queue %q: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher hands balance-change events to the broker. Each publish opens
// its own connection, declares the durable queue, publishes with persistent
// delivery and closes the connection; no pooling is assumed.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// NewPublisher validates the broker configuration and returns a Publisher.
// Missing configuration is a startup failure, not a per-call one.
func NewPublisher(cfg config.BrokerConfig, log *zap.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Publisher{
		url:   cfg.URL(),
		queue: cfg.Queue,
		log:   log,
	}, nil
}

// Publish sends one event with a fresh correlation id in the message
// properties. All failures come back as *PublishError.
func (p *Publisher) Publish(ctx context.Context, event events.TransactionEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return &PublishError{Queue: p.queue, Err: fmt.Errorf("failed to connect to broker: %w", err)}
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return &PublishError{Queue: p.queue, Err: fmt.Errorf("failed to open channel: %w", err)}
	}
	defer channel.Close()

	// Idempotent declare; matches the consumer's declaration.
	if _, err := channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return &PublishError{Queue: p.queue, Err: fmt.Errorf("failed to declare queue: %w", err)}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return &PublishError{Queue: p.queue, Err: fmt.Errorf("failed to encode event: %w", err)}
	}

	correlationID := uuid.New().String()
	err = channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlationID,
			Body:          body,
		},
	)
	if err != nil {
		return &PublishError{Queue: p.queue, Err: fmt.Errorf("failed to publish message: %w", err)}
	}

	p.log.Info("transaction_event_published",
		zap.String("transaction_type", string(event.TransactionType)),
		zap.Int64("account_id", event.AccountID),
		zap.String("correlation_id", correlationID),
	)
	return nil
}
