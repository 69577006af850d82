// Package messaging consumes balance-change events from RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditdomain "github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// TransactionProcessor is the audit surface the consumer drives.
type TransactionProcessor interface {
	Process(
		ctx context.Context,
		accountID int64,
		accountNumber string,
		amount decimal.Decimal,
		txType events.TransactionType,
	) (*auditdomain.Transaction, error)
}

// Consumer pulls events one at a time (prefetch 1, manual acknowledgment)
// and drives the transaction processor. Per-message outcomes:
//
//	parse failure            -> Nack(requeue=false)  poison message dropped
//	validation/process error -> Nack(requeue=true)   redelivered later
//	processing deadline hit  -> Nack(requeue=true)
//	success                  -> Ack
type Consumer struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	queue          string
	processor      TransactionProcessor
	processTimeout time.Duration
	log            *zap.Logger
}

// NewConsumer connects to the broker, declares the durable queue and sets
// prefetch to one. Missing broker configuration fails here, at startup.
func NewConsumer(
	cfg config.BrokerConfig,
	processTimeout time.Duration,
	processor TransactionProcessor,
	log *zap.Logger,
) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Process one message fully before accepting the next.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	return &Consumer{
		conn:           conn,
		channel:        channel,
		queue:          cfg.Queue,
		processor:      processor,
		processTimeout: processTimeout,
		log:            log,
	}, nil
}

// Start consumes until the context is cancelled. The in-flight message is
// always finished before returning; unacknowledged messages left behind by
// a crash are redelivered to the next consumer instance.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag, auto-generated
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("consumer_started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer_stopping", zap.String("queue", c.queue))
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery runs one message through the state machine and settles it.
func (c *Consumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var event events.TransactionEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Error("event_parse_failed",
			zap.String("correlation_id", msg.CorrelationId),
			zap.Error(err),
		)
		// Poison message: permanently dropped, never redelivered.
		if err := msg.Nack(false, false); err != nil {
			c.log.Error("nack_failed", zap.Error(err))
		}
		return
	}

	if err := c.process(ctx, &event); err != nil {
		c.log.Error("event_processing_failed",
			zap.Int64("account_id", event.AccountID),
			zap.String("transaction_type", string(event.TransactionType)),
			zap.String("correlation_id", msg.CorrelationId),
			zap.Error(err),
		)
		// Recoverable: requeue for a later redelivery.
		if err := msg.Nack(false, true); err != nil {
			c.log.Error("nack_failed", zap.Error(err))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		c.log.Error("ack_failed", zap.Error(err))
	}
}

// process validates and records one event under a bounded deadline. The
// deadline is detached from the consumer's shutdown context so an
// interrupt never abandons a half-processed message.
func (c *Consumer) process(ctx context.Context, event *events.TransactionEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	procCtx := context.WithoutCancel(ctx)
	if c.processTimeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(procCtx, c.processTimeout)
		defer cancel()
	}

	tx, err := c.processor.Process(procCtx, event.AccountID, event.AccountNumber, event.Amount, event.TransactionType)
	if err != nil {
		return err
	}

	c.log.Info("event_processed",
		zap.Int64("transaction_id", tx.ID),
		zap.Int64("account_id", event.AccountID),
	)
	return nil
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.log.Warn("channel_close_failed", zap.Error(err))
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
