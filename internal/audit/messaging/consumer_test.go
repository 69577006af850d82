package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditdomain "github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

// mockProcessor is a func-field mock of the audit processor.
type mockProcessor struct {
	processFunc func(ctx context.Context, accountID int64, accountNumber string, amount decimal.Decimal, txType events.TransactionType) (*auditdomain.Transaction, error)
	calls       int
}

func (m *mockProcessor) Process(ctx context.Context, accountID int64, accountNumber string, amount decimal.Decimal, txType events.TransactionType) (*auditdomain.Transaction, error) {
	m.calls++
	if m.processFunc != nil {
		return m.processFunc(ctx, accountID, accountNumber, amount, txType)
	}
	return &auditdomain.Transaction{ID: 1, AccountID: accountID}, nil
}

func newTestConsumer(processor TransactionProcessor, timeout time.Duration) *Consumer {
	return &Consumer{
		queue:          "transaction.created",
		processor:      processor,
		processTimeout: timeout,
		log:            zap.NewNop(),
	}
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(events.TransactionEvent{
		AccountID:       1,
		AccountNumber:   "ACC001",
		Amount:          decimal.RequireFromString("150.75"),
		TransactionType: events.TransactionTypeDeposit,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return body
}

func TestHandleDelivery_SuccessAcks(t *testing.T) {
	processor := &mockProcessor{}
	consumer := newTestConsumer(processor, time.Second)
	acker := &fakeAcknowledger{}

	consumer.handleDelivery(context.Background(), amqp.Delivery{
		Acknowledger: acker,
		Body:         eventBody(t),
	})

	if !acker.acked {
		t.Error("expected message to be acked")
	}
	if acker.nacked {
		t.Error("did not expect a nack")
	}
	if processor.calls != 1 {
		t.Errorf("expected 1 processor call, got %d", processor.calls)
	}
}

func TestHandleDelivery_MalformedPayloadDropped(t *testing.T) {
	processor := &mockProcessor{}
	consumer := newTestConsumer(processor, time.Second)
	acker := &fakeAcknowledger{}

	consumer.handleDelivery(context.Background(), amqp.Delivery{
		Acknowledger: acker,
		Body:         []byte("not json at all"),
	})

	if !acker.nacked {
		t.Fatal("expected a nack for malformed payload")
	}
	if acker.requeue {
		t.Error("poison message must not be requeued")
	}
	if processor.calls != 0 {
		t.Errorf("processor must not run on malformed payload, got %d calls", processor.calls)
	}
}

func TestHandleDelivery_ValidationErrorRequeued(t *testing.T) {
	processor := &mockProcessor{}
	consumer := newTestConsumer(processor, time.Second)
	acker := &fakeAcknowledger{}

	// Parses fine, fails validation (unknown type).
	body, _ := json.Marshal(map[string]any{
		"account_id":       1,
		"account_number":   "ACC001",
		"amount":           "10.00",
		"transaction_type": "transfer",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})

	consumer.handleDelivery(context.Background(), amqp.Delivery{
		Acknowledger: acker,
		Body:         body,
	})

	if !acker.nacked || !acker.requeue {
		t.Error("expected nack with requeue for validation failure")
	}
	if processor.calls != 0 {
		t.Errorf("processor must not run on invalid event, got %d calls", processor.calls)
	}
}

func TestHandleDelivery_ProcessingErrorRequeued(t *testing.T) {
	processor := &mockProcessor{
		processFunc: func(ctx context.Context, accountID int64, accountNumber string, amount decimal.Decimal, txType events.TransactionType) (*auditdomain.Transaction, error) {
			return nil, errors.New("store unavailable")
		},
	}
	consumer := newTestConsumer(processor, time.Second)
	acker := &fakeAcknowledger{}

	consumer.handleDelivery(context.Background(), amqp.Delivery{
		Acknowledger: acker,
		Body:         eventBody(t),
	})

	if !acker.nacked || !acker.requeue {
		t.Error("expected nack with requeue for processing failure")
	}
	if acker.acked {
		t.Error("did not expect an ack")
	}
}

func TestHandleDelivery_TimeoutRequeued(t *testing.T) {
	processor := &mockProcessor{
		processFunc: func(ctx context.Context, accountID int64, accountNumber string, amount decimal.Decimal, txType events.TransactionType) (*auditdomain.Transaction, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	consumer := newTestConsumer(processor, 10*time.Millisecond)
	acker := &fakeAcknowledger{}

	consumer.handleDelivery(context.Background(), amqp.Delivery{
		Acknowledger: acker,
		Body:         eventBody(t),
	})

	if !acker.nacked || !acker.requeue {
		t.Error("expected nack with requeue when processing deadline expires")
	}
}

func TestHandleDelivery_ShutdownDoesNotAbortInFlight(t *testing.T) {
	processor := &mockProcessor{
		processFunc: func(ctx context.Context, accountID int64, accountNumber string, amount decimal.Decimal, txType events.TransactionType) (*auditdomain.Transaction, error) {
			// The processing context must survive cancellation of the
			// consumer's shutdown context.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(20 * time.Millisecond):
				return &auditdomain.Transaction{ID: 1}, nil
			}
		},
	}
	consumer := newTestConsumer(processor, time.Second)
	acker := &fakeAcknowledger{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // shutdown already requested

	consumer.handleDelivery(ctx, amqp.Delivery{
		Acknowledger: acker,
		Body:         eventBody(t),
	})

	if !acker.acked {
		t.Error("expected in-flight message to finish and be acked despite shutdown")
	}
}
