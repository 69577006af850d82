// Package events defines the balance-change event shared between the
// ledger service (producer) and the audit service (consumer).
package events

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QueueTransactionCreated is the default queue the ledger publishes to
// and the audit service consumes from.
const QueueTransactionCreated = "transaction.created"

// TransactionType identifies the direction of a balance change.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

// Valid reports whether the type is one of the known values.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

// TransactionEvent is the wire payload describing one committed balance
// change. It carries no identity of its own; redelivery produces duplicate
// events with identical content. The correlation id travels in the AMQP
// message properties, not in the body.
type TransactionEvent struct {
	AccountID       int64           `json:"account_id"`
	AccountNumber   string          `json:"account_number"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate checks the event against the producer contract. A failing event
// parsed fine but cannot be processed; consumers treat this as a recoverable
// processing error, not a poison message.
func (e *TransactionEvent) Validate() error {
	if e.AccountID <= 0 {
		return fmt.Errorf("account_id must be positive, got %d", e.AccountID)
	}
	if e.AccountNumber == "" {
		return fmt.Errorf("account_number is required")
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", e.Amount)
	}
	if !e.TransactionType.Valid() {
		return fmt.Errorf("unknown transaction_type: %q", e.TransactionType)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}
