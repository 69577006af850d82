package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// Transaction is one audit record for an effectively processed
// balance-change event. Rows are never mutated or deleted after insert.
type Transaction struct {
	ID              int64 // Store-assigned, monotonically increasing
	AccountID       int64
	AccountNumber   string
	Amount          decimal.Decimal
	TransactionType events.TransactionType
	ProcessedAt     time.Time // Server-assigned
	FraudDetected   bool
	Notes           string // Empty when no note was attached
}

// ListFilter narrows and pages a transaction query. Results are totally
// ordered by (processed_at desc, id desc); the id tie-break keeps
// pagination deterministic for equal timestamps.
type ListFilter struct {
	AccountID *int64 // Optional account filter
	Skip      int
	Limit     int
}
