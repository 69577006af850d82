// Package domain implements transaction processing and querying for the
// audit service.
package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/events"
	"github.com/daksh204singh/distributed-banking-ops/internal/logging"
)

// FraudThreshold is the amount above which a transaction is flagged for
// review. The boundary is strict: an amount equal to the threshold is not
// flagged. Flagged transactions are recorded, not blocked.
var FraudThreshold = decimal.RequireFromString("10000.00")

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// TransactionRepository defines data access for audit records.
type TransactionRepository interface {
	// Insert persists a new transaction, returning it with the
	// store-assigned id and processed_at.
	Insert(ctx context.Context, tx *Transaction) (*Transaction, error)

	// List returns transactions matching the filter, ordered by
	// (processed_at desc, id desc).
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

// Processor validates, flags and records received balance-change events.
// It never touches the ledger store: the ledger committed the mutation
// before publishing, so the event is trusted as a statement of fact.
//
// Processing is not idempotent: a redelivered event inserts a second row.
// Closing that gap needs a deduplication key on the event, which the
// producer does not assign today.
type Processor struct {
	repo TransactionRepository
	log  *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(repo TransactionRepository, log *zap.Logger) *Processor {
	return &Processor{repo: repo, log: log}
}

// Process records one balance-change event as a transaction row, applying
// the fraud-threshold rule. Exactly one row is inserted per call; a store
// failure propagates to the caller without a partial record.
func (p *Processor) Process(
	ctx context.Context,
	accountID int64,
	accountNumber string,
	amount decimal.Decimal,
	txType events.TransactionType,
) (*Transaction, error) {
	fraudDetected := amount.GreaterThan(FraudThreshold)

	var notes string
	if fraudDetected {
		notes = fmt.Sprintf("Large transaction detected: %s %s", amount.StringFixed(2), txType)
		p.log.Warn("fraud_alert",
			zap.String("reason", "large_transaction_detected"),
			zap.Int64("account_id", accountID),
			zap.String("account_number", logging.MaskAccountNumber(accountNumber)),
			zap.String("amount", logging.MaskAmount(amount.StringFixed(2))),
			zap.String("transaction_type", string(txType)),
		)
	}

	tx, err := p.repo.Insert(ctx, &Transaction{
		AccountID:       accountID,
		AccountNumber:   accountNumber,
		Amount:          amount,
		TransactionType: txType,
		FraudDetected:   fraudDetected,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	p.log.Info("transaction_processed",
		zap.Int64("transaction_id", tx.ID),
		zap.Int64("account_id", accountID),
		zap.String("account_number", logging.MaskAccountNumber(accountNumber)),
		zap.String("transaction_type", string(txType)),
		zap.Bool("fraud_detected", fraudDetected),
	)
	return tx, nil
}

// List returns the transaction history, most recent first. Skip is clamped
// to zero and limit to [1, 1000] with a default of 100.
func (p *Processor) List(ctx context.Context, accountID *int64, skip, limit int) ([]*Transaction, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	return p.repo.List(ctx, ListFilter{
		AccountID: accountID,
		Skip:      skip,
		Limit:     limit,
	})
}
