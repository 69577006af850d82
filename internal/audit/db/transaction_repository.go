// Package db implements the audit service's PostgreSQL persistence layer.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. The transactions table is append-only: id is a bigserial,
// processed_at defaults to now().
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Insert persists one audit record and returns it with the store-assigned
// id and processed_at.
func (r *TransactionRepository) Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (
			account_id, account_number, amount,
			transaction_type, fraud_detected, notes
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, processed_at
	`

	inserted := *tx
	err := r.pool.QueryRow(ctx, query,
		tx.AccountID,
		tx.AccountNumber,
		tx.Amount.StringFixed(2),
		string(tx.TransactionType),
		tx.FraudDetected,
		tx.Notes,
	).Scan(&inserted.ID, &inserted.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return &inserted, nil
}

// List returns transactions matching the filter, most recent first. The id
// tie-break keeps pagination stable when timestamps collide.
func (r *TransactionRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, account_number, amount::text,
		       transaction_type, processed_at, fraud_detected,
		       COALESCE(notes, '')
		FROM transactions
	`

	var args []any
	if filter.AccountID != nil {
		query += ` WHERE account_id = $1`
		args = append(args, *filter.AccountID)
	}

	query += fmt.Sprintf(` ORDER BY processed_at DESC, id DESC OFFSET $%d LIMIT $%d`,
		len(args)+1, len(args)+2)
	args = append(args, filter.Skip, filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amount, txType string

		err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.AccountNumber,
			&amount,
			&txType,
			&tx.ProcessedAt,
			&tx.FraudDetected,
			&tx.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		tx.TransactionType = events.TransactionType(txType)

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
