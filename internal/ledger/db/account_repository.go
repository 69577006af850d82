package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/daksh204singh/distributed-banking-ops/internal/ledger/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, account_number, balance::text, created_at, updated_at`

// Create inserts a new account with a zero balance. The accounts table has
// a unique constraint on account_number; a violation surfaces as
// domain.ErrAccountExists regardless of any pre-check the caller ran.
func (r *AccountRepository) Create(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (account_number, balance)
		VALUES ($1, 0.00)
		RETURNING ` + accountColumns

	account, err := r.scanAccount(r.queryRow(ctx, query, accountNumber))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by its identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := r.scanAccount(r.queryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	account, err := r.scanAccount(r.queryRow(ctx, query, accountNumber))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}
	return account, nil
}

// Lock acquires a pessimistic row lock on the account for the duration of
// the surrounding transaction. Concurrent mutations on the same account
// serialize here. Must be called within a transaction context.
func (r *AccountRepository) Lock(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := r.scanAccount(r.queryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// UpdateBalance persists a new balance and returns the updated row.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := r.scanAccount(r.queryRow(ctx, query, id, balance.StringFixed(2)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return account, nil
}

// queryRow routes through the context transaction when one is active.
func (r *AccountRepository) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if tx := getTx(ctx); tx != nil {
		return tx.QueryRow(ctx, query, args...)
	}
	return r.pool.QueryRow(ctx, query, args...)
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var balance string

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	return &account, nil
}

// isUniqueViolation checks for PostgreSQL error code 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
