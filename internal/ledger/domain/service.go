package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// Create inserts a new account with a zero balance. Returns
	// ErrAccountExists when the account number is already taken; the store's
	// uniqueness constraint is the ultimate authority, so a race between
	// the caller's existence check and this insert still surfaces as
	// ErrAccountExists.
	Create(ctx context.Context, accountNumber string) (*Account, error)

	// GetByID retrieves an account by id. Returns ErrAccountNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// GetByNumber retrieves an account by its account number.
	// Returns ErrAccountNotFound if absent.
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)

	// Lock acquires a row lock on the account for the duration of the
	// surrounding transaction. Must be called within a transaction context.
	Lock(ctx context.Context, id int64) (*Account, error)

	// UpdateBalance persists a new balance and returns the updated account.
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (*Account, error)
}

// TransactionManager runs a function inside a database transaction,
// rolling back when the function errors.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher hands a balance-change event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event events.TransactionEvent) error
}

// AccountService owns account creation and balance mutation. Mutations
// commit to the ledger store first; the audit event that follows is
// best-effort and a publish failure never rolls back the mutation.
type AccountService struct {
	accounts  AccountRepository
	txManager TransactionManager
	publisher EventPublisher
	log       *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(
	accounts AccountRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		txManager: txManager,
		publisher: publisher,
		log:       log,
	}
}

// Create opens a new account with a zero balance. The existence pre-check
// gives a friendly error on the common path; the store's uniqueness
// constraint catches the check-then-insert race.
func (s *AccountService) Create(ctx context.Context, accountNumber string) (*Account, error) {
	if accountNumber == "" {
		return nil, fmt.Errorf("account number is required")
	}

	_, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check account number: %w", err)
	}

	account, err := s.accounts.Create(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	s.log.Info("account_created",
		zap.Int64("account_id", account.ID),
		zap.String("account_number", accountNumber),
		zap.String("initial_balance", account.Balance.StringFixed(2)),
	)
	return account, nil
}

// Get retrieves an account by id.
func (s *AccountService) Get(ctx context.Context, id int64) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// Deposit adds amount to the account balance.
func (s *AccountService) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*Account, error) {
	return s.mutate(ctx, id, amount, events.TransactionTypeDeposit)
}

// Withdraw subtracts amount from the account balance. Fails with
// ErrInsufficientFunds when amount exceeds the balance; the balance is
// left untouched and no event is emitted on that path.
func (s *AccountService) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*Account, error) {
	return s.mutate(ctx, id, amount, events.TransactionTypeWithdraw)
}

// mutate applies one balance change as a single durable transaction:
// lock the row, compute the new balance, commit. The event publish happens
// after commit so the ledger store is always the source of truth.
func (s *AccountService) mutate(
	ctx context.Context,
	id int64,
	amount decimal.Decimal,
	txType events.TransactionType,
) (*Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated *Account
	var oldBalance decimal.Decimal

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.Lock(txCtx, id)
		if err != nil {
			return err
		}

		oldBalance = account.Balance

		var newBalance decimal.Decimal
		switch txType {
		case events.TransactionTypeDeposit:
			newBalance = account.Balance.Add(amount)
		case events.TransactionTypeWithdraw:
			if account.Balance.LessThan(amount) {
				return ErrInsufficientFunds
			}
			newBalance = account.Balance.Sub(amount)
		default:
			return fmt.Errorf("unknown transaction type: %q", txType)
		}

		updated, err = s.accounts.UpdateBalance(txCtx, id, newBalance)
		return err
	})

	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			s.log.Warn("withdraw_failed",
				zap.String("reason", "insufficient_funds"),
				zap.Int64("account_id", id),
				zap.String("requested_amount", amount.StringFixed(2)),
				zap.String("current_balance", oldBalance.StringFixed(2)),
			)
		}
		return nil, err
	}

	s.publishEvent(ctx, updated, amount, txType, oldBalance)
	return updated, nil
}

// publishEvent emits the balance-change event. Failure is logged and
// swallowed: the committed mutation is allowed to diverge from the audit
// trail in this failure mode.
func (s *AccountService) publishEvent(
	ctx context.Context,
	account *Account,
	amount decimal.Decimal,
	txType events.TransactionType,
	oldBalance decimal.Decimal,
) {
	event := events.TransactionEvent{
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Amount:          amount,
		TransactionType: txType,
		Timestamp:       time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("event_publish_failed",
			zap.Int64("account_id", account.ID),
			zap.String("account_number", account.AccountNumber),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("transaction_type", string(txType)),
			zap.String("old_balance", oldBalance.StringFixed(2)),
			zap.String("new_balance", account.Balance.StringFixed(2)),
			zap.Error(err),
		)
		return
	}

	s.log.Info(string(txType)+"_successful",
		zap.Int64("account_id", account.ID),
		zap.String("account_number", account.AccountNumber),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("old_balance", oldBalance.StringFixed(2)),
		zap.String("new_balance", account.Balance.StringFixed(2)),
	)
}
