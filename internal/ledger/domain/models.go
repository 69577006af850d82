package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the authoritative balance record for one account.
type Account struct {
	ID            int64           // Store-assigned identifier
	AccountNumber string          // Client-supplied, globally unique
	Balance       decimal.Decimal // Never negative after a committed mutation
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
