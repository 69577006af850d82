package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when the account number is already taken
	ErrAccountExists = errors.New("account number already exists")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when a mutation amount is not positive
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
)
