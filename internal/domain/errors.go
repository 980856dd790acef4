package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when an account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccountNumber is returned when creating an account with a number already in use
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrAccountHasTransactions is returned when deleting an account that transactions still reference
	ErrAccountHasTransactions = errors.New("account has transactions")

	// ErrTransactionNotFound is returned when a transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrConcurrencyConflict is returned when a concurrent writer invalidated the operation; retryable
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")
)

// ValidationError is a field-scoped input error, returned to the caller
// for correction and never partially applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RowError is a ValidationError scoped to one row of a posting batch.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BatchError aggregates every row error of a rejected batch so the
// caller can correct all rows in a single round trip. A batch that
// produces a BatchError commits nothing.
type BatchError struct {
	Errors []RowError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch rejected: %d invalid row(s)", len(e.Errors))
}
