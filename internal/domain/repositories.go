package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
// operations. This follows the Repository pattern to abstract data
// persistence logic.
type AccountRepository interface {
	// Create persists a new account. Returns ErrDuplicateAccountNumber
	// if the account number is already in use; the check is atomic with
	// the insert.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByAccountNumber retrieves an account by its account number.
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)

	// LockByID acquires a row lock on the account for the duration of
	// the surrounding transaction. Must be called within a transaction
	// context.
	LockByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// LockByAccountNumber is LockByID keyed by account number, used when
	// resolving posting rows.
	LockByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)

	// Update persists changes to an existing account.
	Update(ctx context.Context, account *Account) error

	// Delete removes an account. Returns ErrAccountHasTransactions when
	// transactions still reference it; cascading is never performed.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns accounts matching the query in the query's order.
	List(ctx context.Context, query AccountQuery) ([]Account, error)
}

// TransactionRepository defines the interface for transaction data
// access operations.
type TransactionRepository interface {
	// Create persists a new transaction record.
	Create(ctx context.Context, transaction *Transaction) error

	// GetByID retrieves a transaction by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// LockByID retrieves a transaction and locks its row for the
	// duration of the surrounding transaction, so concurrent editors of
	// the same transaction serialize and always see the committed row.
	// Must be called within a transaction context.
	LockByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Update persists changes to an existing transaction.
	Update(ctx context.Context, transaction *Transaction) error

	// Delete removes a transaction record.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns transactions matching the query in the query's order.
	List(ctx context.Context, query TransactionQuery) ([]Transaction, error)

	// ListByAccount returns every transaction of one account, used for
	// reconciliation.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Transaction, error)

	// SumsByType returns the account's total debit and credit amounts,
	// computed store-side from the transaction log.
	SumsByType(ctx context.Context, accountID uuid.UUID) (debits, credits decimal.Decimal, err error)
}

// TransactionManager defines the interface for managing database
// transactions. This abstraction allows the service layer to work with
// transactions without being coupled to a specific database
// implementation.
type TransactionManager interface {
	// WithTransaction executes the given function within a database
	// transaction. If the function returns an error, the transaction is
	// rolled back. Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// WithSnapshot executes the given function within a read-only
	// transaction that sees one consistent snapshot of the database, so
	// multi-query reads don't observe each other's torn state.
	WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishBatchPosted(ctx context.Context, event BatchPostedEvent) error
}
