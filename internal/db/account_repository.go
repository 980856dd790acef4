package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fintrack/ledger-service/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
//
// Monetary values are NUMERIC(18,2) in the database and cross the driver
// boundary as strings: balances are selected with a ::text cast and bound
// as their decimal string form, so no float conversion ever happens.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool: pool,
	}
}

// q returns the active transaction from ctx, or the pool when the call
// is not running inside one.
func (r *AccountRepository) q(ctx context.Context) querier {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const accountColumns = `id, name, account_number, balance::text, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var balance string
	err := row.Scan(
		&account.ID,
		&account.Name,
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
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	return &account, nil
}

// Create persists a new account. The unique index on account_number makes
// the duplicate check atomic with the insert.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, account_number, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		account.ID,
		account.Name,
		account.AccountNumber,
		account.Balance.String(),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its unique identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByAccountNumber retrieves an account by its account number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	account, err := scanAccount(r.q(ctx).QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// LockByID acquires a pessimistic lock on the account for the duration
// of the transaction. This method MUST be called within a transaction
// context. Uses SELECT ... FOR UPDATE to lock the row.
func (r *AccountRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// LockByAccountNumber is LockByID keyed by account number. Callers lock
// multiple accounts in ascending account-number order to avoid deadlocks.
func (r *AccountRepository) LockByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`

	account, err := scanAccount(r.q(ctx).QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// Update persists changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2,
		    balance = $3::numeric,
		    updated_at = $4
		WHERE id = $1
	`

	result, err := r.q(ctx).Exec(ctx, query,
		account.ID,
		account.Name,
		account.Balance.String(),
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account. The RESTRICT foreign key on transactions
// turns an attempt to delete a posted-to account into
// ErrAccountHasTransactions; history is never cascaded away.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrAccountHasTransactions
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// accountSortColumns maps the validated sort whitelist onto real columns.
// Sort input never reaches SQL unmapped.
var accountSortColumns = map[domain.AccountSortField]string{
	domain.AccountSortName:    "name",
	domain.AccountSortNumber:  "account_number",
	domain.AccountSortBalance: "balance",
}

// List returns accounts matching the query in the query's order.
func (r *AccountRepository) List(ctx context.Context, query domain.AccountQuery) ([]domain.Account, error) {
	sort := query.Sort
	column, ok := accountSortColumns[sort.Field]
	if !ok {
		sort = domain.DefaultAccountSort()
		column = accountSortColumns[sort.Field]
	}
	direction := "ASC"
	if sort.Order == domain.SortDesc {
		direction = "DESC"
	}

	sql := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if query.Search != "" {
		sql += ` WHERE name ILIKE $1 OR account_number ILIKE $1`
		args = append(args, "%"+query.Search+"%")
	}
	sql += fmt.Sprintf(` ORDER BY %s %s, id`, column, direction)

	rows, err := r.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
