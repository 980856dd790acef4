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

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. Amounts follow the same NUMERIC-as-string convention as
// AccountRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool: pool,
	}
}

func (r *TransactionRepository) q(ctx context.Context) querier {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const transactionColumns = `id, account_id, account_number, date, reference, amount::text, type, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var amount, txType string
	err := row.Scan(
		&transaction.ID,
		&transaction.AccountID,
		&transaction.AccountNumber,
		&transaction.Date,
		&transaction.Reference,
		&amount,
		&txType,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	transaction.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	transaction.Type = domain.TransactionType(txType)
	return &transaction, nil
}

// Create persists a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, account_number, date, reference, amount, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		transaction.ID,
		transaction.AccountID,
		transaction.AccountNumber,
		transaction.Date,
		transaction.Reference,
		transaction.Amount.String(),
		string(transaction.Type),
		transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its unique identifier.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	transaction, err := scanTransaction(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

// LockByID retrieves a transaction and locks its row for the duration
// of the surrounding transaction. Uses SELECT ... FOR UPDATE so that
// concurrent editors of the same transaction serialize and reverse the
// committed row value, never a stale pre-image. Must be called within a
// transaction context.
func (r *TransactionRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	transaction, err := scanTransaction(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return transaction, nil
}

// Update persists changes to an existing transaction.
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = $2,
		    account_number = $3,
		    date = $4,
		    reference = $5,
		    amount = $6::numeric,
		    type = $7
		WHERE id = $1
	`

	result, err := r.q(ctx).Exec(ctx, query,
		transaction.ID,
		transaction.AccountID,
		transaction.AccountNumber,
		transaction.Date,
		transaction.Reference,
		transaction.Amount.String(),
		string(transaction.Type),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction record.
func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM transactions WHERE id = $1`

	result, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

var transactionSortColumns = map[domain.TransactionSortField]string{
	domain.TransactionSortDate:   "date",
	domain.TransactionSortAmount: "amount",
	domain.TransactionSortType:   "type",
}

// List returns transactions matching the query in the query's order.
// Ties on the sort column break on created_at then id so pagination
// stays stable.
func (r *TransactionRepository) List(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error) {
	sort := query.Sort
	column, ok := transactionSortColumns[sort.Field]
	if !ok {
		sort = domain.DefaultTransactionSort()
		column = transactionSortColumns[sort.Field]
	}
	direction := "ASC"
	if sort.Order == domain.SortDesc {
		direction = "DESC"
	}

	sql := `SELECT ` + transactionColumns + ` FROM transactions`
	var conditions []string
	var args []any
	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(reference ILIKE $%d OR account_number ILIKE $%d)", len(args), len(args)))
	}
	if query.AccountID != nil {
		args = append(args, *query.AccountID)
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", len(args)))
	}
	for i, condition := range conditions {
		if i == 0 {
			sql += " WHERE " + condition
		} else {
			sql += " AND " + condition
		}
	}
	sql += fmt.Sprintf(` ORDER BY %s %s, created_at %s, id`, column, direction, direction)

	rows, err := r.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// ListByAccount returns every transaction of one account in posting
// order, used for reconciliation.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := r.q(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// SumsByType returns the account's total debit and credit amounts,
// computed in the database from the transaction log.
func (r *TransactionRepository) SumsByType(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'D'), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE type = 'C'), 0)::text
		FROM transactions
		WHERE account_id = $1
	`

	var debitsRaw, creditsRaw string
	if err := r.q(ctx).QueryRow(ctx, query, accountID).Scan(&debitsRaw, &creditsRaw); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	debits, err := decimal.NewFromString(debitsRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse debit sum: %w", err)
	}
	credits, err := decimal.NewFromString(creditsRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse credit sum: %w", err)
	}
	return debits, credits, nil
}
