package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService handles the business logic for accounts and transaction
// posting. It coordinates between repositories and ensures that every
// balance mutation happens in lockstep with the transaction log.
type LedgerService struct {
	accounts     AccountRepository
	transactions TransactionRepository
	txManager    TransactionManager
	// Optional event publisher to emit domain events (e.g. batch posted)
	events EventPublisher
	logger *zap.Logger
}

// NewLedgerService creates a new instance of LedgerService.
// Pass nil for events if no events should be emitted.
func NewLedgerService(
	accounts AccountRepository,
	transactions TransactionRepository,
	txManager TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		accounts:     accounts,
		transactions: transactions,
		txManager:    txManager,
		events:       events,
		logger:       logger,
	}
}

// CreateAccount validates and creates a new account. The account number
// must be exactly 15 characters and unique; uniqueness is enforced
// atomically by the store, so concurrent creates with the same number
// leave exactly one winner.
func (s *LedgerService) CreateAccount(ctx context.Context, name, accountNumber, initialBalance string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	balance := decimal.Zero
	if initialBalance != "" {
		var err error
		balance, err = ParseDecimal(initialBalance)
		if err != nil {
			return nil, &ValidationError{Field: "balance", Message: err.Error()}
		}
	}

	account := NewAccount(name, accountNumber, balance)
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount renames an account. Balance and account number are not
// editable here: balance belongs to the posting engine, and the account
// number is the immutable lookup key.
func (s *LedgerService) UpdateAccount(ctx context.Context, id uuid.UUID, name string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var account *Account
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		account.Name = name
		account.UpdatedAt = time.Now().UTC()
		return s.accounts.Update(txCtx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account. Deletion is refused with
// ErrAccountHasTransactions while transactions reference the account.
func (s *LedgerService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.accounts.Delete(ctx, id)
}

// GetAccount retrieves one account by id.
func (s *LedgerService) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListAccounts returns accounts matching the query.
func (s *LedgerService) ListAccounts(ctx context.Context, query AccountQuery) ([]Account, error) {
	return s.accounts.List(ctx, query)
}

// stagedRow pairs a structurally valid batch row with its input position.
type stagedRow struct {
	index  int
	amount decimal.Decimal
	row    BatchRow
}

// PostBatch validates and atomically commits a list of candidate
// transactions.
//
// Processing, in input order:
//  1. Fully empty rows (no account number, no reference, no amount) are
//     skipped silently.
//  2. Each remaining row is validated structurally; every failure is
//     collected as a row-scoped error, and validation continues with the
//     subsequent rows.
//  3. Accounts referenced by valid rows are locked in ascending
//     account-number order (deterministic order prevents deadlocks
//     between concurrent batches); an unresolved number is a row error.
//  4. Valid rows stage a transaction and move the owning account's
//     balance by the row's signed amount.
//
// Commit rule is all-or-nothing: any row error rolls the whole batch
// back and returns a *BatchError enumerating every invalid row; a fully
// valid batch commits every staged transaction and balance update as one
// unit. Partial commit is never observable.
//
// On success the distinct affected account ids are returned in
// first-touched order.
func (s *LedgerService) PostBatch(ctx context.Context, rows []BatchRow) ([]uuid.UUID, error) {
	var (
		affected []uuid.UUID
		count    int
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		affected = nil
		count = 0

		var rowErrs []RowError
		var staged []stagedRow
		numberSet := make(map[string]struct{})

		for i, row := range rows {
			if row.IsEmpty() {
				continue
			}
			amount, rowErr := validateBatchRow(i, row)
			if rowErr != nil {
				rowErrs = append(rowErrs, *rowErr)
				continue
			}
			staged = append(staged, stagedRow{index: i, amount: amount, row: row})
			numberSet[row.AccountNumber] = struct{}{}
		}

		// Lock every referenced account up front, in ascending
		// account-number order.
		numbers := make([]string, 0, len(numberSet))
		for number := range numberSet {
			numbers = append(numbers, number)
		}
		sort.Strings(numbers)

		locked := make(map[string]*Account, len(numbers))
		for _, number := range numbers {
			account, err := s.accounts.LockByAccountNumber(txCtx, number)
			if errors.Is(err, ErrAccountNotFound) {
				continue // reported per row below
			}
			if err != nil {
				return fmt.Errorf("failed to lock account %q: %w", number, err)
			}
			locked[number] = account
		}

		now := time.Now().UTC()
		var touched []*Account
		var pending []*Transaction
		for _, sr := range staged {
			account, ok := locked[sr.row.AccountNumber]
			if !ok {
				rowErrs = append(rowErrs, RowError{
					Row:     sr.index,
					Field:   "accountNumber",
					Message: "account number does not exist",
				})
				continue
			}
			tx := NewTransaction(account, sr.amount, TransactionType(sr.row.Type), sr.row.Reference, sr.row.Date, now)
			if !containsAccount(touched, account) {
				touched = append(touched, account)
			}
			account.Apply(tx)
			pending = append(pending, tx)
		}

		if len(rowErrs) > 0 {
			sort.SliceStable(rowErrs, func(i, j int) bool { return rowErrs[i].Row < rowErrs[j].Row })
			return &BatchError{Errors: rowErrs}
		}

		for _, account := range touched {
			if err := s.accounts.Update(txCtx, account); err != nil {
				return fmt.Errorf("failed to update balance of account %q: %w", account.AccountNumber, err)
			}
		}
		for _, tx := range pending {
			if err := s.transactions.Create(txCtx, tx); err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}
		}

		for _, account := range touched {
			affected = append(affected, account.ID)
		}
		count = len(pending)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishBatchPosted(affected, count)
	return affected, nil
}

// publishBatchPosted emits the batch-posted event best-effort after the
// transaction has committed. Transient broker failures must not make an
// already-committed batch appear to fail, so publishing is asynchronous
// and failures are only logged.
func (s *LedgerService) publishBatchPosted(accountIDs []uuid.UUID, count int) {
	if s.events == nil || count == 0 {
		return
	}
	event := BatchPostedEvent{
		AccountIDs:       accountIDs,
		TransactionCount: count,
		PostedAt:         time.Now().UTC(),
	}
	go func() {
		if err := s.events.PublishBatchPosted(context.Background(), event); err != nil {
			s.logger.Warn("failed to publish batch posted event", zap.Error(err))
		}
	}()
}

// GetTransaction retrieves one transaction by id.
func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

// ListTransactions returns transactions matching the query.
func (s *LedgerService) ListTransactions(ctx context.Context, query TransactionQuery) ([]Transaction, error) {
	return s.transactions.List(ctx, query)
}

// UpdateTransaction edits a transaction and re-derives the affected
// account balances in the same database transaction: the old signed
// amount is reversed on the old account and the new signed amount
// applied to the (possibly different) account resolved from the new
// account number. The balance invariant holds on every exit path.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id uuid.UUID, update TransactionUpdate) (*Transaction, error) {
	if err := ValidateAccountNumber(update.AccountNumber); err != nil {
		return nil, err
	}
	if err := ValidateReference(update.Reference); err != nil {
		return nil, err
	}
	amount, err := ValidateAmount(update.Amount)
	if err != nil {
		return nil, err
	}
	if err := ValidateType(update.Type); err != nil {
		return nil, err
	}

	var updated *Transaction
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Lock the row before touching any balance so a concurrent
		// editor can't leave us reversing a stale pre-image.
		existing, err := s.transactions.LockByID(txCtx, id)
		if err != nil {
			return err
		}

		accounts, err := s.lockAccountPair(txCtx, existing.AccountNumber, update.AccountNumber)
		if err != nil {
			return err
		}
		oldAccount := accounts[existing.AccountNumber]
		newAccount, ok := accounts[update.AccountNumber]
		if !ok {
			return &ValidationError{Field: "accountNumber", Message: "account number does not exist"}
		}

		oldAccount.Reverse(existing)

		existing.AccountID = newAccount.ID
		existing.AccountNumber = newAccount.AccountNumber
		existing.Reference = update.Reference
		existing.Amount = amount
		existing.Type = TransactionType(update.Type)
		if update.Date != nil {
			existing.Date = *update.Date
		}

		newAccount.Apply(existing)

		if err := s.accounts.Update(txCtx, oldAccount); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
		if newAccount != oldAccount {
			if err := s.accounts.Update(txCtx, newAccount); err != nil {
				return fmt.Errorf("failed to update account balance: %w", err)
			}
		}
		if err := s.transactions.Update(txCtx, existing); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance
// effect on the owning account in the same database transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.transactions.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		account, err := s.accounts.LockByID(txCtx, existing.AccountID)
		if err != nil {
			return err
		}
		account.Reverse(existing)
		if err := s.accounts.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
		if err := s.transactions.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		return nil
	})
}

// AccountStatement builds the single-account transaction view: the
// account, its transactions in the query's order, and a balance
// recomputed from the store-side debit/credit sums rather than read from
// the cached column. All reads run inside one snapshot so the listed
// transactions and the computed balance agree even while batches commit
// concurrently.
func (s *LedgerService) AccountStatement(ctx context.Context, accountID uuid.UUID, query TransactionQuery) (*Statement, error) {
	var statement *Statement
	err := s.txManager.WithSnapshot(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.GetByID(txCtx, accountID)
		if err != nil {
			return err
		}

		query.AccountID = &accountID
		transactions, err := s.transactions.List(txCtx, query)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}

		debits, credits, err := s.transactions.SumsByType(txCtx, accountID)
		if err != nil {
			return fmt.Errorf("failed to sum transactions: %w", err)
		}
		computed := debits.Sub(credits)

		statement = &Statement{
			Account:         *account,
			Transactions:    transactions,
			ComputedBalance: computed,
			Negative:        computed.IsNegative(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statement, nil
}

// lockAccountPair locks one or two accounts by number in ascending
// account-number order. Accounts that don't exist are simply absent from
// the result.
func (s *LedgerService) lockAccountPair(ctx context.Context, a, b string) (map[string]*Account, error) {
	numbers := []string{a}
	if b != a {
		numbers = append(numbers, b)
		sort.Strings(numbers)
	}
	locked := make(map[string]*Account, len(numbers))
	for _, number := range numbers {
		account, err := s.accounts.LockByAccountNumber(ctx, number)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock account %q: %w", number, err)
		}
		locked[number] = account
	}
	if _, ok := locked[a]; !ok {
		// The edited transaction's own account vanished underneath us.
		return nil, ErrAccountNotFound
	}
	return locked, nil
}

// validateBatchRow runs the structural checks on one batch row. The
// first failing check wins for that row; account resolution is checked
// later, under lock.
func validateBatchRow(index int, row BatchRow) (decimal.Decimal, *RowError) {
	if isBlank(row.AccountNumber) {
		return decimal.Zero, &RowError{Row: index, Field: "accountNumber", Message: "account number is required"}
	}
	amount, err := ValidateAmount(row.Amount)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return decimal.Zero, &RowError{Row: index, Field: vErr.Field, Message: vErr.Message}
		}
		return decimal.Zero, &RowError{Row: index, Field: "amount", Message: err.Error()}
	}
	if err := ValidateReference(row.Reference); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return decimal.Zero, &RowError{Row: index, Field: vErr.Field, Message: vErr.Message}
		}
		return decimal.Zero, &RowError{Row: index, Field: "reference", Message: err.Error()}
	}
	if err := ValidateType(row.Type); err != nil {
		return decimal.Zero, &RowError{Row: index, Field: "type", Message: "type must be C or D"}
	}
	return amount, nil
}

func containsAccount(accounts []*Account, account *Account) bool {
	for _, a := range accounts {
		if a == account {
			return true
		}
	}
	return false
}
