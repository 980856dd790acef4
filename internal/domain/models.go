package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a customer account in the system.
// Balance is a cached projection of the account's transaction log: after
// every committed write it equals the signed sum of the account's
// transactions under the sign convention in SignedAmount.
type Account struct {
	ID            uuid.UUID       // Unique identifier of the account
	Name          string          // Display name, non-empty
	AccountNumber string          // Human-facing lookup key, exactly 15 characters, unique
	Balance       decimal.Decimal // Current balance, NUMERIC(18,2)
	CreatedAt     time.Time       // Timestamp when the account was created
	UpdatedAt     time.Time       // Timestamp of the last account update
}

// TransactionType is the single-character credit/debit marker.
type TransactionType string

const (
	// TypeCredit decreases the account balance
	TypeCredit TransactionType = "C"

	// TypeDebit increases the account balance
	TypeDebit TransactionType = "D"
)

// Transaction represents a single typed monetary movement attributed to
// one account. AccountNumber is denormalized for display and search; the
// owning account is identified by AccountID.
type Transaction struct {
	ID            uuid.UUID       // Unique identifier of the transaction
	AccountID     uuid.UUID       // Owning account, immutable except through UpdateTransaction
	AccountNumber string          // Account number used to resolve the account at posting time
	Date          time.Time       // Transaction date, defaults to posting time
	Reference     string          // Free-text reference, non-empty, max 200 characters
	Amount        decimal.Decimal // Unsigned magnitude, strictly positive, NUMERIC(18,2)
	Type          TransactionType // C or D
	CreatedAt     time.Time       // Timestamp when the record was created
}

// BatchRow is one candidate row of a posting batch as submitted by the
// caller. Amount is kept as the raw decimal string so that malformed
// values surface as row-scoped errors instead of transport failures.
type BatchRow struct {
	AccountNumber string
	Reference     string
	Amount        string
	Type          string
	Date          *time.Time // nil means "use posting time"
}

// IsEmpty reports whether the row is an untouched placeholder from a
// batch-entry form: no account number, no reference, no amount. Such
// rows are skipped silently rather than rejected.
func (r BatchRow) IsEmpty() bool {
	if !isBlank(r.AccountNumber) || !isBlank(r.Reference) {
		return false
	}
	if isBlank(r.Amount) {
		return true
	}
	amount, err := ParseDecimal(r.Amount)
	return err == nil && amount.IsZero()
}

// TransactionUpdate carries the editable fields of a transaction.
// Amount is a raw decimal string, validated by the service.
type TransactionUpdate struct {
	AccountNumber string
	Reference     string
	Amount        string
	Type          string
	Date          *time.Time
}

// Statement is the single-account transaction view: the account, its
// transactions, and a balance recomputed from the transaction log rather
// than read from the cached column.
type Statement struct {
	Account         Account
	Transactions    []Transaction
	ComputedBalance decimal.Decimal
	Negative        bool
}

// BatchPostedEvent is emitted after a posting batch commits.
type BatchPostedEvent struct {
	AccountIDs       []uuid.UUID `json:"accountIds"`
	TransactionCount int         `json:"transactionCount"`
	PostedAt         time.Time   `json:"postedAt"`
}

// NewAccount creates a new Account with a fresh identifier.
func NewAccount(name, accountNumber string, balance decimal.Decimal) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:            uuid.New(),
		Name:          name,
		AccountNumber: accountNumber,
		Balance:       balance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTransaction builds a transaction for the given account from
// validated posting input. The amount must already be parsed and positive.
func NewTransaction(account *Account, amount decimal.Decimal, txType TransactionType, reference string, date *time.Time, now time.Time) *Transaction {
	when := now
	if date != nil {
		when = *date
	}
	return &Transaction{
		ID:            uuid.New(),
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Date:          when,
		Reference:     reference,
		Amount:        amount,
		Type:          txType,
		CreatedAt:     now,
	}
}

// SignedAmount maps the transaction onto the balance axis: a debit (D)
// increases the balance by Amount, a credit (C) decreases it. This is
// the system's accounting contract; posting, editing, deleting and
// reconciliation all go through it.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeCredit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Apply adds the transaction's signed amount to the account balance.
func (a *Account) Apply(t *Transaction) {
	a.Balance = a.Balance.Add(t.SignedAmount())
	a.UpdatedAt = time.Now().UTC()
}

// Reverse removes the transaction's signed amount from the account
// balance, undoing a previous Apply.
func (a *Account) Reverse(t *Transaction) {
	a.Balance = a.Balance.Sub(t.SignedAmount())
	a.UpdatedAt = time.Now().UTC()
}
