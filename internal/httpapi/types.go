package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-service/internal/domain"
)

// accountRequest is the create/update payload for an account. Balance is
// a decimal string and only honored on create.
type accountRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Balance       string `json:"balance,omitempty"`
}

// accountResponse is the wire form of an account. Balance is a decimal
// string to keep precision out of JSON number territory.
type accountResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"accountNumber"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID,
		Name:          account.Name,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.StringFixed(2),
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
	}
}

// transactionRow is one candidate row of a posting batch. Amount stays a
// raw string so malformed values become row errors, not decode failures.
type transactionRow struct {
	AccountNumber string     `json:"accountNumber"`
	Reference     string     `json:"reference"`
	Amount        string     `json:"amount"`
	Type          string     `json:"type"`
	Date          *time.Time `json:"date,omitempty"`
}

func (r transactionRow) toBatchRow() domain.BatchRow {
	return domain.BatchRow{
		AccountNumber: r.AccountNumber,
		Reference:     r.Reference,
		Amount:        r.Amount,
		Type:          r.Type,
		Date:          r.Date,
	}
}

// batchRequest is the posting batch payload.
type batchRequest struct {
	Transactions []transactionRow `json:"transactions"`
}

// batchResponse reports the accounts affected by a committed batch.
type batchResponse struct {
	AccountIDs []uuid.UUID `json:"accountIds"`
}

type transactionResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"accountId"`
	AccountNumber string    `json:"accountNumber"`
	Date          time.Time `json:"date"`
	Reference     string    `json:"reference"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toTransactionResponse(transaction *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:            transaction.ID,
		AccountID:     transaction.AccountID,
		AccountNumber: transaction.AccountNumber,
		Date:          transaction.Date,
		Reference:     transaction.Reference,
		Amount:        transaction.Amount.StringFixed(2),
		Type:          string(transaction.Type),
		CreatedAt:     transaction.CreatedAt,
	}
}

// statementResponse is the single-account view with the balance
// recomputed from the transaction log.
type statementResponse struct {
	Account         accountResponse       `json:"account"`
	Transactions    []transactionResponse `json:"transactions"`
	ComputedBalance string                `json:"computedBalance"`
	Negative        bool                  `json:"negative"`
}

// errorResponse is the error envelope. Field is set for single-field
// validation errors; Errors enumerates the rows of a rejected batch.
type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Errors  []domain.RowError `json:"errors,omitempty"`
}
