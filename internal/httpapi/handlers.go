package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fintrack/ledger-service/internal/domain"
)

// LedgerService is the part of the ledger the HTTP layer needs.
type LedgerService interface {
	CreateAccount(ctx context.Context, name, accountNumber, initialBalance string) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListAccounts(ctx context.Context, query domain.AccountQuery) ([]domain.Account, error)

	PostBatch(ctx context.Context, rows []domain.BatchRow) ([]uuid.UUID, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, update domain.TransactionUpdate) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error)
	AccountStatement(ctx context.Context, accountID uuid.UUID, query domain.TransactionQuery) (*domain.Statement, error)
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	service LedgerService
	logger  *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(service LedgerService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateAccount handles POST /api/v1/accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.Name, req.AccountNumber, req.Balance)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccount handles GET /api/v1/accounts/{id}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, toAccountResponse(account))
}

// UpdateAccount handles PUT /api/v1/accounts/{id}. Only the name is
// editable; balances change exclusively through transaction posting.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, toAccountResponse(account))
}

// DeleteAccount handles DELETE /api/v1/accounts/{id}.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccounts handles GET /api/v1/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := domain.AccountQuery{
		Search: params.Get("search"),
		Sort:   domain.NormalizeAccountSort(params.Get("sort"), params.Get("order")),
	}

	accounts, err := h.service.ListAccounts(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	responses := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, toAccountResponse(&accounts[i]))
	}
	h.sendJSON(w, http.StatusOK, responses)
}

// AccountStatement handles GET /api/v1/accounts/{id}/statement.
func (h *Handler) AccountStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	params := r.URL.Query()
	query := domain.TransactionQuery{
		Search: params.Get("search"),
		Sort:   domain.NormalizeTransactionSort(params.Get("sort"), params.Get("order")),
	}

	statement, err := h.service.AccountStatement(r.Context(), id, query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	transactions := make([]transactionResponse, 0, len(statement.Transactions))
	for i := range statement.Transactions {
		transactions = append(transactions, toTransactionResponse(&statement.Transactions[i]))
	}
	h.sendJSON(w, http.StatusOK, statementResponse{
		Account:         toAccountResponse(&statement.Account),
		Transactions:    transactions,
		ComputedBalance: statement.ComputedBalance.StringFixed(2),
		Negative:        statement.Negative,
	})
}

// PostBatch handles POST /api/v1/transactions/batch.
func (h *Handler) PostBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	rows := make([]domain.BatchRow, 0, len(req.Transactions))
	for _, row := range req.Transactions {
		rows = append(rows, row.toBatchRow())
	}

	accountIDs, err := h.service.PostBatch(r.Context(), rows)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if accountIDs == nil {
		accountIDs = []uuid.UUID{}
	}
	h.sendJSON(w, http.StatusCreated, batchResponse{AccountIDs: accountIDs})
}

// GetTransaction handles GET /api/v1/transactions/{id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	transaction, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/{id}.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req transactionRow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), id, domain.TransactionUpdate{
		AccountNumber: req.AccountNumber,
		Reference:     req.Reference,
		Amount:        req.Amount,
		Type:          req.Type,
		Date:          req.Date,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/{id}.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := domain.TransactionQuery{
		Search: params.Get("search"),
		Sort:   domain.NormalizeTransactionSort(params.Get("sort"), params.Get("order")),
	}
	if raw := params.Get("accountId"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid accountId")
			return
		}
		query.AccountID = &accountID
	}

	transactions, err := h.service.ListTransactions(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	responses := make([]transactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, toTransactionResponse(&transactions[i]))
	}
	h.sendJSON(w, http.StatusOK, responses)
}

// parseID parses the {id} path parameter, writing a 400 on failure.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors onto HTTP status codes.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var batchErr *domain.BatchError
	if errors.As(err, &batchErr) {
		h.sendJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "BATCH_REJECTED",
			Message: batchErr.Error(),
			Errors:  batchErr.Errors,
		})
		return
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		h.sendJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		h.sendError(w, http.StatusNotFound, "NOT_FOUND", "account not found")
	case errors.Is(err, domain.ErrTransactionNotFound):
		h.sendError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found")
	case errors.Is(err, domain.ErrDuplicateAccountNumber):
		h.sendError(w, http.StatusConflict, "DUPLICATE_ACCOUNT_NUMBER", "account number already exists")
	case errors.Is(err, domain.ErrAccountHasTransactions):
		h.sendError(w, http.StatusConflict, "ACCOUNT_HAS_TRANSACTIONS", "account has transactions and cannot be deleted")
	case errors.Is(err, domain.ErrConcurrencyConflict):
		h.sendError(w, http.StatusConflict, "CONCURRENCY_CONFLICT", "concurrent modification conflict, retry the request")
	default:
		h.logger.Error("internal error", zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, code, message string) {
	h.sendJSON(w, statusCode, errorResponse{Code: code, Message: message})
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
