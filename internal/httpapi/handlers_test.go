package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack/ledger-service/internal/domain"
)

// stubService implements LedgerService with overridable function fields.
type stubService struct {
	createAccount      func(ctx context.Context, name, accountNumber, initialBalance string) (*domain.Account, error)
	getAccount         func(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	updateAccount      func(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error)
	deleteAccount      func(ctx context.Context, id uuid.UUID) error
	listAccounts       func(ctx context.Context, query domain.AccountQuery) ([]domain.Account, error)
	postBatch          func(ctx context.Context, rows []domain.BatchRow) ([]uuid.UUID, error)
	getTransaction     func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	updateTransaction  func(ctx context.Context, id uuid.UUID, update domain.TransactionUpdate) (*domain.Transaction, error)
	deleteTransaction  func(ctx context.Context, id uuid.UUID) error
	listTransactions   func(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error)
	accountStatement   func(ctx context.Context, accountID uuid.UUID, query domain.TransactionQuery) (*domain.Statement, error)
}

func (s *stubService) CreateAccount(ctx context.Context, name, accountNumber, initialBalance string) (*domain.Account, error) {
	return s.createAccount(ctx, name, accountNumber, initialBalance)
}
func (s *stubService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.getAccount(ctx, id)
}
func (s *stubService) UpdateAccount(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	return s.updateAccount(ctx, id, name)
}
func (s *stubService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.deleteAccount(ctx, id)
}
func (s *stubService) ListAccounts(ctx context.Context, query domain.AccountQuery) ([]domain.Account, error) {
	return s.listAccounts(ctx, query)
}
func (s *stubService) PostBatch(ctx context.Context, rows []domain.BatchRow) ([]uuid.UUID, error) {
	return s.postBatch(ctx, rows)
}
func (s *stubService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.getTransaction(ctx, id)
}
func (s *stubService) UpdateTransaction(ctx context.Context, id uuid.UUID, update domain.TransactionUpdate) (*domain.Transaction, error) {
	return s.updateTransaction(ctx, id, update)
}
func (s *stubService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.deleteTransaction(ctx, id)
}
func (s *stubService) ListTransactions(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error) {
	return s.listTransactions(ctx, query)
}
func (s *stubService) AccountStatement(ctx context.Context, accountID uuid.UUID, query domain.TransactionQuery) (*domain.Statement, error) {
	return s.accountStatement(ctx, accountID, query)
}

func newTestRouter(service LedgerService) http.Handler {
	return NewRouter(NewHandler(service, nil), nil)
}

func TestCreateAccountHandler(t *testing.T) {
	account := domain.NewAccount("Alice", "100000000000001", decimal.RequireFromString("12.50"))

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"name":"Alice","accountNumber":"100000000000001","balance":"12.50"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "validation error",
			body:       `{"name":"","accountNumber":"100000000000001"}`,
			serviceErr: &domain.ValidationError{Field: "name", Message: "name is required"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "duplicate account number",
			body:       `{"name":"Alice","accountNumber":"100000000000001"}`,
			serviceErr: domain.ErrDuplicateAccountNumber,
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_ACCOUNT_NUMBER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubService{
				createAccount: func(ctx context.Context, name, accountNumber, initialBalance string) (*domain.Account, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return account, nil
				},
			}
			router := newTestRouter(service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantCode != "" {
				var resp errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("error code = %q, want %q", resp.Code, tt.wantCode)
				}
			} else {
				var resp accountResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Balance != "12.50" {
					t.Errorf("balance = %q, want %q", resp.Balance, "12.50")
				}
			}
		})
	}
}

func TestPostBatchHandler(t *testing.T) {
	accountID := uuid.New()

	t.Run("committed batch returns affected accounts", func(t *testing.T) {
		var gotRows []domain.BatchRow
		service := &stubService{
			postBatch: func(ctx context.Context, rows []domain.BatchRow) ([]uuid.UUID, error) {
				gotRows = rows
				return []uuid.UUID{accountID}, nil
			},
		}
		router := newTestRouter(service)

		body := `{"transactions":[{"accountNumber":"100000000000001","reference":"salary","amount":"100.00","type":"D"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/batch", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body)
		}
		if len(gotRows) != 1 || gotRows[0].Amount != "100.00" {
			t.Errorf("service received rows %+v", gotRows)
		}
		var resp batchResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.AccountIDs) != 1 || resp.AccountIDs[0] != accountID {
			t.Errorf("accountIds = %v, want [%s]", resp.AccountIDs, accountID)
		}
	})

	t.Run("rejected batch enumerates row errors", func(t *testing.T) {
		service := &stubService{
			postBatch: func(ctx context.Context, rows []domain.BatchRow) ([]uuid.UUID, error) {
				return nil, &domain.BatchError{Errors: []domain.RowError{
					{Row: 0, Field: "accountNumber", Message: "account number does not exist"},
					{Row: 2, Field: "amount", Message: "amount must be greater than 0"},
				}}
			},
		}
		router := newTestRouter(service)

		body := `{"transactions":[{"accountNumber":"000000000000000","reference":"x","amount":"1.00","type":"D"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/batch", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if resp.Code != "BATCH_REJECTED" {
			t.Errorf("code = %q, want BATCH_REJECTED", resp.Code)
		}
		if len(resp.Errors) != 2 || resp.Errors[1].Row != 2 {
			t.Errorf("errors = %+v, want 2 row errors", resp.Errors)
		}
	})
}

func TestAccountNotFound(t *testing.T) {
	service := &stubService{
		getAccount: func(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteAccountWithTransactionsHandler(t *testing.T) {
	service := &stubService{
		deleteAccount: func(ctx context.Context, id uuid.UUID) error {
			return domain.ErrAccountHasTransactions
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != "ACCOUNT_HAS_TRANSACTIONS" {
		t.Errorf("code = %q, want ACCOUNT_HAS_TRANSACTIONS", resp.Code)
	}
}

func TestListAccountsQueryNormalization(t *testing.T) {
	var gotQuery domain.AccountQuery
	service := &stubService{
		listAccounts: func(ctx context.Context, query domain.AccountQuery) ([]domain.Account, error) {
			gotQuery = query
			return nil, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts?search=ali&sort=balance&order=desc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotQuery.Search != "ali" {
		t.Errorf("search = %q, want %q", gotQuery.Search, "ali")
	}
	want := domain.AccountSort{Field: domain.AccountSortBalance, Order: domain.SortDesc}
	if gotQuery.Sort != want {
		t.Errorf("sort = %+v, want %+v", gotQuery.Sort, want)
	}

	// Unrecognized sort input falls back to the default order.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts?sort=bogus&order=sideways", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if gotQuery.Sort != domain.DefaultAccountSort() {
		t.Errorf("sort = %+v, want default", gotQuery.Sort)
	}
}

func TestGetTransactionInvalidID(t *testing.T) {
	service := &stubService{
		getTransaction: func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
			t.Fatal("service should not be called for an invalid id")
			return nil, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
