// Package httpapi exposes the ledger's REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/ledger/domain"
)

// AccountService is the domain surface the HTTP layer depends on.
type AccountService interface {
	Create(ctx context.Context, accountNumber string) (*domain.Account, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
}

// Handler serves the ledger REST endpoints.
type Handler struct {
	accounts AccountService
	log      *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(accounts AccountService, log *zap.Logger) *Handler {
	return &Handler{accounts: accounts, log: log}
}

// NewRouter builds the ledger service router.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.CreateAccount)
		r.Get("/{accountID}", h.GetAccount)
		r.Put("/{accountID}/deposit", h.Deposit)
		r.Put("/{accountID}/withdraw", h.Withdraw)
	})
	return r
}

type createAccountRequest struct {
	AccountNumber string `json:"account_number"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type accountResponse struct {
	ID            int64     `json:"id"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.StringFixed(2),
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
	}
}

// CreateAccount handles POST /accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if req.AccountNumber == "" {
		writeError(w, http.StatusUnprocessableEntity, "account_number is required")
		return
	}

	account, err := h.accounts.Create(r.Context(), req.AccountNumber)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccount handles GET /accounts/{accountID}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// Deposit handles PUT /accounts/{accountID}/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.accounts.Deposit)
}

// Withdraw handles PUT /accounts/{accountID}/withdraw.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.accounts.Withdraw)
}

func (h *Handler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error),
) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusUnprocessableEntity, "amount must be positive")
		return
	}

	account, err := op(r.Context(), id, req.Amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// accountID parses the path parameter, answering 422 on malformed input.
func accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "account id must be an integer")
		return 0, false
	}
	return id, true
}

// writeServiceError maps domain errors onto the API's status semantics.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, domain.ErrAccountExists):
		writeError(w, http.StatusBadRequest, "Account number already exists")
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "amount must be positive")
	default:
		h.log.Error("request_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
