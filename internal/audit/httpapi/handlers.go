// Package httpapi exposes the audit service's transaction query API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
)

// TransactionQuery is the domain surface the HTTP layer depends on.
type TransactionQuery interface {
	List(ctx context.Context, accountID *int64, skip, limit int) ([]*domain.Transaction, error)
}

// Handler serves the audit REST endpoints.
type Handler struct {
	transactions TransactionQuery
	log          *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(transactions TransactionQuery, log *zap.Logger) *Handler {
	return &Handler{transactions: transactions, log: log}
}

// NewRouter builds the audit service router.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Get("/transactions", h.ListTransactions)
	return r
}

type transactionResponse struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	AccountNumber   string    `json:"account_number"`
	Amount          string    `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	ProcessedAt     time.Time `json:"processed_at"`
	FraudDetected   bool      `json:"fraud_detected"`
	Notes           string    `json:"notes,omitempty"`
}

// ListTransactions handles GET /transactions?account_id=&skip=&limit=.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var accountID *int64
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "account_id must be an integer")
			return
		}
		accountID = &id
	}

	skip, ok := intQuery(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit", 100)
	if !ok {
		return
	}
	if skip < 0 {
		writeError(w, http.StatusUnprocessableEntity, "skip must be non-negative")
		return
	}
	if limit < 1 || limit > 1000 {
		writeError(w, http.StatusUnprocessableEntity, "limit must be between 1 and 1000")
		return
	}

	transactions, err := h.transactions.List(r.Context(), accountID, skip, limit)
	if err != nil {
		h.log.Error("transaction_query_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, transactionResponse{
			ID:              tx.ID,
			AccountID:       tx.AccountID,
			AccountNumber:   tx.AccountNumber,
			Amount:          tx.Amount.StringFixed(2),
			TransactionType: string(tx.TransactionType),
			ProcessedAt:     tx.ProcessedAt,
			FraudDetected:   tx.FraudDetected,
			Notes:           tx.Notes,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// intQuery parses an optional integer query parameter.
func intQuery(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, name+" must be an integer")
		return 0, false
	}
	return value, true
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
