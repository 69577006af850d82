package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

type mockQuery struct {
	listFunc func(ctx context.Context, accountID *int64, skip, limit int) ([]*domain.Transaction, error)

	gotAccountID *int64
	gotSkip      int
	gotLimit     int
}

func (m *mockQuery) List(ctx context.Context, accountID *int64, skip, limit int) ([]*domain.Transaction, error) {
	m.gotAccountID = accountID
	m.gotSkip = skip
	m.gotLimit = limit
	if m.listFunc != nil {
		return m.listFunc(ctx, accountID, skip, limit)
	}
	return nil, nil
}

func serve(t *testing.T, q TransactionQuery, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(q, zap.NewNop()))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListTransactions_Defaults(t *testing.T) {
	q := &mockQuery{}

	rec := serve(t, q, "/transactions")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if q.gotAccountID != nil {
		t.Errorf("expected no account filter, got %v", *q.gotAccountID)
	}
	if q.gotSkip != 0 || q.gotLimit != 100 {
		t.Errorf("expected skip=0 limit=100, got skip=%d limit=%d", q.gotSkip, q.gotLimit)
	}

	// An empty result still encodes as an array, not null.
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestListTransactions_QueryParams(t *testing.T) {
	q := &mockQuery{}

	rec := serve(t, q, "/transactions?account_id=7&skip=2&limit=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if q.gotAccountID == nil || *q.gotAccountID != 7 {
		t.Errorf("expected account filter 7, got %v", q.gotAccountID)
	}
	if q.gotSkip != 2 || q.gotLimit != 2 {
		t.Errorf("expected skip=2 limit=2, got skip=%d limit=%d", q.gotSkip, q.gotLimit)
	}
}

func TestListTransactions_InvalidParams(t *testing.T) {
	paths := []string{
		"/transactions?account_id=abc",
		"/transactions?skip=-1",
		"/transactions?skip=x",
		"/transactions?limit=0",
		"/transactions?limit=1001",
		"/transactions?limit=ten",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := serve(t, &mockQuery{}, path)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", rec.Code)
			}
		})
	}
}

func TestListTransactions_ResponseShape(t *testing.T) {
	processedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q := &mockQuery{
		listFunc: func(ctx context.Context, accountID *int64, skip, limit int) ([]*domain.Transaction, error) {
			return []*domain.Transaction{
				{
					ID:              2,
					AccountID:       1,
					AccountNumber:   "ACC001",
					Amount:          decimal.RequireFromString("10500.00"),
					TransactionType: events.TransactionTypeDeposit,
					ProcessedAt:     processedAt,
					FraudDetected:   true,
					Notes:           "Large transaction detected: 10500.00 deposit",
				},
				{
					ID:              1,
					AccountID:       1,
					AccountNumber:   "ACC001",
					Amount:          decimal.RequireFromString("150.75"),
					TransactionType: events.TransactionTypeDeposit,
					ProcessedAt:     processedAt,
					FraudDetected:   false,
				},
			}, nil
		},
	}

	rec := serve(t, q, "/transactions?account_id=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(response))
	}

	first := response[0]
	if first["amount"] != "10500.00" {
		t.Errorf("expected amount \"10500.00\", got %v", first["amount"])
	}
	if first["fraud_detected"] != true {
		t.Errorf("expected fraud_detected true, got %v", first["fraud_detected"])
	}
	if _, ok := first["notes"]; !ok {
		t.Error("expected notes on flagged transaction")
	}

	second := response[1]
	if _, ok := second["notes"]; ok {
		t.Error("expected notes omitted on clean transaction")
	}
}
