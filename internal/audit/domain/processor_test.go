package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

// mockTransactionRepository appends inserts in memory.
type mockTransactionRepository struct {
	nextID       int64
	transactions []*Transaction
	insertErr    error
	lastFilter   ListFilter
}

func (m *mockTransactionRepository) Insert(ctx context.Context, tx *Transaction) (*Transaction, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	inserted := *tx
	inserted.ID = m.nextID
	inserted.ProcessedAt = time.Now()
	m.transactions = append(m.transactions, &inserted)
	return &inserted, nil
}

func (m *mockTransactionRepository) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	m.lastFilter = filter
	return m.transactions, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProcess_FraudBoundary(t *testing.T) {
	tests := []struct {
		amount    string
		wantFraud bool
	}{
		{"10000.01", true},
		{"15000.00", true},
		{"10000.00", false}, // threshold itself is not flagged
		{"9999.99", false},
		{"0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			repo := &mockTransactionRepository{}
			processor := NewProcessor(repo, zap.NewNop())

			tx, err := processor.Process(context.Background(), 1, "ACC001", dec(tt.amount), events.TransactionTypeDeposit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tx.FraudDetected != tt.wantFraud {
				t.Errorf("amount %s: expected fraud_detected=%v, got %v", tt.amount, tt.wantFraud, tx.FraudDetected)
			}
			if tt.wantFraud && tx.Notes == "" {
				t.Error("expected a note on flagged transaction")
			}
			if !tt.wantFraud && tx.Notes != "" {
				t.Errorf("expected no note, got %q", tx.Notes)
			}
		})
	}
}

func TestProcess_NoteContent(t *testing.T) {
	repo := &mockTransactionRepository{}
	processor := NewProcessor(repo, zap.NewNop())

	tx, err := processor.Process(context.Background(), 1, "ACC001", dec("12500.50"), events.TransactionTypeWithdraw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(tx.Notes, "Large transaction detected") {
		t.Errorf("unexpected note: %q", tx.Notes)
	}
	if !strings.Contains(tx.Notes, "12500.50") || !strings.Contains(tx.Notes, "withdraw") {
		t.Errorf("expected note to carry amount and type, got %q", tx.Notes)
	}
}

func TestProcess_ExactlyOneInsert(t *testing.T) {
	repo := &mockTransactionRepository{}
	processor := NewProcessor(repo, zap.NewNop())

	if _, err := processor.Process(context.Background(), 1, "ACC001", dec("50.00"), events.TransactionTypeDeposit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.transactions) != 1 {
		t.Errorf("expected exactly 1 insert, got %d", len(repo.transactions))
	}
}

// TestProcess_DuplicateEventInsertsDuplicateRow pins the current
// at-least-once behavior: a redelivered event produces a second row.
// A future deduplication key should make this test fail loudly.
func TestProcess_DuplicateEventInsertsDuplicateRow(t *testing.T) {
	repo := &mockTransactionRepository{}
	processor := NewProcessor(repo, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := processor.Process(context.Background(), 1, "ACC001", dec("150.75"), events.TransactionTypeDeposit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(repo.transactions) != 2 {
		t.Fatalf("expected duplicate insert (2 rows), got %d", len(repo.transactions))
	}
	if repo.transactions[0].ID == repo.transactions[1].ID {
		t.Error("expected distinct ids for duplicate rows")
	}
}

func TestProcess_StoreFailurePropagates(t *testing.T) {
	repo := &mockTransactionRepository{insertErr: errors.New("store unavailable")}
	processor := NewProcessor(repo, zap.NewNop())

	_, err := processor.Process(context.Background(), 1, "ACC001", dec("50.00"), events.TransactionTypeDeposit)
	if err == nil {
		t.Fatal("expected error when store insert fails")
	}
}

func TestList_Clamping(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		wantSkip  int
		wantLimit int
	}{
		{"defaults", 0, 0, 0, 100},
		{"negative skip", -5, 10, 0, 10},
		{"limit over max", 0, 5000, 0, 1000},
		{"in range", 2, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTransactionRepository{}
			processor := NewProcessor(repo, zap.NewNop())

			if _, err := processor.List(context.Background(), nil, tt.skip, tt.limit); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if repo.lastFilter.Skip != tt.wantSkip {
				t.Errorf("expected skip %d, got %d", tt.wantSkip, repo.lastFilter.Skip)
			}
			if repo.lastFilter.Limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, repo.lastFilter.Limit)
			}
		})
	}
}

func TestList_AccountFilterPassedThrough(t *testing.T) {
	repo := &mockTransactionRepository{}
	processor := NewProcessor(repo, zap.NewNop())

	accountID := int64(7)
	if _, err := processor.List(context.Background(), &accountID, 0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.lastFilter.AccountID == nil || *repo.lastFilter.AccountID != 7 {
		t.Errorf("expected account filter 7, got %v", repo.lastFilter.AccountID)
	}
}
