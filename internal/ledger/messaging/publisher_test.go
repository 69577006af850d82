package messaging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/events"
)

func TestNewPublisher_IncompleteConfig(t *testing.T) {
	_, err := NewPublisher(config.BrokerConfig{Port: 5672, Queue: "q"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for incomplete broker config")
	}
}

func TestPublish_ConnectionFailure(t *testing.T) {
	cfg := config.BrokerConfig{
		Host:     "127.0.0.1",
		Port:     1, // nothing listens here
		User:     "guest",
		Password: "guest",
		Queue:    "transaction.created",
	}

	pub, err := NewPublisher(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = pub.Publish(context.Background(), events.TransactionEvent{})
	if err == nil {
		t.Fatal("expected publish error")
	}

	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected *PublishError, got %T: %v", err, err)
	}
	if publishErr.Queue != "transaction.created" {
		t.Errorf("expected queue in error, got %q", publishErr.Queue)
	}
}
