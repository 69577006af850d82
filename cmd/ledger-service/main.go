package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/db"
	ledgerdb "github.com/daksh204singh/distributed-banking-ops/internal/ledger/db"
	"github.com/daksh204singh/distributed-banking-ops/internal/ledger/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/ledger/httpapi"
	"github.com/daksh204singh/distributed-banking-ops/internal/ledger/messaging"
	"github.com/daksh204singh/distributed-banking-ops/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadLedger()
	log, err := logging.New("ledger-service")
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	log.Info("starting", zap.String("http_addr", cfg.HTTPAddr))

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database_connect_failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("database_connected")

	publisher, err := messaging.NewPublisher(cfg.Broker, log)
	if err != nil {
		log.Fatal("publisher_init_failed", zap.Error(err))
	}

	accountRepo := ledgerdb.NewAccountRepository(pool.Pool)
	txManager := ledgerdb.NewTransactionManager(pool.Pool)
	accountService := domain.NewAccountService(accountRepo, txManager, publisher, log)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(accountService, log)),
	}

	go func() {
		log.Info("http_server_listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", zap.Error(err))
	}
	log.Info("stopped")
}
