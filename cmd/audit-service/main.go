package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	auditdb "github.com/daksh204singh/distributed-banking-ops/internal/audit/db"
	"github.com/daksh204singh/distributed-banking-ops/internal/audit/domain"
	"github.com/daksh204singh/distributed-banking-ops/internal/audit/httpapi"
	"github.com/daksh204singh/distributed-banking-ops/internal/audit/messaging"
	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/db"
	"github.com/daksh204singh/distributed-banking-ops/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadAudit()
	log, err := logging.New("audit-service")
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	log.Info("starting", zap.String("http_addr", cfg.HTTPAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database_connect_failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("database_connected")

	transactionRepo := auditdb.NewTransactionRepository(pool.Pool)
	processor := domain.NewProcessor(transactionRepo, log)

	consumer, err := messaging.NewConsumer(cfg.Broker, cfg.ProcessTimeout, processor, log)
	if err != nil {
		log.Fatal("consumer_init_failed", zap.Error(err))
	}
	defer consumer.Close()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(processor, log)),
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("consumer_starting", zap.String("queue", cfg.Broker.Queue))
		if err := consumer.Start(ctx); err != nil {
			log.Error("consumer_failed", zap.Error(err))
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http_server_listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_failed", zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("signal_received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", zap.Error(err))
	}

	wg.Wait()
	log.Info("stopped")
}
