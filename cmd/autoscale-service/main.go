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

	"github.com/daksh204singh/distributed-banking-ops/internal/autoscale"
	"github.com/daksh204singh/distributed-banking-ops/internal/autoscale/httpapi"
	"github.com/daksh204singh/distributed-banking-ops/internal/config"
	"github.com/daksh204singh/distributed-banking-ops/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadAutoscale()
	log, err := logging.New("autoscale-service")
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("cooldown", cfg.Cooldown),
		zap.Int("min_instances", cfg.MinInstances),
		zap.Int("max_instances", cfg.MaxInstances))

	runtime := autoscale.NewDockerRuntime(cfg.DockerNetwork, log)
	scaler := autoscale.NewScaler(runtime, autoscale.NewActionLog(cfg.Cooldown),
		autoscale.ServiceMap(cfg.ServiceMap), cfg.MinInstances, cfg.MaxInstances, log)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(scaler, log)),
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", zap.Error(err))
	}
	log.Info("stopped")
}
