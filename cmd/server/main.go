package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fintrack/ledger-service/internal/config"
	"github.com/fintrack/ledger-service/internal/db"
	"github.com/fintrack/ledger-service/internal/domain"
	"github.com/fintrack/ledger-service/internal/events"
	"github.com/fintrack/ledger-service/internal/httpapi"
)

func main() {
	// Load .env file if present; real environments set variables directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	// Initialize database connection pool
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to create database pool", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connection pool initialized")

	// Create repositories
	accountRepo := db.NewAccountRepository(pool.Pool)
	transactionRepo := db.NewTransactionRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool, logger)

	// Event publishing is best-effort: the service runs without a broker
	var publisher domain.EventPublisher
	rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		logger.Warn("rabbitmq unavailable, batch events disabled", zap.Error(err))
	} else {
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
		logger.Info("rabbitmq publisher initialized", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	// Create domain service and HTTP router
	ledgerService := domain.NewLedgerService(accountRepo, transactionRepo, txManager, publisher, logger)
	handler := httpapi.NewHandler(ledgerService, logger)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("ledger-service HTTP server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}
