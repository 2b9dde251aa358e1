package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/auth"
	"expense-tracker/api/config"
	"expense-tracker/api/handlers"
	"expense-tracker/api/logger"
	"expense-tracker/api/memory"
	"expense-tracker/api/mongodb"
	"expense-tracker/api/repository"
	"expense-tracker/api/worker"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 20 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.LogDevelopment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Get().Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logger.Get().Error("Failed to close store", zap.Error(err))
		}
	}()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, time.Now)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret, time.Now)
	if err != nil {
		return err
	}
	accounts, err := repository.NewAccounts(store, auth.NewPasswordHasher(cfg.BcryptCost), issuer, time.Now)
	if err != nil {
		return err
	}

	deps := handlers.Dependencies{
		Accounts:       accounts,
		Expenses:       repository.NewExpenses(store, time.Now),
		Goals:          repository.NewGoals(store, time.Now),
		Verifier:       verifier,
		Store:          store,
		CORSOrigin:     cfg.CORSOrigin,
		InternalAPIKey: cfg.InternalAPIKey,
		RequestTimeout: cfg.RequestTimeout,
	}

	var (
		pool      *worker.WorkerPool
		scheduler *worker.Scheduler
	)
	if cfg.RecurringSchedule != "" {
		recurring := repository.NewRecurring(store, time.Now)
		pool = worker.NewWorkerPool(cfg.RecurringWorkers, worker.MaterializeProcessor(recurring))
		scheduler, err = worker.NewScheduler(cfg.RecurringSchedule, recurring, pool, worker.DefaultBatchSize)
		if err != nil {
			return err
		}
		deps.WorkerStats = http.HandlerFunc(pool.MetricsHandler)

		pool.Start()
		scheduler.Start()
		logger.Get().Info("Recurring expenses enabled",
			zap.String("schedule", cfg.RecurringSchedule),
			zap.Int("workers", cfg.RecurringWorkers))
	}

	router := handlers.NewRouter(deps)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		return fmt.Errorf("setting trusted proxies: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Get().Info("Server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Get().Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
		pool.Stop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Get().Info("Server stopped")
	return nil
}

func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Get().Warn("Using in-memory store; data is lost on restart")
		return memory.New(), nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connecting to MongoDB: %w", err)
		}
		return s, nil
	}
}
