package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rfv_copilot_backend/internal/adapters"
	"rfv_copilot_backend/internal/events"
	ledgerrepo "rfv_copilot_backend/internal/ledger/repository"
	"rfv_copilot_backend/internal/notification"
	"rfv_copilot_backend/internal/rfv"
	"rfv_copilot_backend/internal/scheduler"
	"rfv_copilot_backend/platform/config"
	"rfv_copilot_backend/platform/db"
	"rfv_copilot_backend/platform/logger"
	"rfv_copilot_backend/platform/metrics"
	"rfv_copilot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(pool, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()
	reg := metrics.New()

	// Worker-side engine wiring (no HTTP handlers required).
	ledgerReader := adapters.NewLedgerReader(ledgerrepo.New(pool))
	rfvModule, err := rfv.NewModule(pool, ledgerReader, cfg, eventBus, reg, val, log)
	if err != nil {
		log.Error("failed to initialize rfv module", "error", err)
		panic("failed to initialize rfv module: " + err.Error())
	}

	dispatcher, err := scheduler.NewDispatcher(cfg, log)
	if err != nil {
		log.Error("failed to initialize dispatcher", "error", err)
		panic("failed to initialize dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, rfvModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
