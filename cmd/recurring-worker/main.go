package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The export-worker consumes what this publishes and mirrors it out.
	var notifier services.ExportNotifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
			logger.Info("AMQP client initialized, inserted transactions will sync via export-worker")
		}
	} else {
		logger.Info("AMQP disabled, inserted transactions will not be exported")
	}

	applier := services.NewRecurringApplier(repo, repo, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring applier configured",
		"interval", cfg.ApplyInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.ApplyInterval)
	defer ticker.Stop()

	// Run once on startup
	runOnce(ctx, applier, logger)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, applier, logger)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Recurring-worker shutdown complete")
}

func runOnce(ctx context.Context, applier *services.RecurringApplier, logger *slog.Logger) {
	result, err := applier.Run(ctx)
	if err != nil {
		logger.Error("Recurring application failed",
			"error", err,
			"inserted_before_failure", result.Inserted,
			"date", result.Date)
		return
	}
	logger.Info("Recurring application complete",
		"inserted", result.Inserted,
		"date", result.Date)
}
