package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/rates"
	"kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rate-worker")

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

	fetcher := rates.NewFetcher(rates.NewClient(cfg.RateAPIBaseURL), repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-shot backfill when a window is configured, then the daily loop.
	if cfg.RateBackfillStart != "" {
		start, err := core.ParseDate(cfg.RateBackfillStart)
		if err != nil {
			logger.Error("Invalid backfill start", "error", err)
			os.Exit(1)
		}
		end, err := core.ParseDate(cfg.RateBackfillEnd)
		if err != nil {
			logger.Error("Invalid backfill end", "error", err)
			os.Exit(1)
		}

		logger.Info("Running rate backfill", "start", start.String(), "end", end.String())
		if err := fetcher.Backfill(ctx, start, end); err != nil {
			logger.Error("Rate backfill failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Rate backfill complete")
	}

	logger.Info("Rate fetcher configured",
		"interval", cfg.RateFetchInterval,
		"base_url", cfg.RateAPIBaseURL)

	ticker := time.NewTicker(cfg.RateFetchInterval)
	defer ticker.Stop()

	fetchOnce(ctx, fetcher, logger)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetchOnce(ctx, fetcher, logger)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Rate-worker shutdown complete")
}

func fetchOnce(ctx context.Context, fetcher *rates.Fetcher, logger *slog.Logger) {
	result, err := fetcher.FetchLatest(ctx)
	if err != nil {
		logger.Error("Rate fetch failed", "error", err)
		return
	}
	if !result.Success {
		logger.Warn("Rate fetch returned no rates", "date", result.Date)
		return
	}
	logger.Info("Rates stored", "date", result.Date, "stored", result.Stored)
}
