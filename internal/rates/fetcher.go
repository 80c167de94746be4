package rates

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
)

const sourceTag = "frankfurter"

// RateStore is the storage slice the fetcher writes through.
type RateStore interface {
	UpsertRate(ctx context.Context, rate core.ExchangeRate) error
}

// Fetcher runs the scheduled rate jobs: a daily latest-rates pull and a
// ranged backfill.
type Fetcher struct {
	client  *Client
	store   RateStore
	base    string
	targets []string
}

func NewFetcher(client *Client, store RateStore) *Fetcher {
	// Every supported currency except the base itself.
	targets := make([]string, 0, len(core.Currencies)-1)
	for _, c := range core.Currencies {
		if c != core.BaseCurrency {
			targets = append(targets, c)
		}
	}
	return &Fetcher{
		client:  client,
		store:   store,
		base:    core.BaseCurrency,
		targets: targets,
	}
}

// FetchResult mirrors the job's JSON report.
type FetchResult struct {
	Success bool   `json:"success"`
	Date    string `json:"date,omitempty"`
	Stored  int    `json:"stored"`
}

// FetchLatest pulls today's rates and upserts one row per target currency.
// An unusable API payload is reported as an unsuccessful run without
// failing the process; storage faults are errors.
func (f *Fetcher) FetchLatest(ctx context.Context) (FetchResult, error) {
	day, err := f.client.Latest(ctx, f.base, f.targets)
	if err != nil {
		slog.ErrorContext(ctx, "Exchange rate fetch failed", "error", err)
		return FetchResult{}, err
	}

	for currency, rate := range day.Rates {
		err := f.store.UpsertRate(ctx, core.ExchangeRate{
			BaseCurrency:   f.base,
			TargetCurrency: currency,
			Rate:           rate,
			RateDate:       day.Date,
			Source:         sourceTag,
		})
		if err != nil {
			return FetchResult{Date: day.Date.String()}, fmt.Errorf("store rate for %s: %w", currency, err)
		}
	}

	slog.InfoContext(ctx, "Exchange rates stored",
		"date", day.Date.String(),
		"currencies", len(day.Rates))

	return FetchResult{Success: true, Date: day.Date.String(), Stored: len(day.Rates)}, nil
}

// Backfill fetches and stores rates for every business day in [start, end],
// fanning out one API call per calendar month. Upsert failures for a single
// day are logged and skipped so one bad row cannot sink a large backfill.
func (f *Fetcher) Backfill(ctx context.Context, start, end core.Date) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, chunk := range monthChunks(start, end) {
		g.Go(func() error {
			days, err := f.client.Range(ctx, f.base, f.targets, chunk.start, chunk.end)
			if err != nil {
				return fmt.Errorf("fetch range %s..%s: %w", chunk.start, chunk.end, err)
			}

			for _, day := range days {
				for currency, rate := range day.Rates {
					err := f.store.UpsertRate(ctx, core.ExchangeRate{
						BaseCurrency:   f.base,
						TargetCurrency: currency,
						Rate:           rate,
						RateDate:       day.Date,
						Source:         sourceTag,
					})
					if err != nil {
						slog.ErrorContext(ctx, "Backfill upsert failed, skipping day",
							"date", day.Date.String(),
							"currency", currency,
							"error", err)
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}

type dateRange struct {
	start, end core.Date
}

// monthChunks splits an inclusive date range along month boundaries.
func monthChunks(start, end core.Date) []dateRange {
	var chunks []dateRange
	cur := start
	for !cur.After(end.Time) {
		chunkEnd := core.MonthEnd(cur.Year(), cur.Month())
		if chunkEnd.After(end.Time) {
			chunkEnd = end
		}
		chunks = append(chunks, dateRange{start: cur, end: chunkEnd})
		cur = chunkEnd.AddDays(1)
	}
	return chunks
}
