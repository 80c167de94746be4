package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

// UpsertRate writes one observed rate, replacing any previous value for the
// same (base, target, date). The rate table is append-mostly and written
// only by the rate workers.
func (r *SQLiteRepository) UpsertRate(ctx context.Context, rate core.ExchangeRate) error {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (id, base_currency, target_currency, rate, rate_date, source)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (base_currency, target_currency, rate_date)
		 DO UPDATE SET rate = excluded.rate, source = excluded.source`,
		rate.ID, rate.BaseCurrency, rate.TargetCurrency, rate.Rate, rate.RateDate.String(), rate.Source)
	if err != nil {
		return fmt.Errorf("upsert exchange rate: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRatesByRange(ctx context.Context, start, end core.Date) ([]core.ExchangeRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, base_currency, target_currency, rate, rate_date, source
		 FROM exchange_rates
		 WHERE rate_date >= ? AND rate_date <= ?
		 ORDER BY rate_date`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}
	defer rows.Close()
	return collectRates(rows)
}

func (r *SQLiteRepository) ListRatesByCurrency(ctx context.Context, target string, start, end core.Date) ([]core.ExchangeRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, base_currency, target_currency, rate, rate_date, source
		 FROM exchange_rates
		 WHERE target_currency = ? AND rate_date >= ? AND rate_date <= ?
		 ORDER BY rate_date`,
		target, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list exchange rates for %s: %w", target, err)
	}
	defer rows.Close()
	return collectRates(rows)
}

func collectRates(rows *sql.Rows) ([]core.ExchangeRate, error) {
	var rates []core.ExchangeRate
	for rows.Next() {
		var (
			rate    core.ExchangeRate
			dateStr string
		)
		if err := rows.Scan(&rate.ID, &rate.BaseCurrency, &rate.TargetCurrency, &rate.Rate, &dateStr, &rate.Source); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse rate date %q: %w", dateStr, err)
		}
		rate.RateDate = d
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
