package services

import (
	"context"
	"fmt"

	"kakeibo/internal/core"
)

// MonthlyReport is one currency tab of the monthly view.
type MonthlyReport struct {
	Currency   string
	Summary    core.Summary
	FxRateDate *core.Date // rates-from date actually available, nil when none
}

// YearlyReport groups per-month totals by currency tab.
type YearlyReport struct {
	Year       int
	ByCurrency map[string][]core.MonthTotal
}

// ReportService assembles reporting views: fetch the period's transactions
// and rates, convert, aggregate.
type ReportService struct {
	ledger     LedgerReader
	rates      RateReader
	categories CategoryReader
}

func NewReportService(ledger LedgerReader, rates RateReader, categories CategoryReader) *ReportService {
	return &ReportService{ledger: ledger, rates: rates, categories: categories}
}

// Monthly builds the report for one month and one currency tab. The rate
// window matches the report window, so a currency whose last observation
// predates the month converts to 0 there; FxRateDate discloses which day's
// rates were available.
func (s *ReportService) Monthly(ctx context.Context, userID string, year, month int, currency string) (MonthlyReport, error) {
	if currency != core.AllBase && !core.KnownCurrency(currency) {
		return MonthlyReport{}, core.ErrInvalidCurrency
	}

	start, end := core.MonthStart(year, month), core.MonthEnd(year, month)

	txs, err := s.ledger.ListTransactionsByRange(ctx, userID, start, end)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("list transactions: %w", err)
	}

	rates, err := s.rates.ListRatesByRange(ctx, start, end)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("list rates: %w", err)
	}

	names, err := s.categories.CategoryNames(ctx, userID)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("load category names: %w", err)
	}

	table := core.RateTable(rates)
	return MonthlyReport{
		Currency:   currency,
		Summary:    core.Aggregate(txs, names, core.Period{Year: year, Month: month}, currency, table),
		FxRateDate: core.LatestRateDateOnOrBefore(table, end),
	}, nil
}

// Yearly builds per-month totals for every currency tab plus the converted
// ALL_JPY tab.
func (s *ReportService) Yearly(ctx context.Context, userID string, year int) (YearlyReport, error) {
	start, end := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)

	txs, err := s.ledger.ListTransactionsByRange(ctx, userID, start, end)
	if err != nil {
		return YearlyReport{}, fmt.Errorf("list transactions: %w", err)
	}

	rates, err := s.rates.ListRatesByRange(ctx, start, end)
	if err != nil {
		return YearlyReport{}, fmt.Errorf("list rates: %w", err)
	}

	table := core.RateTable(rates)
	report := YearlyReport{
		Year:       year,
		ByCurrency: make(map[string][]core.MonthTotal, len(core.Currencies)+1),
	}
	for _, currency := range core.Currencies {
		report.ByCurrency[currency] = core.MonthlyTotals(txs, currency, table)
	}
	report.ByCurrency[core.AllBase] = core.MonthlyTotals(txs, core.AllBase, table)

	return report, nil
}
