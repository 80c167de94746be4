package core

import "math"

// RateTable is a sparse dated set of exchange rates, at most one entry per
// (target currency, date). Order is not assumed.
type RateTable []ExchangeRate

// Latest returns the entry for target with the greatest rate date at or
// before the given date, if any.
func (rt RateTable) Latest(target string, onOrBefore Date) (ExchangeRate, bool) {
	var best ExchangeRate
	found := false
	for _, r := range rt {
		if r.TargetCurrency != target {
			continue
		}
		if r.RateDate.After(onOrBefore.Time) {
			continue
		}
		if !found || r.RateDate.After(best.RateDate.Time) {
			best = r
			found = true
		}
	}
	return best, found
}

// Conversion is the outcome of converting one transaction to the base
// currency. UsedRateDate is nil for base-currency transactions and when no
// rate was available.
type Conversion struct {
	Amount       int64
	UsedRateDate *Date
}

// Convert translates a transaction amount into the base currency using the
// latest rate at or before the transaction date. A missing rate is not an
// error: the converted amount degrades to 0 with no used date, and the
// caller surfaces the gap through LatestRateDateOnOrBefore.
func Convert(t Transaction, rates RateTable) Conversion {
	if t.Currency == BaseCurrency {
		return Conversion{Amount: t.Amount}
	}
	rate, ok := rates.Latest(t.Currency, t.Date)
	if !ok || rate.Rate == 0 {
		return Conversion{}
	}
	used := rate.RateDate
	return Conversion{
		Amount:       int64(math.Round(float64(t.Amount) / rate.Rate)),
		UsedRateDate: &used,
	}
}

// LatestRateDateOnOrBefore returns the most recent date at or before ref for
// which any rate exists, regardless of currency. Used to tell the user which
// day's rates a report actually relied on.
func LatestRateDateOnOrBefore(rates RateTable, ref Date) *Date {
	var best *Date
	for _, r := range rates {
		if r.RateDate.After(ref.Time) {
			continue
		}
		if best == nil || r.RateDate.After(best.Time) {
			d := r.RateDate
			best = &d
		}
	}
	return best
}
