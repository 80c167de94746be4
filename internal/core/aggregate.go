package core

// Period is an inclusive calendar month used by the monthly report.
type Period struct {
	Year  int
	Month int // 1-12
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return DaysInMonth(p.Year, p.Month)
}

// DayBalance is one point of the cumulative balance series.
type DayBalance struct {
	Day     int
	Balance int64
}

// Summary aggregates a set of transactions for one period.
type Summary struct {
	TotalIncome       int64
	TotalExpense      int64
	Balance           int64
	IncomeByCategory  map[string]int64
	ExpenseByCategory map[string]int64
	DailyBalance      []DayBalance
}

// MonthTotal is one month's slice of a yearly report.
type MonthTotal struct {
	Month   int
	Income  int64
	Expense int64
	Balance int64
}

// amountIn picks the value a transaction contributes under a currency mode:
// converted to base for AllBase, the raw amount for its own currency tab,
// and nothing for any other tab. Mixed-currency raw summation never happens.
func amountIn(t Transaction, mode string, rates RateTable) (int64, bool) {
	if mode == AllBase {
		return Convert(t, rates).Amount, true
	}
	if t.Currency != mode {
		return 0, false
	}
	return t.Amount, true
}

// Aggregate folds transactions into a period summary. categoryNames maps
// category id to display name; null or dangling references fall into the
// Uncategorized bucket. Keys appear only for categories present in the set.
//
// The daily series carries the running balance through days without
// transactions, so every day of the period appears exactly once.
func Aggregate(txs []Transaction, categoryNames map[string]string, period Period, mode string, rates RateTable) Summary {
	s := Summary{
		IncomeByCategory:  make(map[string]int64),
		ExpenseByCategory: make(map[string]int64),
	}

	perDay := make(map[int]int64, period.Days())
	for _, t := range txs {
		amount, ok := amountIn(t, mode, rates)
		if !ok {
			continue
		}

		name := Uncategorized
		if t.CategoryID != nil {
			if n, ok := categoryNames[*t.CategoryID]; ok {
				name = n
			}
		}

		switch t.Type {
		case Income:
			s.TotalIncome += amount
			s.IncomeByCategory[name] += amount
			perDay[t.Date.Day()] += amount
		case Expense:
			s.TotalExpense += amount
			s.ExpenseByCategory[name] += amount
			perDay[t.Date.Day()] -= amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense

	var cumulative int64
	s.DailyBalance = make([]DayBalance, 0, period.Days())
	for day := 1; day <= period.Days(); day++ {
		cumulative += perDay[day]
		s.DailyBalance = append(s.DailyBalance, DayBalance{Day: day, Balance: cumulative})
	}

	return s
}

// MonthlyTotals folds a year of transactions into per-month totals under the
// given currency mode.
func MonthlyTotals(txs []Transaction, mode string, rates RateTable) []MonthTotal {
	totals := make([]MonthTotal, 12)
	for i := range totals {
		totals[i].Month = i + 1
	}
	for _, t := range txs {
		amount, ok := amountIn(t, mode, rates)
		if !ok {
			continue
		}
		m := &totals[t.Date.Month()-1]
		switch t.Type {
		case Income:
			m.Income += amount
		case Expense:
			m.Expense += amount
		}
	}
	for i := range totals {
		totals[i].Balance = totals[i].Income - totals[i].Expense
	}
	return totals
}
