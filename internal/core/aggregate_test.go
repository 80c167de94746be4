package core

import "testing"

func catPtr(id string) *string { return &id }

func TestAggregate_CumulativeBalance(t *testing.T) {
	period := Period{Year: 2024, Month: 4} // 30 days
	txs := []Transaction{
		{Date: NewDate(2024, 4, 1), Amount: 1000, Currency: "JPY", Type: Income},
		{Date: NewDate(2024, 4, 5), Amount: 300, Currency: "JPY", Type: Expense},
	}

	s := Aggregate(txs, nil, period, "JPY", nil)

	if len(s.DailyBalance) != 30 {
		t.Fatalf("daily balance has %d entries, want 30", len(s.DailyBalance))
	}
	for _, db := range s.DailyBalance {
		want := int64(1000)
		if db.Day >= 5 {
			want = 700
		}
		if db.Balance != want {
			t.Errorf("day %d balance = %d, want %d", db.Day, db.Balance, want)
		}
	}

	if s.TotalIncome != 1000 || s.TotalExpense != 300 || s.Balance != 700 {
		t.Errorf("totals = (%d, %d, %d), want (1000, 300, 700)",
			s.TotalIncome, s.TotalExpense, s.Balance)
	}
}

func TestAggregate_CategoryBuckets(t *testing.T) {
	names := map[string]string{
		"cat-rent": "Rent",
		"cat-sal":  "Salary",
	}
	txs := []Transaction{
		{Date: NewDate(2024, 4, 1), Amount: 250000, Currency: "JPY", Type: Income, CategoryID: catPtr("cat-sal")},
		{Date: NewDate(2024, 4, 2), Amount: 80000, Currency: "JPY", Type: Expense, CategoryID: catPtr("cat-rent")},
		{Date: NewDate(2024, 4, 3), Amount: 1200, Currency: "JPY", Type: Expense}, // no category
		{Date: NewDate(2024, 4, 4), Amount: 500, Currency: "JPY", Type: Expense, CategoryID: catPtr("gone")}, // dangling
	}

	s := Aggregate(txs, names, Period{Year: 2024, Month: 4}, "JPY", nil)

	if got := s.IncomeByCategory["Salary"]; got != 250000 {
		t.Errorf("Salary income = %d, want 250000", got)
	}
	if got := s.ExpenseByCategory["Rent"]; got != 80000 {
		t.Errorf("Rent expense = %d, want 80000", got)
	}
	if got := s.ExpenseByCategory[Uncategorized]; got != 1700 {
		t.Errorf("uncategorized expense = %d, want 1700", got)
	}
	if len(s.IncomeByCategory) != 1 {
		t.Errorf("income categories = %d, want 1", len(s.IncomeByCategory))
	}
}

func TestAggregate_CurrencyTabFiltering(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2024, 4, 1), Amount: 1000, Currency: "JPY", Type: Income},
		{Date: NewDate(2024, 4, 1), Amount: 10, Currency: "USD", Type: Income},
	}

	// JPY tab sees only the JPY row, raw
	s := Aggregate(txs, nil, Period{Year: 2024, Month: 4}, "JPY", nil)
	if s.TotalIncome != 1000 {
		t.Errorf("JPY tab income = %d, want 1000", s.TotalIncome)
	}

	// USD tab sees only the USD row, raw
	s = Aggregate(txs, nil, Period{Year: 2024, Month: 4}, "USD", nil)
	if s.TotalIncome != 10 {
		t.Errorf("USD tab income = %d, want 10", s.TotalIncome)
	}
}

func TestAggregate_AllBaseConverts(t *testing.T) {
	rates := RateTable{{
		BaseCurrency: BaseCurrency, TargetCurrency: "USD",
		Rate: 150, RateDate: NewDate(2024, 4, 1),
	}}
	txs := []Transaction{
		{Date: NewDate(2024, 4, 1), Amount: 1000, Currency: "JPY", Type: Income},
		{Date: NewDate(2024, 4, 1), Amount: 1500, Currency: "USD", Type: Income}, // 10 JPY at rate 150
		{Date: NewDate(2024, 4, 2), Amount: 300, Currency: "EUR", Type: Income},  // no rate, converts to 0
	}

	s := Aggregate(txs, nil, Period{Year: 2024, Month: 4}, AllBase, rates)
	if s.TotalIncome != 1010 {
		t.Errorf("ALL_JPY income = %d, want 1010", s.TotalIncome)
	}
}

func TestMonthlyTotals(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2024, 1, 10), Amount: 1000, Currency: "JPY", Type: Income},
		{Date: NewDate(2024, 1, 20), Amount: 400, Currency: "JPY", Type: Expense},
		{Date: NewDate(2024, 6, 5), Amount: 200, Currency: "JPY", Type: Expense},
	}

	totals := MonthlyTotals(txs, "JPY", nil)

	if len(totals) != 12 {
		t.Fatalf("totals has %d months, want 12", len(totals))
	}
	jan := totals[0]
	if jan.Income != 1000 || jan.Expense != 400 || jan.Balance != 600 {
		t.Errorf("January = %+v, want income 1000 expense 400 balance 600", jan)
	}
	jun := totals[5]
	if jun.Expense != 200 || jun.Balance != -200 {
		t.Errorf("June = %+v, want expense 200 balance -200", jun)
	}
	if totals[11].Income != 0 || totals[11].Expense != 0 {
		t.Errorf("December = %+v, want zeros", totals[11])
	}
}
