package http

import (
	"kakeibo/internal/core"
	"kakeibo/internal/services"
)

// Wire representations. The core types stay serialization-free; this layer
// owns the JSON shape.

type transactionDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Date       string  `json:"date"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	Type       string  `json:"type"`
	CategoryID *string `json:"category_id"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:         t.ID,
		UserID:     t.UserID,
		Date:       t.Date.String(),
		Amount:     t.Amount,
		Currency:   t.Currency,
		Type:       string(t.Type),
		CategoryID: t.CategoryID,
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	return out
}

type transactionRequest struct {
	Date       string  `json:"date"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	Type       string  `json:"type"`
	CategoryID *string `json:"category_id"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Type:      string(c.Type),
		SortOrder: c.SortOrder,
		IsActive:  c.IsActive,
	}
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ruleDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Type       string  `json:"type"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	CategoryID *string `json:"category_id"`
	Cycle      string  `json:"cycle"`
	DayOfMonth *int    `json:"day_of_month"`
	DayOfWeek  *int    `json:"day_of_week"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date"`
	IsActive   bool    `json:"is_active"`
}

func toRuleDTO(r core.RecurringRule) ruleDTO {
	dto := ruleDTO{
		ID:         r.ID,
		UserID:     r.UserID,
		Type:       string(r.Type),
		Amount:     r.Amount,
		Currency:   r.Currency,
		CategoryID: r.CategoryID,
		Cycle:      string(r.Cycle),
		DayOfMonth: r.DayOfMonth,
		DayOfWeek:  r.DayOfWeek,
		StartDate:  r.StartDate.String(),
		IsActive:   r.IsActive,
	}
	if !r.EndDate.IsEmpty() {
		end := r.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

type ruleRequest struct {
	Type       string  `json:"type"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	CategoryID *string `json:"category_id"`
	Cycle      string  `json:"cycle"`
	DayOfMonth *int    `json:"day_of_month"`
	DayOfWeek  *int    `json:"day_of_week"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date"`
	IsActive   *bool   `json:"is_active"`
}

type rateDTO struct {
	BaseCurrency   string  `json:"base_currency"`
	TargetCurrency string  `json:"target_currency"`
	Rate           float64 `json:"rate"`
	RateDate       string  `json:"rate_date"`
	Source         string  `json:"source"`
}

func toRateDTO(r core.ExchangeRate) rateDTO {
	return rateDTO{
		BaseCurrency:   r.BaseCurrency,
		TargetCurrency: r.TargetCurrency,
		Rate:           r.Rate,
		RateDate:       r.RateDate.String(),
		Source:         r.Source,
	}
}

type dayBalanceDTO struct {
	Day     int   `json:"day"`
	Balance int64 `json:"balance"`
}

type summaryDTO struct {
	TotalIncome       int64            `json:"total_income"`
	TotalExpense      int64            `json:"total_expense"`
	Balance           int64            `json:"balance"`
	IncomeByCategory  map[string]int64 `json:"income_by_category"`
	ExpenseByCategory map[string]int64 `json:"expense_by_category"`
	DailyBalance      []dayBalanceDTO  `json:"daily_balance"`
}

type monthlyReportDTO struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Currency   string     `json:"currency"`
	Summary    summaryDTO `json:"summary"`
	FxRateDate *string    `json:"fx_rate_date"`
}

func toMonthlyReportDTO(year, month int, rep services.MonthlyReport) monthlyReportDTO {
	daily := make([]dayBalanceDTO, 0, len(rep.Summary.DailyBalance))
	for _, d := range rep.Summary.DailyBalance {
		daily = append(daily, dayBalanceDTO{Day: d.Day, Balance: d.Balance})
	}
	dto := monthlyReportDTO{
		Year:     year,
		Month:    month,
		Currency: rep.Currency,
		Summary: summaryDTO{
			TotalIncome:       rep.Summary.TotalIncome,
			TotalExpense:      rep.Summary.TotalExpense,
			Balance:           rep.Summary.Balance,
			IncomeByCategory:  rep.Summary.IncomeByCategory,
			ExpenseByCategory: rep.Summary.ExpenseByCategory,
			DailyBalance:      daily,
		},
	}
	if rep.FxRateDate != nil {
		s := rep.FxRateDate.String()
		dto.FxRateDate = &s
	}
	return dto
}

type monthTotalDTO struct {
	Month   int   `json:"month"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

type yearlyReportDTO struct {
	Year       int                        `json:"year"`
	ByCurrency map[string][]monthTotalDTO `json:"by_currency"`
}

func toYearlyReportDTO(rep services.YearlyReport) yearlyReportDTO {
	dto := yearlyReportDTO{
		Year:       rep.Year,
		ByCurrency: make(map[string][]monthTotalDTO, len(rep.ByCurrency)),
	}
	for currency, totals := range rep.ByCurrency {
		months := make([]monthTotalDTO, 0, len(totals))
		for _, t := range totals {
			months = append(months, monthTotalDTO{
				Month:   t.Month,
				Income:  t.Income,
				Expense: t.Expense,
				Balance: t.Balance,
			})
		}
		dto.ByCurrency[currency] = months
	}
	return dto
}
