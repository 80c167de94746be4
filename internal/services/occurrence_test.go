package services

import (
	"testing"

	"kakeibo/internal/core"
)

func intp(i int) *int { return &i }

func monthlyRule(day int) core.RecurringRule {
	return core.RecurringRule{
		ID:         "rule-m",
		UserID:     "user-1",
		Type:       core.Expense,
		Amount:     5000,
		Currency:   "JPY",
		Cycle:      core.Monthly,
		DayOfMonth: intp(day),
		StartDate:  core.NewDate(2024, 1, 1),
		IsActive:   true,
	}
}

func weeklyRule(weekday int) core.RecurringRule {
	return core.RecurringRule{
		ID:        "rule-w",
		UserID:    "user-1",
		Type:      core.Expense,
		Amount:    2000,
		Currency:  "JPY",
		Cycle:     core.Weekly,
		DayOfWeek: intp(weekday),
		StartDate: core.NewDate(2024, 1, 1),
		IsActive:  true,
	}
}

func TestIsDue_MonthlyDay31SkipsShortMonths(t *testing.T) {
	rule := monthlyRule(31)

	// Months without a 31st never fire, on any day.
	for _, month := range []int{2, 4, 6, 9, 11} {
		for day := 1; day <= core.DaysInMonth(2024, month); day++ {
			if IsDue(rule, core.NewDate(2024, month, day)) {
				t.Errorf("day-31 rule fired on 2024-%02d-%02d", month, day)
			}
		}
	}

	// Months with a 31st fire exactly once.
	for _, month := range []int{1, 3, 5, 7, 8, 10, 12} {
		for day := 1; day <= 31; day++ {
			got := IsDue(rule, core.NewDate(2024, month, day))
			want := day == 31
			if got != want {
				t.Errorf("IsDue(day-31 rule, 2024-%02d-%02d) = %v, want %v", month, day, got, want)
			}
		}
	}
}

func TestIsDue_MonthlyLiteralDayMatch(t *testing.T) {
	rule := monthlyRule(15)

	if !IsDue(rule, core.NewDate(2024, 2, 15)) {
		t.Error("day-15 rule should fire on Feb 15")
	}
	if IsDue(rule, core.NewDate(2024, 2, 14)) || IsDue(rule, core.NewDate(2024, 2, 16)) {
		t.Error("day-15 rule must only fire on the 15th")
	}
}

func TestIsDue_WeeklyEveryWeekdayFullYear(t *testing.T) {
	for weekday := 0; weekday <= 6; weekday++ {
		rule := weeklyRule(weekday)
		date := core.NewDate(2024, 1, 1)
		for date.Year() == 2024 {
			got := IsDue(rule, date)
			want := date.Weekday() == weekday
			if got != want {
				t.Fatalf("IsDue(weekday %d, %s) = %v, want %v", weekday, date.String(), got, want)
			}
			date = date.AddDays(1)
		}
	}
}

func TestIsDue_WindowBounds(t *testing.T) {
	rule := weeklyRule(1) // Mondays
	rule.StartDate = core.NewDate(2024, 3, 1)
	rule.EndDate = core.NewDate(2024, 3, 31)

	tests := []struct {
		name string
		date core.Date
		want bool
	}{
		{"Monday before start", core.NewDate(2024, 2, 26), false},
		{"start boundary is inclusive, not a Monday", core.NewDate(2024, 3, 1), false},
		{"first Monday inside window", core.NewDate(2024, 3, 4), true},
		{"last Monday inside window", core.NewDate(2024, 3, 25), true},
		{"Monday after end", core.NewDate(2024, 4, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(rule, tt.date); got != tt.want {
				t.Errorf("IsDue(%s) = %v, want %v", tt.date.String(), got, tt.want)
			}
		})
	}
}

func TestIsDue_EndDateInclusive(t *testing.T) {
	rule := monthlyRule(15)
	rule.EndDate = core.NewDate(2024, 3, 15)

	if !IsDue(rule, core.NewDate(2024, 3, 15)) {
		t.Error("rule should fire on its inclusive end date")
	}
	if IsDue(rule, core.NewDate(2024, 4, 15)) {
		t.Error("rule must not fire after its end date")
	}
}

func TestIsDue_InactiveNeverFires(t *testing.T) {
	rule := monthlyRule(15)
	rule.IsActive = false

	if IsDue(rule, core.NewDate(2024, 3, 15)) {
		t.Error("inactive rule must never fire")
	}
}

func TestIsDue_MissingScheduleParameter(t *testing.T) {
	rule := monthlyRule(15)
	rule.DayOfMonth = nil
	if IsDue(rule, core.NewDate(2024, 3, 15)) {
		t.Error("monthly rule without day_of_month must not fire")
	}

	w := weeklyRule(1)
	w.DayOfWeek = nil
	if IsDue(w, core.NewDate(2024, 3, 4)) {
		t.Error("weekly rule without day_of_week must not fire")
	}
}
