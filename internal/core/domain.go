package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Monthly Cycle = "monthly"
	Weekly  Cycle = "weekly"
)

// BaseCurrency is the currency every report converts into. Stored rates are
// target-units per one base unit, so converting back to base divides.
const BaseCurrency = "JPY"

// AllBase is the pseudo currency tab meaning "everything converted to JPY".
const AllBase = "ALL_JPY"

// Uncategorized is the aggregation key for transactions without a category
// or with a dangling category reference.
const Uncategorized = "uncategorized"

// Currencies lists the supported currency codes, base currency first.
var Currencies = []string{"JPY", "USD", "AUD", "EUR", "GBP", "CAD", "NZD", "PHP"}

type (
	TransactionType string
	Cycle           string

	// Date is a calendar day with no time component.
	Date struct {
		time.Time
	}

	// Transaction is a single ledger entry. Amount is a positive integer in
	// the currency's native unit; minor-unit handling is out of scope.
	Transaction struct {
		ID         string
		UserID     string
		Date       Date
		Amount     int64
		Currency   string
		Type       TransactionType
		CategoryID *string
	}

	// RecurringRule describes a schedule that materializes transactions.
	// Exactly one of DayOfMonth/DayOfWeek is set, depending on Cycle.
	RecurringRule struct {
		ID         string
		UserID     string
		Type       TransactionType
		Amount     int64
		Currency   string
		CategoryID *string
		Cycle      Cycle
		DayOfMonth *int
		DayOfWeek  *int
		StartDate  Date
		EndDate    Date // zero value means open-ended
		IsActive   bool
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Type      TransactionType
		SortOrder int
		IsActive  bool
	}

	// ExchangeRate is one observed rate for (TargetCurrency, RateDate).
	ExchangeRate struct {
		ID             string
		BaseCurrency   string
		TargetCurrency string
		Rate           float64
		RateDate       Date
		Source         string
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidCurrency  = errors.New("unknown currency")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidCycle     = errors.New("invalid cycle")
	ErrInvalidSchedule  = errors.New("schedule parameter out of range")
	ErrMissingSchedule  = errors.New("missing schedule parameter for cycle")
	ErrInvalidDateRange = errors.New("end date before start date")
	ErrEmptyName        = errors.New("empty name")
)

// KnownCurrency reports whether code is one of the supported currencies.
func KnownCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c Cycle) Valid() bool {
	return c == Monthly || c == Weekly
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !KnownCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Normalize clears the schedule parameter that does not belong to the rule's
// cycle. Editing replaces the full payload, so switching cycle must not leave
// the old parameter behind.
func (r *RecurringRule) Normalize() {
	switch r.Cycle {
	case Monthly:
		r.DayOfWeek = nil
	case Weekly:
		r.DayOfMonth = nil
	}
}

func (r RecurringRule) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !KnownCurrency(r.Currency) {
		return ErrInvalidCurrency
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if !r.Cycle.Valid() {
		return ErrInvalidCycle
	}
	switch r.Cycle {
	case Monthly:
		if r.DayOfMonth == nil {
			return ErrMissingSchedule
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return ErrInvalidSchedule
		}
		if r.DayOfWeek != nil {
			return errors.New("day_of_week must be unset for monthly cycle")
		}
	case Weekly:
		if r.DayOfWeek == nil {
			return ErrMissingSchedule
		}
		if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return ErrInvalidSchedule
		}
		if r.DayOfMonth != nil {
			return errors.New("day_of_month must be unset for weekly cycle")
		}
	}
	if r.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return ErrInvalidDateRange
	}
	return nil
}
