package services

import "kakeibo/internal/core"

// IsDue decides whether a rule has an occurrence on the candidate date.
//
// Monthly rules match on literal day-of-month equality: a rule for day 31
// simply never fires in a 30-day month, it does not roll to month-end.
// Weekly rules match on weekday with 0=Sunday through 6=Saturday.
//
// The active check is redundant with the active-only rule query but stays as
// defense in depth should that filter ever be relaxed.
func IsDue(r core.RecurringRule, date core.Date) bool {
	if !r.IsActive {
		return false
	}
	if date.Before(r.StartDate.Time) {
		return false
	}
	if !r.EndDate.IsEmpty() && date.After(r.EndDate.Time) {
		return false
	}

	switch r.Cycle {
	case core.Monthly:
		return r.DayOfMonth != nil && date.Day() == *r.DayOfMonth
	case core.Weekly:
		return r.DayOfWeek != nil && date.Weekday() == *r.DayOfWeek
	}
	return false
}
