package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

// fakeLedger is an in-memory ApplyLedger with optional fault injection.
type fakeLedger struct {
	txs        []core.Transaction
	failInsert error
	failCheck  error
	// failAfter makes insert fail once n inserts have succeeded; -1 disables.
	failAfter int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{failAfter: -1}
}

func (f *fakeLedger) HasMatchingTransaction(_ context.Context, userID string, date core.Date, amount int64, categoryID *string) (bool, error) {
	if f.failCheck != nil {
		return false, f.failCheck
	}
	for _, t := range f.txs {
		if t.UserID != userID || !t.Date.Equal(date) || t.Amount != amount {
			continue
		}
		switch {
		case t.CategoryID == nil && categoryID == nil:
			return true, nil
		case t.CategoryID != nil && categoryID != nil && *t.CategoryID == *categoryID:
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) ListTransactionsByRange(_ context.Context, userID string, start, end core.Date) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txs {
		if t.UserID == userID && !t.Date.Before(start.Time) && !t.Date.After(end.Time) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.failInsert != nil {
		return core.Transaction{}, f.failInsert
	}
	if f.failAfter >= 0 && len(f.txs) >= f.failAfter {
		return core.Transaction{}, errors.New("storage fault")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	f.txs = append(f.txs, t)
	return t, nil
}

func (f *fakeLedger) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	for i, existing := range f.txs {
		if existing.ID == t.ID && existing.UserID == t.UserID {
			f.txs[i] = t
			return t, nil
		}
	}
	return core.Transaction{}, errors.New("not found")
}

func (f *fakeLedger) DeleteTransaction(_ context.Context, userID, id string) error {
	for i, t := range f.txs {
		if t.ID == id && t.UserID == userID {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeRules struct {
	rules []core.RecurringRule
	err   error
}

func (f *fakeRules) ListActiveRules(context.Context) ([]core.RecurringRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var active []core.RecurringRule
	for _, r := range f.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

type recordingNotifier struct {
	created []string
	err     error
}

func (n *recordingNotifier) TransactionCreated(_ context.Context, id string) error {
	if n.err != nil {
		return n.err
	}
	n.created = append(n.created, id)
	return nil
}

func (n *recordingNotifier) TransactionDeleted(context.Context, string) error { return nil }

// clockAt pins the applier's today to the given calendar date. Midnight UTC
// is 09:00 at the fixed offset, same calendar day.
func clockAt(year, month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
}

func TestRecurringApplier_WeeklyScenario(t *testing.T) {
	ruleA := core.RecurringRule{
		ID:        "rule-a",
		UserID:    "user-1",
		Type:      core.Expense,
		Amount:    2000,
		Currency:  "JPY",
		Cycle:     core.Weekly,
		DayOfWeek: intp(1), // Monday
		StartDate: core.NewDate(2024, 1, 1),
		IsActive:  true,
	}
	ledger := newFakeLedger()
	applier := NewRecurringApplier(&fakeRules{rules: []core.RecurringRule{ruleA}}, ledger, nil).
		WithClock(clockAt(2024, 3, 4)) // a Monday

	// First run inserts one transaction.
	result, err := applier.Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if !result.Success || result.Inserted != 1 {
		t.Errorf("first run = %+v, want success with 1 inserted", result)
	}
	if result.Date != "2024-03-04" {
		t.Errorf("run date = %s, want 2024-03-04", result.Date)
	}
	if len(ledger.txs) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(ledger.txs))
	}
	tx := ledger.txs[0]
	if tx.Amount != 2000 || tx.Currency != "JPY" || tx.Type != core.Expense || tx.Date.String() != "2024-03-04" {
		t.Errorf("inserted transaction = %+v", tx)
	}

	// Second run same day inserts nothing.
	result, err = applier.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !result.Success || result.Inserted != 0 {
		t.Errorf("second run = %+v, want success with 0 inserted", result)
	}
	if len(ledger.txs) != 1 {
		t.Errorf("ledger has %d rows after rerun, want 1", len(ledger.txs))
	}

	// Tuesday inserts nothing.
	applier.WithClock(clockAt(2024, 3, 5))
	result, err = applier.Run(context.Background())
	if err != nil {
		t.Fatalf("tuesday run failed: %v", err)
	}
	if result.Inserted != 0 || len(ledger.txs) != 1 {
		t.Errorf("tuesday run inserted %d, ledger %d rows; want 0 and 1", result.Inserted, len(ledger.txs))
	}
}

func TestRecurringApplier_IdempotentMonthly(t *testing.T) {
	rent := "cat-rent"
	rule := core.RecurringRule{
		ID:         "rule-rent",
		UserID:     "user-1",
		Type:       core.Expense,
		Amount:     5000,
		Currency:   "JPY",
		CategoryID: &rent,
		Cycle:      core.Monthly,
		DayOfMonth: intp(15),
		StartDate:  core.NewDate(2024, 1, 1),
		IsActive:   true,
	}
	ledger := newFakeLedger()
	applier := NewRecurringApplier(&fakeRules{rules: []core.RecurringRule{rule}}, ledger, nil).
		WithClock(clockAt(2024, 3, 15))

	for i := 0; i < 2; i++ {
		if _, err := applier.Run(context.Background()); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	if len(ledger.txs) != 1 {
		t.Errorf("ledger has %d rows after two runs, want 1", len(ledger.txs))
	}
}

func TestRecurringApplier_FailFastReportsPartialCount(t *testing.T) {
	// Distinct amounts keep the dedup check from collapsing them.
	mkRule := func(id string, amount int64) core.RecurringRule {
		return core.RecurringRule{
			ID:         id,
			UserID:     "user-1",
			Type:       core.Expense,
			Amount:     amount,
			Currency:   "JPY",
			Cycle:      core.Monthly,
			DayOfMonth: intp(15),
			StartDate:  core.NewDate(2024, 1, 1),
			IsActive:   true,
		}
	}
	rules := []core.RecurringRule{mkRule("r1", 1000), mkRule("r2", 2000), mkRule("r3", 3000)}

	ledger := newFakeLedger()
	ledger.failAfter = 2 // third insert faults

	applier := NewRecurringApplier(&fakeRules{rules: rules}, ledger, nil).
		WithClock(clockAt(2024, 3, 15))

	result, err := applier.Run(context.Background())
	if err == nil {
		t.Fatal("run should fail on the injected storage fault")
	}
	if result.Success {
		t.Error("result.Success should be false on failure")
	}
	if result.Inserted != 2 {
		t.Errorf("result.Inserted = %d, want 2 committed before the fault", result.Inserted)
	}
	if len(ledger.txs) != 2 {
		t.Errorf("ledger has %d rows, want the 2 committed ones", len(ledger.txs))
	}
}

func TestRecurringApplier_RuleListFault(t *testing.T) {
	applier := NewRecurringApplier(&fakeRules{err: errors.New("db down")}, newFakeLedger(), nil).
		WithClock(clockAt(2024, 3, 15))

	result, err := applier.Run(context.Background())
	if err == nil {
		t.Fatal("run should surface the rule listing fault")
	}
	if result.Success || result.Inserted != 0 {
		t.Errorf("result = %+v, want failure with 0 inserted", result)
	}
}

func TestRecurringApplier_DedupCheckFault(t *testing.T) {
	rule := core.RecurringRule{
		ID:         "rule-1",
		UserID:     "user-1",
		Type:       core.Expense,
		Amount:     1000,
		Currency:   "JPY",
		Cycle:      core.Monthly,
		DayOfMonth: intp(15),
		StartDate:  core.NewDate(2024, 1, 1),
		IsActive:   true,
	}
	ledger := newFakeLedger()
	ledger.failCheck = errors.New("read fault")

	applier := NewRecurringApplier(&fakeRules{rules: []core.RecurringRule{rule}}, ledger, nil).
		WithClock(clockAt(2024, 3, 15))

	if _, err := applier.Run(context.Background()); err == nil {
		t.Fatal("run should surface the dedup read fault")
	}
}

func TestRecurringApplier_PublishFailureDoesNotFailRun(t *testing.T) {
	rule := core.RecurringRule{
		ID:         "rule-1",
		UserID:     "user-1",
		Type:       core.Income,
		Amount:     250000,
		Currency:   "JPY",
		Cycle:      core.Monthly,
		DayOfMonth: intp(25),
		StartDate:  core.NewDate(2024, 1, 1),
		IsActive:   true,
	}
	ledger := newFakeLedger()
	notifier := &recordingNotifier{err: errors.New("broker down")}

	applier := NewRecurringApplier(&fakeRules{rules: []core.RecurringRule{rule}}, ledger, notifier).
		WithClock(clockAt(2024, 3, 25))

	result, err := applier.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !result.Success || result.Inserted != 1 {
		t.Errorf("result = %+v, want success with 1 inserted", result)
	}
}

func TestRecurringApplier_NotifiesPerInsert(t *testing.T) {
	rule := core.RecurringRule{
		ID:         "rule-1",
		UserID:     "user-1",
		Type:       core.Expense,
		Amount:     800,
		Currency:   "JPY",
		Cycle:      core.Monthly,
		DayOfMonth: intp(1),
		StartDate:  core.NewDate(2024, 1, 1),
		IsActive:   true,
	}
	ledger := newFakeLedger()
	notifier := &recordingNotifier{}

	applier := NewRecurringApplier(&fakeRules{rules: []core.RecurringRule{rule}}, ledger, notifier).
		WithClock(clockAt(2024, 3, 1))

	if _, err := applier.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(notifier.created) != 1 {
		t.Fatalf("notifier saw %d messages, want 1", len(notifier.created))
	}
	if notifier.created[0] != ledger.txs[0].ID {
		t.Errorf("notified id %s, want %s", notifier.created[0], ledger.txs[0].ID)
	}
}
