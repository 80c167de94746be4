package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// ApplyLedger is the slice of the ledger the application job needs.
type ApplyLedger interface {
	LedgerReader
	LedgerWriter
}

// ApplyResult is the job's report back to the invoking scheduler.
type ApplyResult struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted"`
	Date     string `json:"date"`
}

// RecurringApplier materializes due recurring rules into ledger transactions,
// once per rule per occurrence. It is intended to run once daily; re-running
// on the same day inserts nothing because of the duplicate check. Two
// invocations racing on the same day can still both pass that check, which
// is accepted rather than guarded.
type RecurringApplier struct {
	rules    RuleReader
	ledger   ApplyLedger
	notifier ExportNotifier
	now      func() time.Time
}

func NewRecurringApplier(rules RuleReader, ledger ApplyLedger, notifier ExportNotifier) *RecurringApplier {
	return &RecurringApplier{
		rules:    rules,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (a *RecurringApplier) WithClock(now func() time.Time) *RecurringApplier {
	a.now = now
	return a
}

// Run processes every active rule against today's date. Rules run
// sequentially and independently; the first storage fault aborts the run,
// reporting the insertions already committed. A skipped day is not
// backfilled: the matcher only ever sees today.
func (a *RecurringApplier) Run(ctx context.Context) (ApplyResult, error) {
	today := core.Today(a.now())
	result := ApplyResult{Date: today.String()}

	rules, err := a.rules.ListActiveRules(ctx)
	if err != nil {
		return result, fmt.Errorf("list active rules: %w", err)
	}

	slog.InfoContext(ctx, "Applying recurring rules",
		log.FieldComponent, log.ComponentRecurring,
		"total_active", len(rules),
		log.FieldDate, today.String())

	for _, rule := range rules {
		if !IsDue(rule, today) {
			continue
		}

		exists, err := a.ledger.HasMatchingTransaction(ctx, rule.UserID, today, rule.Amount, rule.CategoryID)
		if err != nil {
			return result, fmt.Errorf("check existing transaction for rule %s: %w", rule.ID, err)
		}
		if exists {
			slog.InfoContext(ctx, "Rule already applied today, skipping",
				log.FieldRuleID, rule.ID,
				log.FieldDate, today.String())
			continue
		}

		inserted, err := a.ledger.InsertTransaction(ctx, core.Transaction{
			UserID:     rule.UserID,
			Date:       today,
			Amount:     rule.Amount,
			Currency:   rule.Currency,
			Type:       rule.Type,
			CategoryID: rule.CategoryID,
		})
		if err != nil {
			return result, fmt.Errorf("insert transaction for rule %s: %w", rule.ID, err)
		}
		result.Inserted++

		if a.notifier != nil {
			if err := a.notifier.TransactionCreated(ctx, inserted.ID); err != nil {
				// Export is best-effort; the ledger row is committed.
				slog.ErrorContext(ctx, "Failed to publish export message",
					log.FieldTxID, inserted.ID,
					log.FieldError, err)
			}
		}

		slog.InfoContext(ctx, "Applied recurring rule",
			log.FieldRuleID, rule.ID,
			log.FieldTxID, inserted.ID,
			log.FieldAmount, rule.Amount,
			log.FieldCurrency, rule.Currency,
			"cycle", string(rule.Cycle))
	}

	result.Success = true
	slog.InfoContext(ctx, "Recurring application complete",
		log.FieldInserted, result.Inserted,
		"total_checked", len(rules),
		log.FieldDate, today.String())

	return result, nil
}
