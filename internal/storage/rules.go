package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions
		 (id, user_id, type, amount, currency, category_id, cycle, day_of_month, day_of_week, start_date, end_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.UserID, string(rule.Type), rule.Amount, rule.Currency,
		nullString(rule.CategoryID), string(rule.Cycle),
		nullInt(rule.DayOfMonth), nullInt(rule.DayOfWeek),
		rule.StartDate.String(), nullDate(rule.EndDate), boolInt(rule.IsActive),
	)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("insert recurring rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule created",
		"id", rule.ID,
		"user_id", rule.UserID,
		"cycle", string(rule.Cycle),
		"amount", rule.Amount)

	return rule, nil
}

// UpdateRule replaces the full payload, including overwriting the schedule
// parameter that no longer applies with NULL.
func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET type = ?, amount = ?, currency = ?, category_id = ?, cycle = ?,
		     day_of_month = ?, day_of_week = ?, start_date = ?, end_date = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		string(rule.Type), rule.Amount, rule.Currency, nullString(rule.CategoryID),
		string(rule.Cycle), nullInt(rule.DayOfMonth), nullInt(rule.DayOfWeek),
		rule.StartDate.String(), nullDate(rule.EndDate), boolInt(rule.IsActive),
		rule.ID, rule.UserID,
	)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("update recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.RecurringRule{}, sql.ErrNoRows
	}
	return r.GetRule(ctx, rule.UserID, rule.ID)
}

// DeleteRule removes a rule permanently. Rules are hard-deleted, unlike
// categories.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteRepository) SetRuleActive(ctx context.Context, userID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = ? WHERE id = ? AND user_id = ?`,
		boolInt(active), id, userID)
	if err != nil {
		return fmt.Errorf("toggle recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, userID, id string) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, amount, currency, category_id, cycle,
		        day_of_month, day_of_week, start_date, end_date, is_active
		 FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanRule(row)
}

func (r *SQLiteRepository) ListRulesByUser(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, currency, category_id, cycle,
		        day_of_month, day_of_week, start_date, end_date, is_active
		 FROM recurring_transactions
		 WHERE user_id = ?
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListActiveRules returns every active rule across all owners, for the
// application job.
func (r *SQLiteRepository) ListActiveRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, currency, category_id, cycle,
		        day_of_month, day_of_week, start_date, end_date, is_active
		 FROM recurring_transactions
		 WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list active recurring rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]core.RecurringRule, error) {
	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(row rowScanner) (core.RecurringRule, error) {
	var (
		rule       core.RecurringRule
		ruleType   string
		cycle      string
		category   sql.NullString
		dayOfMonth sql.NullInt64
		dayOfWeek  sql.NullInt64
		startStr   string
		endStr     sql.NullString
		active     int
	)
	if err := row.Scan(&rule.ID, &rule.UserID, &ruleType, &rule.Amount, &rule.Currency,
		&category, &cycle, &dayOfMonth, &dayOfWeek, &startStr, &endStr, &active); err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan recurring rule: %w", err)
	}

	start, err := core.ParseDate(startStr)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse rule start date %q: %w", startStr, err)
	}
	rule.StartDate = start

	if endStr.Valid {
		end, err := core.ParseDate(endStr.String)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse rule end date %q: %w", endStr.String, err)
		}
		rule.EndDate = end
	}

	rule.Type = core.TransactionType(ruleType)
	rule.Cycle = core.Cycle(cycle)
	rule.CategoryID = stringPtr(category)
	rule.DayOfMonth = intPtr(dayOfMonth)
	rule.DayOfWeek = intPtr(dayOfWeek)
	rule.IsActive = active != 0
	return rule, nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
