package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

// ErrDuplicateCategory is returned when an active category with the same
// name and type already exists for the owner.
var ErrDuplicateCategory = errors.New("category already exists")

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = ? AND name = ? AND type = ? AND is_active = 1`,
		c.UserID, c.Name, string(c.Type)).Scan(&count)
	if err != nil {
		return core.Category{}, fmt.Errorf("check duplicate category: %w", err)
	}
	if count > 0 {
		return core.Category{}, ErrDuplicateCategory
	}

	// New categories sort after everything the owner already has.
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = ?`, c.UserID).Scan(&count); err != nil {
		return core.Category{}, fmt.Errorf("count categories: %w", err)
	}
	c.SortOrder = int(count)

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, type, sort_order, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.SortOrder, boolInt(c.IsActive))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", c.ID, "user_id", c.UserID, "name", c.Name, "type", string(c.Type))
	return c, nil
}

func (r *SQLiteRepository) RenameCategory(ctx context.Context, userID, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateCategory soft-deletes: the category disappears from pickers but
// historic transactions keep resolving its name.
func (r *SQLiteRepository) DeactivateCategory(ctx context.Context, userID, id string) error {
	return r.setCategoryActive(ctx, userID, id, false)
}

func (r *SQLiteRepository) RestoreCategory(ctx context.Context, userID, id string) error {
	return r.setCategoryActive(ctx, userID, id, true)
}

func (r *SQLiteRepository) setCategoryActive(ctx context.Context, userID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET is_active = ? WHERE id = ? AND user_id = ?`,
		boolInt(active), id, userID)
	if err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error) {
	query := `SELECT id, user_id, name, type, sort_order, is_active
	          FROM categories WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c       core.Category
			catType string
			active  int
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &catType, &c.SortOrder, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(catType)
		c.IsActive = active != 0
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryNames resolves ids to names for one owner, inactive categories
// included so old ledger rows still display correctly.
func (r *SQLiteRepository) CategoryNames(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("load category names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) HasCategories(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	return count > 0, nil
}

// SeedCategories inserts the starter set atomically, so a half-seeded
// account can never be observed.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, userID string, categories []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range categories {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, type, sort_order, is_active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, userID, c.Name, string(c.Type), c.SortOrder, boolInt(c.IsActive)); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
