package services

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/core"
)

// AccountStore is the storage slice needed to bootstrap a new account.
type AccountStore interface {
	HasCategories(ctx context.Context, userID string) (bool, error)
	// SeedCategories inserts all rows in one transaction.
	SeedCategories(ctx context.Context, userID string, categories []core.Category) error
}

// defaultCategories is the starter set every new account receives.
var defaultCategories = []struct {
	Name string
	Type core.TransactionType
}{
	{"Salary", core.Income},
	{"Other income", core.Income},
	{"Food", core.Expense},
	{"Rent", core.Expense},
	{"Utilities", core.Expense},
	{"Transport", core.Expense},
	{"Entertainment", core.Expense},
	{"Other", core.Expense},
}

// AccountService seeds default categories as an explicit account-creation
// step. Seeding used to happen lazily on first read, which raced on
// concurrent first loads; doing it once at signup, transactionally, removes
// that window.
type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store}
}

// Bootstrap seeds the default categories for a new account. It is a no-op
// for an account that already has any category.
func (s *AccountService) Bootstrap(ctx context.Context, userID string) error {
	has, err := s.store.HasCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("check existing categories: %w", err)
	}
	if has {
		slog.InfoContext(ctx, "Account already has categories, skipping seed", "user_id", userID)
		return nil
	}

	seed := make([]core.Category, 0, len(defaultCategories))
	for i, d := range defaultCategories {
		seed = append(seed, core.Category{
			UserID:    userID,
			Name:      d.Name,
			Type:      d.Type,
			SortOrder: i,
			IsActive:  true,
		})
	}

	if err := s.store.SeedCategories(ctx, userID, seed); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	slog.InfoContext(ctx, "Seeded default categories", "user_id", userID, "count", len(seed))
	return nil
}
