package services

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for the storage and messaging collaborators. The SQLite repository
// satisfies all of them; tests substitute in-memory fakes.
type (
	RuleReader interface {
		// ListActiveRules returns every rule with is_active = true, all
		// owners included. Inactive rules are filtered at the query level;
		// the matcher re-checks the flag anyway.
		ListActiveRules(ctx context.Context) ([]core.RecurringRule, error)
	}

	LedgerReader interface {
		// HasMatchingTransaction reports whether a transaction with the
		// given natural key already exists.
		HasMatchingTransaction(ctx context.Context, userID string, date core.Date, amount int64, categoryID *string) (bool, error)
		ListTransactionsByRange(ctx context.Context, userID string, start, end core.Date) ([]core.Transaction, error)
	}

	LedgerWriter interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	RateReader interface {
		ListRatesByRange(ctx context.Context, start, end core.Date) ([]core.ExchangeRate, error)
	}

	CategoryReader interface {
		// CategoryNames maps category id to display name for one owner,
		// active and inactive alike so historic references still resolve.
		CategoryNames(ctx context.Context, userID string) (map[string]string, error)
	}

	// ExportNotifier publishes a message for each ledger insert so the
	// export worker can mirror it. A nil notifier disables export.
	ExportNotifier interface {
		TransactionCreated(ctx context.Context, id string) error
		TransactionDeleted(ctx context.Context, id string) error
	}
)
