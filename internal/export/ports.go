// Package export defines the outbound ledger-mirror ports. The export
// destination receives a copy of every ledger row; it is never read back.
package export

import (
	"context"

	"kakeibo/internal/core"
)

// Row is one exported ledger entry with its category already resolved to a
// display name.
type Row struct {
	Transaction  core.Transaction
	CategoryName string
}

// Writer appends exported rows to the destination.
type Writer interface {
	Append(ctx context.Context, row Row) error
}

// Remover deletes previously exported rows, matched by transaction id.
type Remover interface {
	Remove(ctx context.Context, transactionID string) error
}
