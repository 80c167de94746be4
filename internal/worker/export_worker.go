package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/export"
	"kakeibo/internal/storage"
)

// ExportWorker mirrors ledger rows to the export destination. Messages carry
// only the transaction id; the worker re-reads the row from storage.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.Writer
	remover   export.Remover
	batchSize int
}

func NewExportWorker(repo *storage.SQLiteRepository, writer export.Writer, remover export.Remover, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   repo,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleMessage processes one ledger sync message from the queue.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	switch msg.Action {
	case amqp.ActionUpsert:
		return w.exportTransaction(ctx, msg.TransactionID)
	case amqp.ActionDelete:
		return w.removeTransaction(ctx, msg.TransactionID)
	default:
		slog.WarnContext(ctx, "Unknown ledger sync action, dropping",
			"action", msg.Action,
			"transaction_id", msg.TransactionID)
		return nil
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id string) error {
	t, err := w.storage.GetTransactionByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		// Deleted before the message was consumed; nothing to mirror.
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	categoryName := ""
	if t.CategoryID != nil {
		names, err := w.storage.CategoryNames(ctx, t.UserID)
		if err != nil {
			return fmt.Errorf("load category names: %w", err)
		}
		categoryName = names[*t.CategoryID]
	}

	if err := w.writer.Append(ctx, export.Row{Transaction: t, CategoryName: categoryName}); err != nil {
		if markErr := w.storage.MarkTransactionSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	if err := w.storage.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (w *ExportWorker) removeTransaction(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping export removal", "id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove exported transaction: %w", err)
	}
	return nil
}

// ProcessPending sweeps rows whose export message was lost, re-exporting up
// to batchSize of them. Runs on a timer alongside queue consumption.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExportTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Pending export failed", "id", p.ID, "error", err)
		}
	}
	return nil
}
