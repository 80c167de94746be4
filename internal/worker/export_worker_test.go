package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
	"kakeibo/internal/export/memory"
	"kakeibo/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertTx(t *testing.T, repo *storage.SQLiteRepository) core.Transaction {
	t.Helper()
	tx, err := repo.InsertTransaction(context.Background(), core.Transaction{
		UserID:   "user-1",
		Date:     core.NewDate(2024, 3, 15),
		Amount:   1200,
		Currency: "JPY",
		Type:     core.Expense,
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

func TestExportWorker_UpsertMessage(t *testing.T) {
	repo := newTestRepo(t)
	dest := memory.New()
	w := NewExportWorker(repo, dest, dest, 10)
	ctx := context.Background()

	tx := insertTx(t, repo)

	msg := amqp.NewLedgerSyncMessage(tx.ID, amqp.ActionUpsert)
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("handle upsert: %v", err)
	}

	rows := dest.Rows()
	if len(rows) != 1 || rows[0].Transaction.ID != tx.ID {
		t.Fatalf("exported rows = %+v", rows)
	}

	// The row is no longer pending.
	pending, err := repo.ListPendingExportTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after export", len(pending))
	}
}

func TestExportWorker_UpsertForMissingRowSkips(t *testing.T) {
	repo := newTestRepo(t)
	dest := memory.New()
	w := NewExportWorker(repo, dest, dest, 10)

	msg := amqp.NewLedgerSyncMessage("never-existed", amqp.ActionUpsert)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Errorf("missing row should be skipped, got %v", err)
	}
	if len(dest.Rows()) != 0 {
		t.Error("nothing should be exported for a missing row")
	}
}

func TestExportWorker_DeleteMessage(t *testing.T) {
	repo := newTestRepo(t)
	dest := memory.New()
	w := NewExportWorker(repo, dest, dest, 10)
	ctx := context.Background()

	tx := insertTx(t, repo)
	if err := w.HandleMessage(ctx, amqp.NewLedgerSyncMessage(tx.ID, amqp.ActionUpsert)); err != nil {
		t.Fatalf("handle upsert: %v", err)
	}

	if err := w.HandleMessage(ctx, amqp.NewLedgerSyncMessage(tx.ID, amqp.ActionDelete)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if len(dest.Rows()) != 0 {
		t.Errorf("rows after delete = %d, want 0", len(dest.Rows()))
	}
}

func TestExportWorker_UnknownActionDropped(t *testing.T) {
	w := NewExportWorker(newTestRepo(t), memory.New(), nil, 10)

	msg := amqp.NewLedgerSyncMessage("tx-1", "rename")
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Errorf("unknown action should be dropped without error, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, export.Row) error {
	return errors.New("sheet unavailable")
}

func TestExportWorker_WriteFailureMarksError(t *testing.T) {
	repo := newTestRepo(t)
	w := NewExportWorker(repo, failingWriter{}, nil, 10)
	ctx := context.Background()

	tx := insertTx(t, repo)

	if err := w.HandleMessage(ctx, amqp.NewLedgerSyncMessage(tx.ID, amqp.ActionUpsert)); err == nil {
		t.Fatal("write failure should surface so the message is nacked")
	}

	// Errored rows leave the pending set; the sweep does not thrash on them.
	pending, err := repo.ListPendingExportTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after error mark", len(pending))
	}
}

func TestExportWorker_ProcessPending(t *testing.T) {
	repo := newTestRepo(t)
	dest := memory.New()
	w := NewExportWorker(repo, dest, dest, 10)
	ctx := context.Background()

	insertTx(t, repo)
	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		UserID:   "user-1",
		Date:     core.NewDate(2024, 3, 16),
		Amount:   800,
		Currency: "JPY",
		Type:     core.Income,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}

	if len(dest.Rows()) != 2 {
		t.Fatalf("exported %d rows, want 2", len(dest.Rows()))
	}
	pending, _ := repo.ListPendingExportTransactions(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after sweep", len(pending))
	}
}
