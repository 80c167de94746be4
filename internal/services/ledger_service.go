package services

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/core"
)

// LedgerService orchestrates direct transaction writes: validate, persist,
// then publish an export message. Publishing is best-effort; a failed
// publish never fails the request since the row is already committed.
type LedgerService struct {
	ledger   ApplyLedger
	notifier ExportNotifier
}

func NewLedgerService(ledger ApplyLedger, notifier ExportNotifier) *LedgerService {
	return &LedgerService{ledger: ledger, notifier: notifier}
}

func (s *LedgerService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	inserted, err := s.ledger.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionCreated(ctx, inserted.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export message",
				"transaction_id", inserted.ID,
				"error", err)
		}
	}

	return inserted, nil
}

func (s *LedgerService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	updated, err := s.ledger.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionCreated(ctx, updated.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export message",
				"transaction_id", updated.ID,
				"error", err)
		}
	}

	return updated, nil
}

func (s *LedgerService) Delete(ctx context.Context, userID, id string) error {
	if err := s.ledger.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"transaction_id", id,
				"error", err)
		}
	}

	return nil
}

func (s *LedgerService) ListMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	txs, err := s.ledger.ListTransactionsByRange(ctx, userID, core.MonthStart(year, month), core.MonthEnd(year, month))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
