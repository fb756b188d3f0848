package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"farmledger/internal/amqp"
	"farmledger/internal/core"
	"farmledger/internal/ledger"
	"farmledger/internal/sheets"
	"farmledger/internal/storage"
)

// Source is the record store the worker reads current state from.
type Source interface {
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	GetIncome(ctx context.Context, ownerID string) (core.Income, bool, error)
}

var _ Source = (storage.Repository)(nil)

// SyncWorker copies ledger changes announced over AMQP into the mirror.
// Messages carry ids only, so every delivery re-reads the store and the
// mirror converges on the latest state regardless of delivery order.
type SyncWorker struct {
	source Source
	mirror sheets.LedgerMirror
}

func NewSyncWorker(source Source, mirror sheets.LedgerMirror) *SyncWorker {
	return &SyncWorker{source: source, mirror: mirror}
}

// HandleMessage processes a single ledger event from AMQP.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	ev := msg.Event()
	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"owner_id", ev.OwnerID,
		"expense_id", ev.ExpenseID,
		"published_at", ev.Timestamp)

	switch ev.Type {
	case ledger.ExpenseCreated, ledger.ExpenseUpdated:
		return w.syncExpense(ctx, ev.OwnerID, ev.ExpenseID)
	case ledger.ExpenseDeleted:
		if err := w.mirror.DeleteExpense(ctx, ev.ExpenseID); err != nil {
			return fmt.Errorf("delete mirrored expense: %w", err)
		}
		return nil
	case ledger.IncomeSaved:
		return w.syncIncome(ctx, ev.OwnerID)
	default:
		return fmt.Errorf("unknown message type %q", ev.Type)
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, owner, id string) error {
	e, err := w.source.GetExpense(ctx, owner, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		slog.InfoContext(ctx, "Expense no longer exists, removing from mirror", "expense_id", id)
		if err := w.mirror.DeleteExpense(ctx, id); err != nil {
			return fmt.Errorf("delete mirrored expense: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.mirror.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("mirror expense: %w", err)
	}
	slog.InfoContext(ctx, "Successfully synced expense",
		"expense_id", id,
		"amount_cents", e.Amount.Cents)
	return nil
}

func (w *SyncWorker) syncIncome(ctx context.Context, owner string) error {
	inc, _, err := w.source.GetIncome(ctx, owner)
	if err != nil {
		return fmt.Errorf("get income from storage: %w", err)
	}
	inc.OwnerID = owner
	if err := w.mirror.UpsertIncome(ctx, inc); err != nil {
		return fmt.Errorf("mirror income: %w", err)
	}
	return nil
}
