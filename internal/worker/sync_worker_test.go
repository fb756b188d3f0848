package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmledger/internal/amqp"
	"farmledger/internal/core"
	"farmledger/internal/ledger"
	sheetsmem "farmledger/internal/sheets/memory"
	"farmledger/internal/storage/memory"
)

func seed(t *testing.T) (*memory.Store, core.Expense) {
	t.Helper()
	store := memory.New()
	e := core.Expense{
		ID: "e1", OwnerID: "alice", Category: core.Seeds, Item: "Maize",
		Amount: core.Money{Cents: 4200}, Date: core.NewDate(2025, 6, 1), CreatedAt: time.Now(),
	}
	if err := store.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, e
}

func msg(typ ledger.EventType, expenseID string) *amqp.LedgerEventMessage {
	return amqp.NewLedgerEventMessage(ledger.Event{Type: typ, OwnerID: "alice", ExpenseID: expenseID})
}

func TestHandleExpenseEvents(t *testing.T) {
	ctx := context.Background()
	store, e := seed(t)
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror)

	if err := w.HandleMessage(ctx, msg(ledger.ExpenseCreated, e.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	if got, ok := mirror.Expense(e.ID); !ok || got.Item != "Maize" {
		t.Fatalf("expense not mirrored: %+v", got)
	}

	_, _ = store.UpdateExpense(ctx, "alice", e.ID, func(cur core.Expense) (core.Expense, error) {
		cur.Item = "Hybrid maize"
		return cur, nil
	})
	if err := w.HandleMessage(ctx, msg(ledger.ExpenseUpdated, e.ID)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if got, _ := mirror.Expense(e.ID); got.Item != "Hybrid maize" {
		t.Fatalf("mirror not updated: %+v", got)
	}

	if err := w.HandleMessage(ctx, msg(ledger.ExpenseDeleted, e.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if _, ok := mirror.Expense(e.ID); ok {
		t.Fatal("expense still mirrored after delete")
	}
}

func TestHandleStaleCreateRemovesRow(t *testing.T) {
	ctx := context.Background()
	store, e := seed(t)
	mirror := sheetsmem.New()
	_ = mirror.UpsertExpense(ctx, e)
	_ = store.DeleteExpense(ctx, "alice", e.ID)

	if err := NewSyncWorker(store, mirror).HandleMessage(ctx, msg(ledger.ExpenseUpdated, e.ID)); err != nil {
		t.Fatalf("stale update should not fail: %v", err)
	}
	if _, ok := mirror.Expense(e.ID); ok {
		t.Fatal("stale row kept in mirror")
	}
}

func TestHandleIncome(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror)

	if err := w.HandleMessage(ctx, msg(ledger.IncomeSaved, "")); err != nil {
		t.Fatalf("income: %v", err)
	}
	if inc, ok := mirror.Income("alice"); !ok || inc.Total().Cents != 0 {
		t.Fatalf("expected zero income row, got %+v (ok=%v)", inc, ok)
	}

	_, _ = store.UpsertIncome(ctx, core.Income{OwnerID: "alice", CropSales: core.Money{Cents: 900}})
	_ = w.HandleMessage(ctx, msg(ledger.IncomeSaved, ""))
	if inc, _ := mirror.Income("alice"); inc.CropSales.Cents != 900 {
		t.Fatalf("income row not refreshed: %+v", inc)
	}
}

type failingSource struct{}

func (failingSource) GetExpense(context.Context, string, string) (core.Expense, error) {
	return core.Expense{}, &core.PersistenceError{Op: "get expense", Err: errors.New("disk I/O error")}
}

func (failingSource) GetIncome(context.Context, string) (core.Income, bool, error) {
	return core.Income{}, false, errors.New("disk I/O error")
}

func TestHandleStoreErrorsAreReturned(t *testing.T) {
	w := NewSyncWorker(failingSource{}, sheetsmem.New())
	if err := w.HandleMessage(context.Background(), msg(ledger.ExpenseCreated, "e1")); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
	if err := w.HandleMessage(context.Background(), msg(ledger.IncomeSaved, "")); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
	if err := w.HandleMessage(context.Background(), &amqp.LedgerEventMessage{Type: "bogus", OwnerID: "alice"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
