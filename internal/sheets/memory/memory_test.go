package memory

import (
	"context"
	"testing"

	"farmledger/internal/core"
)

func TestMirrorUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	m := New()

	e := core.Expense{ID: "b", OwnerID: "alice", Item: "Urea", Amount: core.Money{Cents: 100}}
	if err := m.UpsertExpense(ctx, e); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}
	e.Item = "DAP"
	_ = m.UpsertExpense(ctx, e)
	_ = m.UpsertExpense(ctx, core.Expense{ID: "a", OwnerID: "alice"})

	if got, ok := m.Expense("b"); !ok || got.Item != "DAP" {
		t.Fatalf("expected updated row, got %+v (ok=%v)", got, ok)
	}
	if ids := m.ExpenseIDs(); len(ids) != 2 || ids[0] != "a" {
		t.Fatalf("unexpected ids %v", ids)
	}

	if err := m.DeleteExpense(ctx, "b"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := m.DeleteExpense(ctx, "b"); err != nil {
		t.Fatalf("deleting a missing row must succeed: %v", err)
	}
	if _, ok := m.Expense("b"); ok {
		t.Fatal("row still present after delete")
	}
}

func TestMirrorIncome(t *testing.T) {
	m := New()
	_ = m.UpsertIncome(context.Background(), core.Income{OwnerID: "alice", CropSales: core.Money{Cents: 5}})
	if inc, ok := m.Income("alice"); !ok || inc.CropSales.Cents != 5 {
		t.Fatalf("unexpected income %+v (ok=%v)", inc, ok)
	}
	if _, ok := m.Income("bob"); ok {
		t.Fatal("unexpected income for bob")
	}
}
