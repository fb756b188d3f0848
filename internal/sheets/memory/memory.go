// Package memory is an in-process ledger mirror used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"farmledger/internal/core"
	ports "farmledger/internal/sheets"
)

var _ ports.LedgerMirror = (*Mirror)(nil)

type Mirror struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	incomes  map[string]core.Income
}

func New() *Mirror {
	return &Mirror{
		expenses: make(map[string]core.Expense),
		incomes:  make(map[string]core.Income),
	}
}

func (m *Mirror) UpsertExpense(ctx context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[e.ID] = e
	slog.DebugContext(ctx, "Mirrored expense in memory", "expense_id", e.ID)
	return nil
}

func (m *Mirror) DeleteExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses, id)
	return nil
}

func (m *Mirror) UpsertIncome(_ context.Context, inc core.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incomes[inc.OwnerID] = inc
	return nil
}

// Expense returns the mirrored row of id.
func (m *Mirror) Expense(id string) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	return e, ok
}

// ExpenseIDs returns the mirrored expense ids, sorted.
func (m *Mirror) ExpenseIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.expenses))
	for id := range m.expenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Income returns the mirrored income row of owner.
func (m *Mirror) Income(owner string) (core.Income, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incomes[owner]
	return inc, ok
}
