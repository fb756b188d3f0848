package sheets

import (
	"context"

	"farmledger/internal/core"
)

// Ports for the outbound ledger mirror.
type (
	// ExpenseMirror keeps one row per expense, keyed by expense id.
	ExpenseMirror interface {
		UpsertExpense(ctx context.Context, e core.Expense) error
		// DeleteExpense removes the row of id. A missing row is not an error.
		DeleteExpense(ctx context.Context, id string) error
	}

	// IncomeMirror keeps one row per owner.
	IncomeMirror interface {
		UpsertIncome(ctx context.Context, inc core.Income) error
	}

	LedgerMirror interface {
		ExpenseMirror
		IncomeMirror
	}
)
