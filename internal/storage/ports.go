package storage

import (
	"context"

	"farmledger/internal/core"
)

// Ports implemented by every record store backend. Every expense query is
// filtered by owner; a record owned by someone else is reported as
// core.ErrNotFound exactly like a missing one.
type (
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		// ListExpenses returns the owner's expenses, date descending then
		// creation time descending, then id descending.
		ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
		// UpdateExpense loads the owner's expense, passes it to fn and stores
		// the result in one atomic step. An error from fn aborts the update.
		UpdateExpense(ctx context.Context, ownerID, id string, fn func(core.Expense) (core.Expense, error)) (core.Expense, error)
		DeleteExpense(ctx context.Context, ownerID, id string) error
	}

	IncomeStore interface {
		// GetIncome reports found=false when the owner never saved income.
		GetIncome(ctx context.Context, ownerID string) (inc core.Income, found bool, err error)
		UpsertIncome(ctx context.Context, inc core.Income) (core.Income, error)
	}

	// FarmStore reports a missing or foreign farm as core.ErrFarmNotFound.
	FarmStore interface {
		CreateFarm(ctx context.Context, f core.Farm) error
		// ListFarms returns the owner's farms, oldest first.
		ListFarms(ctx context.Context, ownerID string) ([]core.Farm, error)
		GetFarm(ctx context.Context, ownerID, id string) (core.Farm, error)
		UpdateFarm(ctx context.Context, ownerID, id string, fn func(core.Farm) (core.Farm, error)) (core.Farm, error)
		// DeleteFarm removes the farm and clears the farm id of the owner's
		// expenses that referenced it.
		DeleteFarm(ctx context.Context, ownerID, id string) error
	}

	// UserStore reports a missing user as core.ErrUserNotFound.
	UserStore interface {
		// CreateUser fails with core.ErrEmailTaken on a duplicate email.
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
		// UpdateUser loads the user, passes it to fn and stores the result
		// atomically. A clash with another user's email is core.ErrEmailTaken.
		UpdateUser(ctx context.Context, id string, fn func(core.User) (core.User, error)) (core.User, error)
		// DeleteUser removes the user together with every expense, farm and
		// income record they own.
		DeleteUser(ctx context.Context, id string) error
	}

	Repository interface {
		ExpenseStore
		IncomeStore
		FarmStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)
