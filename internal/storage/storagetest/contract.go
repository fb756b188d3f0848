// Package storagetest holds the behaviour every storage.Repository backend
// must show. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"farmledger/internal/core"
	"farmledger/internal/storage"
)

// Run exercises repo, which must be empty, against the shared contract.
func Run(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	t.Run("list orders by date then creation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		mustCreate(t, repo, expense("a", "alice", core.NewDate(2025, 3, 1), base))
		mustCreate(t, repo, expense("b", "alice", core.NewDate(2025, 4, 1), base))
		mustCreate(t, repo, expense("c", "alice", core.NewDate(2025, 3, 1), base.Add(time.Minute)))
		mustCreate(t, repo, expense("z", "bob", core.NewDate(2025, 5, 1), base))

		got, err := repo.ListExpenses(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []string{"b", "c", "a"}
		if len(got) != len(want) {
			t.Fatalf("expected %d expenses, got %d", len(want), len(got))
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
			}
		}
		if got[0].Amount.Cents != 1050 || got[0].Category != core.Seeds || got[0].Date.String() != "2025-04-01" {
			t.Fatalf("fields not round-tripped: %+v", got[0])
		}
	})

	t.Run("list breaks full ties by id descending", func(t *testing.T) {
		repo := newRepo(t)
		at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
		for _, id := range []string{"m", "q", "k"} {
			mustCreate(t, repo, expense(id, "alice", core.NewDate(2025, 2, 1), at))
		}
		got, err := repo.ListExpenses(context.Background(), "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var ids []string
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		if len(ids) != 3 || ids[0] != "q" || ids[1] != "m" || ids[2] != "k" {
			t.Fatalf("expected [q m k], got %v", ids)
		}
	})

	t.Run("empty owner lists nothing", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.ListExpenses(context.Background(), "nobody")
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %v (err=%v)", got, err)
		}
	})

	t.Run("owner scoping", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		mustCreate(t, repo, expense("x", "alice", core.NewDate(2025, 1, 2), time.Now()))

		if _, err := repo.GetExpense(ctx, "bob", "x"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("get by other owner: expected ErrNotFound, got %v", err)
		}
		_, err := repo.UpdateExpense(ctx, "bob", "x", func(e core.Expense) (core.Expense, error) {
			t.Fatalf("update callback must not run for another owner")
			return e, nil
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("update by other owner: expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteExpense(ctx, "bob", "x"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("delete by other owner: expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetExpense(ctx, "alice", "x"); err != nil {
			t.Fatalf("record must survive foreign delete: %v", err)
		}
	})

	t.Run("update applies callback result", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		mustCreate(t, repo, expense("u", "alice", core.NewDate(2025, 1, 2), time.Now()))

		updated, err := repo.UpdateExpense(ctx, "alice", "u", func(e core.Expense) (core.Expense, error) {
			e.Item = "Drip lines"
			e.Amount = core.Money{Cents: 99900}
			return e, nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := repo.GetExpense(ctx, "alice", "u")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Item != "Drip lines" || got.Amount.Cents != 99900 || updated.Item != got.Item {
			t.Fatalf("update not persisted: %+v", got)
		}

		boom := errors.New("boom")
		if _, err := repo.UpdateExpense(ctx, "alice", "u", func(e core.Expense) (core.Expense, error) {
			e.Item = "discarded"
			return e, boom
		}); !errors.Is(err, boom) {
			t.Fatalf("expected callback error, got %v", err)
		}
		got, _ = repo.GetExpense(ctx, "alice", "u")
		if got.Item != "Drip lines" {
			t.Fatalf("failed update must not apply, got %q", got.Item)
		}
	})

	t.Run("delete twice", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		mustCreate(t, repo, expense("d", "alice", core.NewDate(2025, 1, 2), time.Now()))

		if err := repo.DeleteExpense(ctx, "alice", "d"); err != nil {
			t.Fatalf("first delete: %v", err)
		}
		if err := repo.DeleteExpense(ctx, "alice", "d"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("income upsert", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if _, found, err := repo.GetIncome(ctx, "alice"); err != nil || found {
			t.Fatalf("expected no income yet, found=%v err=%v", found, err)
		}
		for _, cents := range []int64{200000, 150000} {
			if _, err := repo.UpsertIncome(ctx, core.Income{
				OwnerID:     "alice",
				CropSales:   core.Money{Cents: cents},
				OtherIncome: core.Money{Cents: 500},
				UpdatedAt:   time.Now(),
			}); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}
		inc, found, err := repo.GetIncome(ctx, "alice")
		if err != nil || !found {
			t.Fatalf("expected income, found=%v err=%v", found, err)
		}
		if inc.CropSales.Cents != 150000 || inc.OtherIncome.Cents != 500 {
			t.Fatalf("expected last write to win, got %+v", inc)
		}
		if _, found, _ := repo.GetIncome(ctx, "bob"); found {
			t.Fatalf("income leaked across owners")
		}
	})

	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		u := core.User{ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		if err := repo.CreateUser(ctx, core.User{ID: "u2", Email: u.Email, PasswordHash: "x", CreatedAt: time.Now()}); !errors.Is(err, core.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
		got, err := repo.GetUserByEmail(ctx, u.Email)
		if err != nil || got.ID != "u1" || got.PasswordHash != "hash" {
			t.Fatalf("unexpected user %+v (err=%v)", got, err)
		}
		if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if got, err := repo.GetUserByID(ctx, "u1"); err != nil || got.Email != u.Email {
			t.Fatalf("get by id: %+v (err=%v)", got, err)
		}
		if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("user update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for _, u := range []core.User{
			{ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "h1", CreatedAt: time.Now()},
			{ID: "u2", Name: "Ravi", Email: "ravi@example.com", PasswordHash: "h2", CreatedAt: time.Now()},
		} {
			if err := repo.CreateUser(ctx, u); err != nil {
				t.Fatalf("create user: %v", err)
			}
		}

		updated, err := repo.UpdateUser(ctx, "u1", func(u core.User) (core.User, error) {
			u.Phone, u.Location, u.Email = "+91 98000 00000", "Pune", "asha@farm.example"
			return u, nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := repo.GetUserByEmail(ctx, "asha@farm.example")
		if err != nil || got.Phone != "+91 98000 00000" || got.Location != "Pune" || got.ID != updated.ID {
			t.Fatalf("update not persisted: %+v (err=%v)", got, err)
		}
		if _, err := repo.GetUserByEmail(ctx, "asha@example.com"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("old email must not resolve, got %v", err)
		}

		if _, err := repo.UpdateUser(ctx, "u1", func(u core.User) (core.User, error) {
			u.Email = "ravi@example.com"
			return u, nil
		}); !errors.Is(err, core.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
		if _, err := repo.UpdateUser(ctx, "missing", func(u core.User) (core.User, error) {
			t.Fatalf("callback must not run for a missing user")
			return u, nil
		}); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("user delete removes owned records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if err := repo.CreateUser(ctx, core.User{ID: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("create user: %v", err)
		}
		mustCreate(t, repo, expense("e1", "alice", core.NewDate(2025, 1, 2), time.Now()))
		mustCreate(t, repo, expense("e2", "bob", core.NewDate(2025, 1, 2), time.Now()))
		mustCreateFarm(t, repo, farm("f1", "alice", time.Now()))
		if _, err := repo.UpsertIncome(ctx, core.Income{OwnerID: "alice", CropSales: core.Money{Cents: 100}, UpdatedAt: time.Now()}); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		if err := repo.DeleteUser(ctx, "alice"); err != nil {
			t.Fatalf("delete user: %v", err)
		}
		if _, err := repo.GetUserByID(ctx, "alice"); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("user survived delete: %v", err)
		}
		if list, _ := repo.ListExpenses(ctx, "alice"); len(list) != 0 {
			t.Fatalf("expenses survived delete: %v", list)
		}
		if list, _ := repo.ListFarms(ctx, "alice"); len(list) != 0 {
			t.Fatalf("farms survived delete: %v", list)
		}
		if _, found, _ := repo.GetIncome(ctx, "alice"); found {
			t.Fatal("income survived delete")
		}
		if list, _ := repo.ListExpenses(ctx, "bob"); len(list) != 1 {
			t.Fatalf("other owner's expenses touched: %v", list)
		}
		if err := repo.DeleteUser(ctx, "alice"); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("farms", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mustCreateFarm(t, repo, farm("f2", "alice", base.Add(time.Hour)))
		mustCreateFarm(t, repo, farm("f1", "alice", base))
		mustCreateFarm(t, repo, farm("f9", "bob", base))

		list, err := repo.ListFarms(ctx, "alice")
		if err != nil {
			t.Fatalf("list farms: %v", err)
		}
		if len(list) != 2 || list[0].ID != "f1" || list[1].ID != "f2" {
			t.Fatalf("expected [f1 f2], got %+v", list)
		}
		if !list[0].Size.Valid || list[0].Size.Decimal.String() != "2.75" {
			t.Fatalf("size not round-tripped: %+v", list[0].Size)
		}

		if _, err := repo.GetFarm(ctx, "bob", "f1"); !errors.Is(err, core.ErrFarmNotFound) {
			t.Fatalf("foreign get: expected ErrFarmNotFound, got %v", err)
		}
		if err := repo.DeleteFarm(ctx, "bob", "f1"); !errors.Is(err, core.ErrFarmNotFound) {
			t.Fatalf("foreign delete: expected ErrFarmNotFound, got %v", err)
		}

		updated, err := repo.UpdateFarm(ctx, "alice", "f1", func(f core.Farm) (core.Farm, error) {
			f.Name, f.Size = "River plot", decimal.NullDecimal{}
			return f, nil
		})
		if err != nil {
			t.Fatalf("update farm: %v", err)
		}
		got, err := repo.GetFarm(ctx, "alice", "f1")
		if err != nil || got.Name != "River plot" || got.Size.Valid || updated.Name != got.Name {
			t.Fatalf("update not persisted: %+v (err=%v)", got, err)
		}
	})

	t.Run("farm delete detaches expenses", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		mustCreateFarm(t, repo, farm("f1", "alice", time.Now()))
		e := expense("e1", "alice", core.NewDate(2025, 1, 2), time.Now())
		e.FarmID = "f1"
		mustCreate(t, repo, e)

		if err := repo.DeleteFarm(ctx, "alice", "f1"); err != nil {
			t.Fatalf("delete farm: %v", err)
		}
		got, err := repo.GetExpense(ctx, "alice", "e1")
		if err != nil || got.FarmID != "" {
			t.Fatalf("expected detached expense, got %+v (err=%v)", got, err)
		}
		if err := repo.DeleteFarm(ctx, "alice", "f1"); !errors.Is(err, core.ErrFarmNotFound) {
			t.Fatalf("second delete: expected ErrFarmNotFound, got %v", err)
		}
	})
}

func farm(id, owner string, created time.Time) core.Farm {
	return core.Farm{
		ID:        id,
		OwnerID:   owner,
		Name:      "Farm " + id,
		Location:  "Nashik",
		CropType:  "Grapes",
		Size:      decimal.NewNullDecimal(decimal.RequireFromString("2.75")),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func mustCreateFarm(t *testing.T, repo storage.Repository, f core.Farm) {
	t.Helper()
	if err := repo.CreateFarm(context.Background(), f); err != nil {
		t.Fatalf("create farm %s: %v", f.ID, err)
	}
}

func expense(id, owner string, date core.Date, created time.Time) core.Expense {
	return core.Expense{
		ID:        id,
		OwnerID:   owner,
		Category:  core.Seeds,
		Item:      "Seed " + id,
		Amount:    core.Money{Cents: 1050},
		Date:      date,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func mustCreate(t *testing.T, repo storage.Repository, e core.Expense) {
	t.Helper()
	if err := repo.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("create %s: %v", e.ID, err)
	}
}
