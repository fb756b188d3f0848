package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"farmledger/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &core.PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

const expenseColumns = `id, owner_id, farm_id, category, item, amount_cents, date, description, created_at, updated_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.FarmID, string(e.Category), e.Item, e.Amount.Cents,
		e.Date.String(), e.Description, e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano())
	if err != nil {
		return &core.PersistenceError{Op: "create expense", Err: err}
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"amount_cents", e.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? ORDER BY date DESC, created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, &core.PersistenceError{Op: "list expenses", Err: err}
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, &core.PersistenceError{Op: "scan expense", Err: err}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "list expenses", Err: err}
	}
	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	return getExpense(ctx, r.db, ownerID, id)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, ownerID, id string, fn func(core.Expense) (core.Expense, error)) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, &core.PersistenceError{Op: "begin update", Err: err}
	}
	defer tx.Rollback()

	current, err := getExpense(ctx, tx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	next, err := fn(current)
	if err != nil {
		return core.Expense{}, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses SET farm_id = ?, category = ?, item = ?, amount_cents = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		next.FarmID, string(next.Category), next.Item, next.Amount.Cents, next.Date.String(),
		next.Description, next.UpdatedAt.UnixNano(), id, ownerID)
	if err != nil {
		return core.Expense{}, &core.PersistenceError{Op: "update expense", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, &core.PersistenceError{Op: "commit update", Err: err}
	}
	return next, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return &core.PersistenceError{Op: "delete expense", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.PersistenceError{Op: "delete expense", Err: err}
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, ownerID string) (core.Income, bool, error) {
	inc := core.Income{OwnerID: ownerID}
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT crop_sales_cents, other_income_cents, updated_at FROM incomes WHERE owner_id = ?`, ownerID).
		Scan(&inc.CropSales.Cents, &inc.OtherIncome.Cents, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return inc, false, nil
	}
	if err != nil {
		return core.Income{}, false, &core.PersistenceError{Op: "get income", Err: err}
	}
	inc.UpdatedAt = time.Unix(0, updated).UTC()
	return inc, true, nil
}

func (r *SQLiteRepository) UpsertIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (owner_id, crop_sales_cents, other_income_cents, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   crop_sales_cents = excluded.crop_sales_cents,
		   other_income_cents = excluded.other_income_cents,
		   updated_at = excluded.updated_at`,
		inc.OwnerID, inc.CropSales.Cents, inc.OtherIncome.Cents, inc.UpdatedAt.UnixNano())
	if err != nil {
		return core.Income{}, &core.PersistenceError{Op: "upsert income", Err: err}
	}

	slog.DebugContext(ctx, "Income saved to SQLite",
		"owner_id", inc.OwnerID,
		"crop_sales_cents", inc.CropSales.Cents,
		"other_income_cents", inc.OtherIncome.Cents)
	return inc, nil
}

const userColumns = `id, name, email, phone, location, password_hash, created_at`

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Phone, u.Location, u.PasswordHash, u.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrEmailTaken
		}
		return &core.PersistenceError{Op: "create user", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return getUser(ctx, r.db, "email", email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return getUser(ctx, r.db, "id", id)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id string, fn func(core.User) (core.User, error)) (core.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.User{}, &core.PersistenceError{Op: "begin user update", Err: err}
	}
	defer tx.Rollback()

	current, err := getUser(ctx, tx, "id", id)
	if err != nil {
		return core.User{}, err
	}
	next, err := fn(current)
	if err != nil {
		return core.User{}, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, phone = ?, location = ?, password_hash = ? WHERE id = ?`,
		next.Name, next.Email, next.Phone, next.Location, next.PasswordHash, id)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, &core.PersistenceError{Op: "update user", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return core.User{}, &core.PersistenceError{Op: "commit user update", Err: err}
	}
	next.ID = current.ID
	return next, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.PersistenceError{Op: "begin user delete", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return &core.PersistenceError{Op: "delete user", Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return &core.PersistenceError{Op: "delete user", Err: err}
	} else if n == 0 {
		return core.ErrUserNotFound
	}
	for _, q := range []string{
		`DELETE FROM expenses WHERE owner_id = ?`,
		`DELETE FROM farms WHERE owner_id = ?`,
		`DELETE FROM incomes WHERE owner_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return &core.PersistenceError{Op: "delete user records", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.PersistenceError{Op: "commit user delete", Err: err}
	}

	slog.DebugContext(ctx, "User and owned records deleted from SQLite", "user_id", id)
	return nil
}

// getUser looks a user up by a trusted column name.
func getUser(ctx context.Context, q queryer, column, value string) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Location, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, &core.PersistenceError{Op: "get user", Err: err}
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getExpense(ctx context.Context, q queryer, ownerID, id string) (core.Expense, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, &core.PersistenceError{Op: "get expense", Err: err}
	}
	return e, nil
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                core.Expense
		category, date   string
		created, updated int64
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &e.FarmID, &category, &e.Item, &e.Amount.Cents,
		&date, &e.Description, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Category = core.Category(category)
	e.Date = d
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return e, nil
}
