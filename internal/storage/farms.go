package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"farmledger/internal/core"
)

const farmColumns = `id, owner_id, name, location, crop_type, size, created_at, updated_at`

func (r *SQLiteRepository) CreateFarm(ctx context.Context, f core.Farm) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO farms (`+farmColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, f.Name, f.Location, f.CropType, nullSize(f.Size),
		f.CreatedAt.UnixNano(), f.UpdatedAt.UnixNano())
	if err != nil {
		return &core.PersistenceError{Op: "create farm", Err: err}
	}

	slog.DebugContext(ctx, "Farm saved to SQLite",
		"id", f.ID,
		"owner_id", f.OwnerID)
	return nil
}

func (r *SQLiteRepository) ListFarms(ctx context.Context, ownerID string) ([]core.Farm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+farmColumns+` FROM farms WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, &core.PersistenceError{Op: "list farms", Err: err}
	}
	defer rows.Close()

	farms := []core.Farm{}
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, &core.PersistenceError{Op: "scan farm", Err: err}
		}
		farms = append(farms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "list farms", Err: err}
	}
	return farms, nil
}

func (r *SQLiteRepository) GetFarm(ctx context.Context, ownerID, id string) (core.Farm, error) {
	return getFarm(ctx, r.db, ownerID, id)
}

func (r *SQLiteRepository) UpdateFarm(ctx context.Context, ownerID, id string, fn func(core.Farm) (core.Farm, error)) (core.Farm, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Farm{}, &core.PersistenceError{Op: "begin farm update", Err: err}
	}
	defer tx.Rollback()

	current, err := getFarm(ctx, tx, ownerID, id)
	if err != nil {
		return core.Farm{}, err
	}
	next, err := fn(current)
	if err != nil {
		return core.Farm{}, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE farms SET name = ?, location = ?, crop_type = ?, size = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		next.Name, next.Location, next.CropType, nullSize(next.Size), next.UpdatedAt.UnixNano(), id, ownerID)
	if err != nil {
		return core.Farm{}, &core.PersistenceError{Op: "update farm", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return core.Farm{}, &core.PersistenceError{Op: "commit farm update", Err: err}
	}
	next.ID, next.OwnerID = current.ID, current.OwnerID
	return next, nil
}

func (r *SQLiteRepository) DeleteFarm(ctx context.Context, ownerID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.PersistenceError{Op: "begin farm delete", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM farms WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return &core.PersistenceError{Op: "delete farm", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.PersistenceError{Op: "delete farm", Err: err}
	}
	if n == 0 {
		return core.ErrFarmNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET farm_id = '' WHERE owner_id = ? AND farm_id = ?`, ownerID, id); err != nil {
		return &core.PersistenceError{Op: "detach farm expenses", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &core.PersistenceError{Op: "commit farm delete", Err: err}
	}
	return nil
}

func getFarm(ctx context.Context, q queryer, ownerID, id string) (core.Farm, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+farmColumns+` FROM farms WHERE id = ? AND owner_id = ?`, id, ownerID)
	f, err := scanFarm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Farm{}, core.ErrFarmNotFound
	}
	if err != nil {
		return core.Farm{}, &core.PersistenceError{Op: "get farm", Err: err}
	}
	return f, nil
}

func scanFarm(s scanner) (core.Farm, error) {
	var (
		f                core.Farm
		size             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Location, &f.CropType, &size, &created, &updated); err != nil {
		return core.Farm{}, err
	}
	if size.Valid {
		d, err := decimal.NewFromString(size.String)
		if err != nil {
			return core.Farm{}, fmt.Errorf("parse stored size %q: %w", size.String, err)
		}
		f.Size = decimal.NewNullDecimal(d)
	}
	f.CreatedAt = time.Unix(0, created).UTC()
	f.UpdatedAt = time.Unix(0, updated).UTC()
	return f, nil
}

// nullSize stores sizes as exact decimal text.
func nullSize(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}
