package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"farmledger/internal/core"
)

func (l *OwnerLedger) AddFarm(ctx context.Context, in core.NewFarm) (core.Farm, error) {
	now := l.svc.now()
	f := core.Farm{
		ID:        l.svc.newID(),
		OwnerID:   l.owner,
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		CropType:  strings.TrimSpace(in.CropType),
		Size:      in.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.Validate(); err != nil {
		return core.Farm{}, err
	}
	if err := l.svc.store.CreateFarm(ctx, f); err != nil {
		return core.Farm{}, fmt.Errorf("create farm: %w", err)
	}

	slog.InfoContext(ctx, "Farm created",
		"owner_id", l.owner,
		"farm_id", f.ID)
	return f, nil
}

// ListFarms returns the owner's farms, oldest first.
func (l *OwnerLedger) ListFarms(ctx context.Context) ([]core.Farm, error) {
	list, err := l.svc.store.ListFarms(ctx, l.owner)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	if list == nil {
		list = []core.Farm{}
	}
	return list, nil
}

// UpdateFarm overwrites the fields p supplies. A farm that is missing or
// owned by someone else yields core.ErrFarmNotFound.
func (l *OwnerLedger) UpdateFarm(ctx context.Context, id string, p core.FarmPatch) (core.Farm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Farm{}, core.ErrFarmNotFound
	}
	if p.Empty() {
		f, err := l.svc.store.GetFarm(ctx, l.owner, id)
		if err != nil {
			return core.Farm{}, fmt.Errorf("get farm: %w", err)
		}
		return f, nil
	}

	updated, err := l.svc.store.UpdateFarm(ctx, l.owner, id, func(current core.Farm) (core.Farm, error) {
		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return core.Farm{}, err
		}
		next.UpdatedAt = l.svc.now()
		return next, nil
	})
	if err != nil {
		return core.Farm{}, fmt.Errorf("update farm: %w", err)
	}

	slog.InfoContext(ctx, "Farm updated",
		"owner_id", l.owner,
		"farm_id", id)
	return updated, nil
}

// DeleteFarm removes the farm; expenses that referenced it keep their data
// but lose the farm link.
func (l *OwnerLedger) DeleteFarm(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ErrFarmNotFound
	}
	if err := l.svc.store.DeleteFarm(ctx, l.owner, id); err != nil {
		return fmt.Errorf("delete farm: %w", err)
	}

	slog.InfoContext(ctx, "Farm deleted",
		"owner_id", l.owner,
		"farm_id", id)
	return nil
}
