// Package ledger applies owner-scoped expense, income and farm operations on
// top of a record store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"farmledger/internal/core"
	"farmledger/internal/storage"
)

// Store is the subset of the record store the ledger needs.
type Store interface {
	storage.ExpenseStore
	storage.IncomeStore
	storage.FarmStore
}

// Service hands out owner-bound ledgers. It holds no record state of its own.
type Service struct {
	store     Store
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithPublisher sends an Event after every committed mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the UUID generator used for new expenses and farms.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForOwner returns the ledger of ownerID. It is the only way to reach the
// record operations, so every call below is scoped to that owner.
func (s *Service) ForOwner(ownerID string) (*OwnerLedger, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, &core.AuthError{Message: "Access denied. No token provided."}
	}
	return &OwnerLedger{svc: s, owner: ownerID}, nil
}

// OwnerLedger is a ledger bound to a single owner.
type OwnerLedger struct {
	svc   *Service
	owner string
}

func (l *OwnerLedger) AddExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := l.svc.now()
	e := core.Expense{
		ID:          l.svc.newID(),
		OwnerID:     l.owner,
		FarmID:      strings.TrimSpace(in.FarmID),
		Category:    core.Category(strings.TrimSpace(string(in.Category))),
		Item:        strings.TrimSpace(in.Item),
		Amount:      *in.Amount,
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := l.checkFarm(ctx, e.FarmID); err != nil {
		return core.Expense{}, err
	}
	if err := l.svc.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"owner_id", l.owner,
		"expense_id", e.ID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	l.publish(ctx, ExpenseCreated, e.ID)
	return e, nil
}

// ListExpenses returns the owner's expenses, newest date first.
func (l *OwnerLedger) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	list, err := l.svc.store.ListExpenses(ctx, l.owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if list == nil {
		list = []core.Expense{}
	}
	return list, nil
}

// UpdateExpense overwrites the fields p supplies. An id that is missing or
// owned by someone else yields core.ErrNotFound.
func (l *OwnerLedger) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Expense{}, core.ErrNotFound
	}
	if p.Empty() {
		e, err := l.svc.store.GetExpense(ctx, l.owner, id)
		if err != nil {
			return core.Expense{}, fmt.Errorf("get expense: %w", err)
		}
		return e, nil
	}
	if p.FarmID != nil {
		if err := l.checkFarm(ctx, strings.TrimSpace(*p.FarmID)); err != nil {
			return core.Expense{}, err
		}
	}

	updated, err := l.svc.store.UpdateExpense(ctx, l.owner, id, func(current core.Expense) (core.Expense, error) {
		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return core.Expense{}, err
		}
		next.UpdatedAt = l.svc.now()
		return next, nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated",
		"owner_id", l.owner,
		"expense_id", id)
	l.publish(ctx, ExpenseUpdated, id)
	return updated, nil
}

func (l *OwnerLedger) DeleteExpense(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ErrNotFound
	}
	if err := l.svc.store.DeleteExpense(ctx, l.owner, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted",
		"owner_id", l.owner,
		"expense_id", id)
	l.publish(ctx, ExpenseDeleted, id)
	return nil
}

// GetIncome returns the owner's income, zero valued when none was saved.
func (l *OwnerLedger) GetIncome(ctx context.Context) (core.Income, error) {
	inc, _, err := l.svc.store.GetIncome(ctx, l.owner)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	inc.OwnerID = l.owner
	return inc, nil
}

// SaveIncome replaces the owner's income. A nil value is stored as zero.
func (l *OwnerLedger) SaveIncome(ctx context.Context, cropSales, otherIncome *core.Money) (core.Income, error) {
	inc := core.Income{OwnerID: l.owner, UpdatedAt: l.svc.now()}
	if cropSales != nil {
		inc.CropSales = *cropSales
	}
	if otherIncome != nil {
		inc.OtherIncome = *otherIncome
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}
	saved, err := l.svc.store.UpsertIncome(ctx, inc)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"owner_id", l.owner,
		"crop_sales_cents", saved.CropSales.Cents,
		"other_income_cents", saved.OtherIncome.Cents)
	l.publish(ctx, IncomeSaved, "")
	return saved, nil
}

// Summary reads the owner's expenses and income and aggregates them.
func (l *OwnerLedger) Summary(ctx context.Context) (core.Summary, []core.Expense, error) {
	var (
		expenses []core.Expense
		income   core.Income
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = l.ListExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = l.GetIncome(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, nil, err
	}
	return core.Summarize(expenses, income), expenses, nil
}

// checkFarm verifies that a non-empty farm id names one of the owner's farms.
func (l *OwnerLedger) checkFarm(ctx context.Context, farmID string) error {
	if farmID == "" {
		return nil
	}
	_, err := l.svc.store.GetFarm(ctx, l.owner, farmID)
	if errors.Is(err, core.ErrNotFound) {
		return core.NewValidationError("Farm not found", "farmId")
	}
	if err != nil {
		return fmt.Errorf("get farm: %w", err)
	}
	return nil
}

func (l *OwnerLedger) publish(ctx context.Context, typ EventType, expenseID string) {
	if l.svc.publisher == nil {
		return
	}
	ev := Event{Type: typ, OwnerID: l.owner, ExpenseID: expenseID, Timestamp: l.svc.now()}
	if err := l.svc.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", typ,
			"owner_id", l.owner,
			"expense_id", expenseID,
			"error", err)
	}
}
