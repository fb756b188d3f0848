package ledger

import (
	"context"
	"time"
)

// EventType names a ledger change.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseUpdated EventType = "expense.updated"
	ExpenseDeleted EventType = "expense.deleted"
	IncomeSaved    EventType = "income.saved"
)

// Event describes one committed mutation. ExpenseID is empty for income events.
type Event struct {
	Type      EventType
	OwnerID   string
	ExpenseID string
	Timestamp time.Time
}

// Publisher forwards committed events to an external consumer.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
