package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"farmledger/internal/ledger"
)

// LedgerEventMessage is the wire form of a ledger change. It carries ids
// only; the consumer fetches current state from the record store.
type LedgerEventMessage struct {
	Type      string    `json:"type"`
	OwnerID   string    `json:"owner_id"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage converts a ledger event to its wire form.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		Type:      string(ev.Type),
		OwnerID:   ev.OwnerID,
		ExpenseID: ev.ExpenseID,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages the worker cannot act on.
func (m *LedgerEventMessage) Validate() error {
	if m.OwnerID == "" {
		return fmt.Errorf("message without owner_id")
	}
	switch ledger.EventType(m.Type) {
	case ledger.ExpenseCreated, ledger.ExpenseUpdated, ledger.ExpenseDeleted:
		if m.ExpenseID == "" {
			return fmt.Errorf("%s message without expense_id", m.Type)
		}
	case ledger.IncomeSaved:
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// Event converts the message back to a ledger event.
func (m *LedgerEventMessage) Event() ledger.Event {
	return ledger.Event{
		Type:      ledger.EventType(m.Type),
		OwnerID:   m.OwnerID,
		ExpenseID: m.ExpenseID,
		Timestamp: m.Timestamp,
	}
}

// LedgerEventMessageFromJSON decodes and validates a message.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
