// Package notification delivers account and operator change events to
// downstream listeners without blocking the caller.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names what happened
type EventType string

const (
	AccountCreated    EventType = "account.created"
	AccountUpdated    EventType = "account.updated"
	AccountDeleted    EventType = "account.deleted"
	AccountDeposit    EventType = "account.deposit"
	AccountWithdrawal EventType = "account.withdrawal"
	OperatorCreated   EventType = "operator.created"
	OperatorUpdated   EventType = "operator.updated"
	OperatorDeleted   EventType = "operator.deleted"
)

// Event describes a committed change
type Event struct {
	Type          EventType        `json:"type"`
	AccountID     uuid.UUID        `json:"account_id,omitempty"`
	AccountNumber string           `json:"account_number,omitempty"`
	OperatorID    uuid.UUID        `json:"operator_id,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Sink delivers a single event somewhere
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
