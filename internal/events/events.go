// Package events publishes ledger change notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
)

// Routing keys for ledger events.
const (
	ExpenseCreated    = "ledger.expense.created"
	SettlementCreated = "ledger.settlement.created"
	GroupDeleted      = "ledger.group.deleted"
)

// LedgerEvent is the JSON body of every published message.
type LedgerEvent struct {
	Type       string       `json:"type"`
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id,omitempty"`
	Payer      string       `json:"payer,omitempty"`
	FromUser   string       `json:"from_user,omitempty"`
	ToUser     string       `json:"to_user,omitempty"`
	Amount     money.Amount `json:"amount,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Publisher sends ledger events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
	Close() error
}

// NewExpenseCreated builds the event for a committed expense.
func NewExpenseCreated(e *models.Expense) LedgerEvent {
	return LedgerEvent{
		Type:       ExpenseCreated,
		ID:         e.ID,
		GroupID:    e.GroupID,
		Payer:      e.Payer,
		Amount:     e.Amount,
		OccurredAt: time.Unix(e.CreatedAt, 0).UTC(),
	}
}

// NewSettlementCreated builds the event for a committed settlement.
func NewSettlementCreated(s *models.Settlement) LedgerEvent {
	return LedgerEvent{
		Type:       SettlementCreated,
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUser:   s.FromUser,
		ToUser:     s.ToUser,
		Amount:     s.Amount,
		OccurredAt: time.Unix(s.CreatedAt, 0).UTC(),
	}
}

// NewGroupDeleted builds the event for a deleted group.
func NewGroupDeleted(groupID string) LedgerEvent {
	return LedgerEvent{
		Type:       GroupDeleted,
		ID:         groupID,
		GroupID:    groupID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON encodes the event body.
func (e LedgerEvent) ToJSON() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
