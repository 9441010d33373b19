package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitease/internal/models"
)

func TestExpenseCreatedJSON(t *testing.T) {
	event := NewExpenseCreated(&models.Expense{
		ID:        "e1",
		Payer:     "Alice",
		Amount:    12050,
		GroupID:   "g1",
		CreatedAt: 1_700_000_000,
	})

	body, err := event.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "ledger.expense.created",
		"id": "e1",
		"group_id": "g1",
		"payer": "Alice",
		"amount": 120.50,
		"occurred_at": "2023-11-14T22:13:20Z"
	}`, string(body))
}

func TestSettlementCreated(t *testing.T) {
	event := NewSettlementCreated(&models.Settlement{ID: "s1", FromUser: "Bob", ToUser: "Alice", Amount: 500})
	assert.Equal(t, SettlementCreated, event.Type)
	assert.Equal(t, "Bob", event.FromUser)
	assert.Empty(t, event.GroupID)
}

func TestGroupDeleted(t *testing.T) {
	event := NewGroupDeleted("g9")
	assert.Equal(t, GroupDeleted, event.Type)
	assert.Equal(t, "g9", event.GroupID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewGroupDeleted("g")))
	assert.NoError(t, p.Close())
}
