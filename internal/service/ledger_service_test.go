package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitease/internal/auth"
	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/middleware"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
)

func TestCreateExpense(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	expense, err := env.ledger.CreateExpense(ctx, ExpenseInput{
		Description:  "  Dinner  ",
		Amount:       money.FromMajor(100),
		Payer:        "Alice",
		Participants: []string{"Alice", " Bob ", "Charlie", "Bob"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "Dinner", expense.Description)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, expense.Participants)
	assert.Equal(t, []models.Share{
		{Participant: "Alice", Amount: 3334},
		{Participant: "Bob", Amount: 3333},
		{Participant: "Charlie", Amount: 3333},
	}, expense.Shares)

	t.Run("participants are auto-registered as friends", func(t *testing.T) {
		friends, err := env.friends.ListFriends(ctx, models.Scope{})
		require.NoError(t, err)
		var names []string
		for _, f := range friends {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names)
	})

	t.Run("event and metric recorded", func(t *testing.T) {
		assert.Equal(t, []string{events.ExpenseCreated}, env.publisher.types())
		assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.LedgerWrites.WithLabelValues("expense")))
	})

	t.Run("listed newest first", func(t *testing.T) {
		env.mustExpense(t, ExpenseInput{Description: "Taxi", Amount: 500, Payer: "Bob", Participants: []string{"Alice"}})
		expenses, err := env.ledger.ListExpenses(ctx, models.Scope{})
		require.NoError(t, err)
		require.Len(t, expenses, 2)
		assert.Equal(t, "Taxi", expenses[0].Description)
	})
}

func TestCreateExpense_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	valid := func() ExpenseInput {
		return ExpenseInput{Description: "Lunch", Amount: 1000, Payer: "Alice", Participants: []string{"Bob"}}
	}

	tests := []struct {
		name   string
		mutate func(in *ExpenseInput)
	}{
		{"empty description", func(in *ExpenseInput) { in.Description = "   " }},
		{"long description", func(in *ExpenseInput) { in.Description = strings.Repeat("x", 201) }},
		{"zero amount", func(in *ExpenseInput) { in.Amount = 0 }},
		{"negative amount", func(in *ExpenseInput) { in.Amount = -100 }},
		{"amount over limit", func(in *ExpenseInput) { in.Amount = money.MaxExpense + 1 }},
		{"missing payer", func(in *ExpenseInput) { in.Payer = "" }},
		{"no participants", func(in *ExpenseInput) { in.Participants = nil }},
		{"blank participant", func(in *ExpenseInput) { in.Participants = []string{"Bob", " "} }},
		{"too many participants", func(in *ExpenseInput) {
			in.Participants = make([]string, 51)
			for i := range in.Participants {
				in.Participants[i] = fmt.Sprintf("p%d", i)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := env.ledger.CreateExpense(ctx, in)
			var validation *models.ValidationError
			assert.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
		})
	}

	t.Run("unknown group", func(t *testing.T) {
		in := valid()
		in.GroupID = "missing"
		_, err := env.ledger.CreateExpense(ctx, in)
		var notFound *models.NotFoundError
		assert.True(t, errors.As(err, &notFound), "expected NotFoundError, got %v", err)
	})

	t.Run("nothing written", func(t *testing.T) {
		expenses, err := env.ledger.ListExpenses(ctx, models.Scope{})
		require.NoError(t, err)
		assert.Empty(t, expenses)
		assert.Empty(t, env.publisher.types())
	})
}

func TestCreateExpense_DefaultPayer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := middleware.WithClaims(context.Background(), &auth.Claims{UserID: "u1", DisplayName: "Priya"})

	expense, err := env.ledger.CreateExpense(ctx, ExpenseInput{
		Description:  "Snacks",
		Amount:       900,
		Participants: []string{"Rahul", "Sana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Priya", expense.Payer)
	assert.Equal(t, []string{"Rahul", "Sana"}, expense.Participants, "payer is not added to participants")
}

func TestCreateSettlement(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	settlement, err := env.ledger.CreateSettlement(ctx, SettlementInput{
		FromUser: "Bob",
		ToUser:   "Alice",
		Amount:   money.FromMajor(50),
		Note:     "cash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, settlement.ID)
	assert.Equal(t, []string{events.SettlementCreated}, env.publisher.types())

	tests := []struct {
		name string
		in   SettlementInput
	}{
		{"missing from", SettlementInput{ToUser: "Alice", Amount: 100}},
		{"missing to", SettlementInput{FromUser: "Bob", Amount: 100}},
		{"self settlement", SettlementInput{FromUser: "Bob", ToUser: "Bob", Amount: 100}},
		{"zero amount", SettlementInput{FromUser: "Bob", ToUser: "Alice"}},
		{"long note", SettlementInput{FromUser: "Bob", ToUser: "Alice", Amount: 100, Note: strings.Repeat("n", 201)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.CreateSettlement(ctx, tt.in)
			var validation *models.ValidationError
			assert.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
		})
	}

	settlements, err := env.ledger.ListSettlements(ctx, models.Scope{})
	require.NoError(t, err)
	assert.Len(t, settlements, 1)
}
