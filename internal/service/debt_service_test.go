package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/storage"
)

func TestGetDebts_Scenarios(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	global := models.Scope{}

	env.mustExpense(t, ExpenseInput{
		Description:  "Groceries",
		Amount:       money.FromMajor(300),
		Payer:        "A",
		Participants: []string{"A", "B", "C"},
	})

	report, err := env.debts.GetDebts(ctx, global, true)
	require.NoError(t, err)
	assert.Equal(t, ModeOptimized, report.Mode)
	assert.Equal(t, []models.Debt{
		{Debtor: "B", Creditor: "A", Amount: money.FromMajor(100)},
		{Debtor: "C", Creditor: "A", Amount: money.FromMajor(100)},
	}, report.Debts)
	assert.Equal(t, map[string]money.Amount{
		"A": money.FromMajor(200),
		"B": money.FromMajor(-100),
		"C": money.FromMajor(-100),
	}, report.Balances)

	env.mustSettle(t, SettlementInput{FromUser: "B", ToUser: "A", Amount: money.FromMajor(100)})

	report, err = env.debts.GetDebts(ctx, global, true)
	require.NoError(t, err)
	assert.Equal(t, []models.Debt{
		{Debtor: "C", Creditor: "A", Amount: money.FromMajor(100)},
	}, report.Debts)
	assert.Equal(t, money.Amount(0), report.Balances["B"])
}

func TestGetDebts_CycleCollapses(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.mustExpense(t, ExpenseInput{Description: "x", Amount: 5000, Payer: "B", Participants: []string{"A"}})
	env.mustExpense(t, ExpenseInput{Description: "y", Amount: 5000, Payer: "C", Participants: []string{"B"}})
	env.mustExpense(t, ExpenseInput{Description: "z", Amount: 5000, Payer: "A", Participants: []string{"C"}})

	optimized, err := env.debts.GetDebts(ctx, models.Scope{}, true)
	require.NoError(t, err)
	assert.Empty(t, optimized.Debts)
	assert.NotNil(t, optimized.Debts, "debts encode as an empty list, not null")

	pairwise, err := env.debts.GetDebts(ctx, models.Scope{}, false)
	require.NoError(t, err)
	assert.Equal(t, ModePairwise, pairwise.Mode)
	assert.Equal(t, []models.Debt{
		{Debtor: "A", Creditor: "B", Amount: 5000},
		{Debtor: "B", Creditor: "C", Amount: 5000},
		{Debtor: "C", Creditor: "A", Amount: 5000},
	}, pairwise.Debts)
}

func TestGetDebts_GroupScope(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	group, err := env.groups.CreateGroup(ctx, "Goa Trip")
	require.NoError(t, err)

	env.mustExpense(t, ExpenseInput{Description: "Villa", Amount: 9000, Payer: "Asha", Participants: []string{"Asha", "Ravi", "Meera"}, GroupID: group.ID})
	env.mustExpense(t, ExpenseInput{Description: "Other", Amount: 1000, Payer: "Zed", Participants: []string{"Asha"}})

	report, err := env.debts.GetDebts(ctx, models.Scope{GroupID: group.ID}, true)
	require.NoError(t, err)
	assert.Len(t, report.Debts, 2)
	for _, d := range report.Debts {
		assert.Equal(t, "Asha", d.Creditor)
		assert.Equal(t, money.Amount(3000), d.Amount)
	}
	assert.NotContains(t, report.Balances, "Zed")

	t.Run("unknown group is empty, not an error", func(t *testing.T) {
		report, err := env.debts.GetDebts(ctx, models.Scope{GroupID: "missing"}, true)
		require.NoError(t, err)
		assert.Empty(t, report.Debts)
		assert.Empty(t, report.Balances)
	})
}

func TestGetDebts_CacheFollowsLedgerVersion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.mustExpense(t, ExpenseInput{Description: "Tea", Amount: 2000, Payer: "A", Participants: []string{"B"}})

	first, err := env.debts.GetDebts(ctx, models.Scope{}, true)
	require.NoError(t, err)
	second, err := env.debts.GetDebts(ctx, models.Scope{}, true)
	require.NoError(t, err)
	assert.Same(t, first, second, "second read should come from cache")
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.DebtCacheHits))

	env.mustSettle(t, SettlementInput{FromUser: "B", ToUser: "A", Amount: 2000})

	third, err := env.debts.GetDebts(ctx, models.Scope{}, true)
	require.NoError(t, err)
	assert.Greater(t, third.Version, first.Version)
	assert.Empty(t, third.Debts, "a write must never be followed by a stale report")
}

func TestGetDebts_Concurrent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.mustExpense(t, ExpenseInput{Description: "Rent", Amount: 3000000, Payer: "A", Participants: []string{"A", "B", "C", "D"}})

	var wg sync.WaitGroup
	results := make([]*DebtReport, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.debts.GetDebts(ctx, models.Scope{}, true)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Debts, results[i].Debts)
	}
}

func TestGetDebts_ComputationErrorOnCorruptLedger(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// Shares that do not sum to the amount can only come from a defect.
	err := env.store.CreateExpense(ctx, &models.Expense{
		Description:  "corrupt",
		Amount:       1000,
		Payer:        "A",
		Participants: []string{"B"},
		Shares:       []models.Share{{Participant: "B", Amount: 400}},
	})
	require.NoError(t, err)

	for _, optimize := range []bool{true, false} {
		report, err := env.debts.GetDebts(ctx, models.Scope{}, optimize)
		var computation *models.ComputationError
		assert.True(t, errors.As(err, &computation), "optimize=%v: expected ComputationError, got %v", optimize, err)
		assert.Nil(t, report)
	}

	_, err = env.debts.FriendBalances(ctx, models.Scope{}, "A")
	var computation *models.ComputationError
	assert.True(t, errors.As(err, &computation), "expected ComputationError, got %v", err)
}

// gatedStore blocks LedgerSnapshot until release is closed.
type gatedStore struct {
	storage.Store
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *gatedStore) LedgerSnapshot(ctx context.Context, scope models.Scope) (*storage.Snapshot, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
	}
	<-s.release
	return s.Store.LedgerSnapshot(ctx, scope)
}

func TestGetDebts_CancelledCallerDoesNotFailOthers(t *testing.T) {
	env := setupTestEnv(t)
	env.mustExpense(t, ExpenseInput{Description: "Dinner", Amount: money.FromMajor(90), Payer: "A", Participants: []string{"A", "B", "C"}})

	gate := &gatedStore{Store: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	debts := NewDebtService(gate, 16, env.metrics)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := debts.GetDebts(firstCtx, models.Scope{}, true)
		firstErr <- err
	}()
	<-gate.entered

	type result struct {
		report *DebtReport
		err    error
	}
	second := make(chan result, 1)
	go func() {
		report, err := debts.GetDebts(context.Background(), models.Scope{}, true)
		second <- result{report, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(gate.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []models.Debt{
		{Debtor: "B", Creditor: "A", Amount: money.FromMajor(30)},
		{Debtor: "C", Creditor: "A", Amount: money.FromMajor(30)},
	}, got.report.Debts)
}

func TestFriendBalances(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.mustExpense(t, ExpenseInput{Description: "Movie", Amount: 90000, Payer: "Me", Participants: []string{"Me", "Kabir", "Leela"}})
	env.mustExpense(t, ExpenseInput{Description: "Popcorn", Amount: 20000, Payer: "Kabir", Participants: []string{"Me", "Kabir"}})

	balances, err := env.debts.FriendBalances(ctx, models.Scope{}, "Me")
	require.NoError(t, err)
	assert.Equal(t, []FriendBalance{
		{Name: "Kabir", Amount: 20000},
		{Name: "Leela", Amount: 30000},
	}, balances)

	_, err = env.debts.FriendBalances(ctx, models.Scope{}, " ")
	var validation *models.ValidationError
	assert.True(t, errors.As(err, &validation))
}
