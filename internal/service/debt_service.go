package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/splitease/internal/cache"
	"github.com/mmynk/splitease/internal/calculator"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/storage"
)

// Mode says how a DebtReport's debts were produced.
type Mode string

const (
	// ModeOptimized debts come from net settlement across the whole scope.
	ModeOptimized Mode = "optimized"
	// ModePairwise debts are the raw pairwise balances, one per ordered pair.
	ModePairwise Mode = "pairwise"
)

// ModeFor maps the optimize query flag to a Mode.
func ModeFor(optimize bool) Mode {
	if optimize {
		return ModeOptimized
	}
	return ModePairwise
}

// DebtReport is the result of a debt query. Reports may be shared between
// callers through the cache and must be treated as read-only.
type DebtReport struct {
	Mode     Mode
	Scope    models.Scope
	Debts    []models.Debt
	Balances map[string]money.Amount
	Version  int64
}

// FriendBalance is one counterparty's balance relative to a single identity.
// Positive Amount means the friend owes that identity.
type FriendBalance struct {
	Name   string
	Amount money.Amount
}

type debtKey struct {
	scope   string
	mode    Mode
	version int64
}

// DebtService computes debts from ledger snapshots. Reports are cached per
// (scope, mode, ledger version) so a write is never followed by a stale read.
type DebtService struct {
	store   storage.Store
	cache   *cache.LRU[debtKey, *DebtReport]
	flight  singleflight.Group
	metrics *metrics.Metrics
}

// NewDebtService creates a DebtService caching up to cacheSize reports.
func NewDebtService(store storage.Store, cacheSize int, m *metrics.Metrics) *DebtService {
	return &DebtService{
		store:   store,
		cache:   cache.NewLRU[debtKey, *DebtReport](cacheSize),
		metrics: m,
	}
}

// GetDebts returns who owes whom in scope. An unknown group yields an empty
// report. A ComputationError means the ledger produced inconsistent balances;
// no partial report is ever returned.
func (s *DebtService) GetDebts(ctx context.Context, scope models.Scope, optimize bool) (*DebtReport, error) {
	mode := ModeFor(optimize)
	slog.Info("GetDebts request received", "scope", scope.Key(), "mode", mode)

	version, err := s.store.LedgerVersion(ctx)
	if err != nil {
		slog.Error("GetDebts failed", "scope", scope.Key(), "error", err)
		return nil, fmt.Errorf("failed to read ledger version: %w", err)
	}

	key := debtKey{scope: scope.Key(), mode: mode, version: version}
	if report, ok := s.cache.Get(key); ok {
		s.metrics.DebtCacheHits.Inc()
		return report, nil
	}

	// The computation is shared by every caller that joins the flight, so it
	// must not inherit the first caller's cancellation.
	flightKey := fmt.Sprintf("%s|%s|%d", key.scope, key.mode, key.version)
	ch := s.flight.DoChan(flightKey, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), scope, mode)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DebtReport), nil
	}
}

func (s *DebtService) compute(ctx context.Context, scope models.Scope, mode Mode) (*DebtReport, error) {
	snapshot, err := s.store.LedgerSnapshot(ctx, scope)
	if err != nil {
		slog.Error("GetDebts failed", "scope", scope.Key(), "error", err)
		s.metrics.DebtComputations.WithLabelValues(string(mode), "error").Inc()
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	balances := accumulate(snapshot)
	if err := balances.Verify(); err != nil {
		slog.Error("Ledger balances are inconsistent", "scope", scope.Key(), "version", snapshot.Version, "error", err)
		s.metrics.DebtComputations.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}

	var debts []models.Debt
	switch mode {
	case ModeOptimized:
		debts, err = calculator.Simplify(balances.Nets())
		if err != nil {
			slog.Error("Debt simplification failed", "scope", scope.Key(), "version", snapshot.Version, "error", err)
			s.metrics.DebtComputations.WithLabelValues(string(mode), "error").Inc()
			return nil, err
		}
	case ModePairwise:
		debts = calculator.Pairwise(balances)
	}
	if debts == nil {
		debts = []models.Debt{}
	}

	report := &DebtReport{
		Mode:     mode,
		Scope:    scope,
		Debts:    debts,
		Balances: balances.Nets(),
		Version:  snapshot.Version,
	}

	s.cache.Add(debtKey{scope: scope.Key(), mode: mode, version: snapshot.Version}, report)
	s.metrics.DebtComputations.WithLabelValues(string(mode), "ok").Inc()
	s.metrics.DebtsEmitted.Observe(float64(len(debts)))

	slog.Info("Debts computed",
		"scope", scope.Key(),
		"mode", mode,
		"version", snapshot.Version,
		"identities", len(report.Balances),
		"debts", len(debts),
	)
	return report, nil
}

// FriendBalances returns identity's balance with every counterparty in scope,
// sorted by name.
func (s *DebtService) FriendBalances(ctx context.Context, scope models.Scope, identity string) ([]FriendBalance, error) {
	identity = strings.TrimSpace(identity)
	slog.Info("FriendBalances request received", "scope", scope.Key(), "identity", identity)

	if identity == "" {
		return nil, models.ErrValidation("name is required")
	}

	snapshot, err := s.store.LedgerSnapshot(ctx, scope)
	if err != nil {
		slog.Error("FriendBalances failed", "scope", scope.Key(), "error", err)
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	balances := accumulate(snapshot)
	if err := balances.Verify(); err != nil {
		slog.Error("Ledger balances are inconsistent", "scope", scope.Key(), "version", snapshot.Version, "error", err)
		return nil, err
	}

	counterparties := balances.RelativeTo(identity)
	out := make([]FriendBalance, len(counterparties))
	for i, cp := range counterparties {
		out[i] = FriendBalance{Name: cp.Identity, Amount: cp.Amount}
	}
	return out, nil
}

// accumulate converts a snapshot into calculator inputs and builds the balance matrix.
func accumulate(snapshot *storage.Snapshot) *calculator.Balances {
	expenses := make([]calculator.ExpenseForBalance, len(snapshot.Expenses))
	for i, e := range snapshot.Expenses {
		shares := make([]calculator.ShareForBalance, len(e.Shares))
		for j, share := range e.Shares {
			shares[j] = calculator.ShareForBalance{Participant: share.Participant, Amount: share.Amount}
		}
		expenses[i] = calculator.ExpenseForBalance{Payer: e.Payer, Amount: e.Amount, Shares: shares}
	}

	settlements := make([]calculator.SettlementForBalance, len(snapshot.Settlements))
	for i, st := range snapshot.Settlements {
		settlements[i] = calculator.SettlementForBalance{FromUser: st.FromUser, ToUser: st.ToUser, Amount: st.Amount}
	}

	return calculator.Accumulate(expenses, settlements)
}
