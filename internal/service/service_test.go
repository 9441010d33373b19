package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitease/internal/auth"
	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/storage/sqlite"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store     *sqlite.SQLiteStore
	metrics   *metrics.Metrics
	publisher *recordingPublisher
	ledger    *LedgerService
	debts     *DebtService
	groups    *GroupService
	friends   *FriendService
	auth      *AuthService
	jwt       *auth.JWTManager
}

// setupTestEnv wires every service against a fresh temp database.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Create temp database
	tmpFile, err := os.CreateTemp("", "splitease-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
		os.Remove(tmpFile.Name() + "-wal")
		os.Remove(tmpFile.Name() + "-shm")
	})

	m := metrics.New()
	publisher := &recordingPublisher{}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		store:     store,
		metrics:   m,
		publisher: publisher,
		ledger:    NewLedgerService(store, publisher, m),
		debts:     NewDebtService(store, 16, m),
		groups:    NewGroupService(store, publisher, m),
		friends:   NewFriendService(store),
		auth:      NewAuthService(authenticator, jwtManager, store, logger),
		jwt:       jwtManager,
	}
}

func (e *testEnv) mustExpense(t *testing.T, in ExpenseInput) {
	t.Helper()
	_, err := e.ledger.CreateExpense(context.Background(), in)
	require.NoError(t, err)
}

func (e *testEnv) mustSettle(t *testing.T, in SettlementInput) {
	t.Helper()
	_, err := e.ledger.CreateSettlement(context.Background(), in)
	require.NoError(t, err)
}
