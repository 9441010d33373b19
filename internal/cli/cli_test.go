package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitease/internal/config"
	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/service"
	"github.com/mmynk/splitease/internal/storage/sqlite"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "splitease-cli-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "data", "splitease.db")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, dbPath string) {
	t.Helper()
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ledger := service.NewLedgerService(store, events.NoopPublisher{}, metrics.New())
	_, err = ledger.CreateExpense(context.Background(), service.ExpenseInput{
		Description:  "Groceries",
		Amount:       money.FromMajor(300),
		Payer:        "A",
		Participants: []string{"A", "B", "C"},
	})
	require.NoError(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "splitease version dev (commit: none)\n", out)
}

func TestMigrateCmd(t *testing.T) {
	t.Setenv("DB_PATH", tempDBPath(t))

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema at version 1\n", out)

	out, err = run(t, "migrate")
	require.NoError(t, err, "migrate is idempotent")
	assert.Equal(t, "schema at version 1\n", out)
}

func TestDebtsCmd(t *testing.T) {
	dbPath := tempDBPath(t)
	t.Setenv("DB_PATH", dbPath)
	seed(t, dbPath)

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "debts")
		require.NoError(t, err)
		assert.Contains(t, out, "DEBTOR")
		assert.Regexp(t, `B\s+A\s+100\.00`, out)
		assert.Regexp(t, `C\s+A\s+100\.00`, out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "debts", "--json", "--optimize=false")
		require.NoError(t, err)

		var got struct {
			Mode  string `json:"mode"`
			Debts []struct {
				Debtor string `json:"debtor"`
			} `json:"debts"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "pairwise", got.Mode)
		assert.Len(t, got.Debts, 2)
	})

	t.Run("settled group", func(t *testing.T) {
		out, err := run(t, "debts", "--group", "unknown")
		require.NoError(t, err)
		assert.Equal(t, "All settled up.\n", out)
	})
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	t.Setenv("DB_PATH", tempDBPath(t))
	t.Setenv("LOG_FORMAT", "xml")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid log format"), err.Error())
}

func TestNewApp(t *testing.T) {
	cfg := config.Load()
	cfg.DBPath = tempDBPath(t)
	cfg.AMQPURL = ""

	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := strings.NewReader(`{"groupId":""}`)
	req := httptest.NewRequest(http.MethodPost, "/splitease.v1.LedgerService/GetDebts", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"mode":"optimized","debts":[],"balances":{},"version":0}`, rec.Body.String())
}
