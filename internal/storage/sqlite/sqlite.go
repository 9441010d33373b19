// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	moderncsqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	busyTimeoutMillis = 5000
	maxAttempts       = 3
	retryBackoff      = 50 * time.Millisecond
)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if _, err := Migrate(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection keeps
	// transactions from tripping over each other inside this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// dsn builds a modernc DSN with foreign keys, WAL and a busy timeout.
func dsn(dbPath string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + dbPath + "?" + params.Encode()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LedgerVersion returns the current ledger version.
func (s *SQLiteStore) LedgerVersion(ctx context.Context) (int64, error) {
	return ledgerVersion(ctx, s.db)
}

// LedgerSnapshot reads a scope's expenses and settlements together with the
// ledger version in a single transaction.
func (s *SQLiteStore) LedgerSnapshot(ctx context.Context, scope models.Scope) (*storage.Snapshot, error) {
	var snapshot *storage.Snapshot
	err := s.withRetry(ctx, "ledger snapshot", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		version, err := ledgerVersion(ctx, tx)
		if err != nil {
			return err
		}
		expenses, err := listExpenses(ctx, tx, scope)
		if err != nil {
			return err
		}
		settlements, err := listSettlements(ctx, tx, scope)
		if err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		snapshot = &storage.Snapshot{
			Expenses:    expenses,
			Settlements: settlements,
			Version:     version,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// inTx runs fn inside a write transaction, retrying transient lock errors.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return s.withRetry(ctx, op, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// withRetry retries fn on SQLITE_BUSY and SQLITE_LOCKED with linear backoff.
// Any other error is returned immediately.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		slog.Warn("database busy, retrying", "op", op, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func isTransient(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func ledgerVersion(ctx context.Context, q querier) (int64, error) {
	var version int64
	if err := q.QueryRowContext(ctx, "SELECT version FROM ledger_version WHERE id = 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read ledger version: %w", err)
	}
	return version, nil
}

// bumpVersion increments the ledger version. Called inside every ledger write.
func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "UPDATE ledger_version SET version = version + 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", err)
	}
	return nil
}

// scopeFilter returns the WHERE clause restricting rows to scope.
func scopeFilter(scope models.Scope, column string) (string, []any) {
	if scope.Global() {
		return "", nil
	}
	return " WHERE " + column + " = ?", []any{scope.GroupID}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
