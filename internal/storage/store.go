// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/mmynk/splitease/internal/models"
)

// Snapshot is a consistent view of a scope's ledger at one version.
type Snapshot struct {
	Expenses    []*models.Expense
	Settlements []*models.Settlement

	// Version is the ledger version the snapshot was read at.
	Version int64
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
//
// Expenses and settlements are append-only. The only way to remove ledger
// records is to delete the group they belong to.
type Store interface {
	// CreateExpense persists a new expense with its shares.
	// ID and CreatedAt are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns the expenses in scope, newest first.
	ListExpenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error)

	// CreateSettlement persists a new settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements returns the settlements in scope, newest first.
	ListSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error)

	// LedgerSnapshot reads expenses, settlements and the ledger version in
	// one read transaction.
	LedgerSnapshot(ctx context.Context, scope models.Scope) (*Snapshot, error)

	// LedgerVersion returns the current ledger version. Every ledger write
	// increments it.
	LedgerVersion(ctx context.Context) (int64, error)

	// Group operations
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group with its expenses, settlements and friends.
	DeleteGroup(ctx context.Context, groupID string) error

	// Friend operations
	CreateFriend(ctx context.Context, friend *models.Friend) error
	ListFriends(ctx context.Context, scope models.Scope) ([]*models.Friend, error)

	// AddFriends registers every name not yet known in the group's scope and
	// returns the names that were added.
	AddFriends(ctx context.Context, groupID string, names []string) ([]string, error)

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
