package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitease/internal/models"
)

// CreateExpense persists a new expense and its shares, and bumps the ledger version.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate ID if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, "create expense", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, description, amount, payer, group_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.Description, int64(expense.Amount), expense.Payer,
			nullable(expense.GroupID), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, share := range expense.Shares {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_shares (expense_id, position, participant, amount) VALUES (?, ?, ?, ?)",
				expense.ID, i, share.Participant, int64(share.Amount),
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense share: %w", err)
			}
		}

		return bumpVersion(ctx, tx)
	})
}

// ListExpenses retrieves the expenses in scope with their shares, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.withRetry(ctx, "list expenses", func() error {
		var err error
		expenses, err = listExpenses(ctx, s.db, scope)
		return err
	})
	return expenses, err
}

func listExpenses(ctx context.Context, q querier, scope models.Scope) ([]*models.Expense, error) {
	where, args := scopeFilter(scope, "group_id")
	rows, err := q.QueryContext(ctx,
		`SELECT id, description, amount, payer, group_id, created_at
		 FROM expenses`+where+` ORDER BY created_at DESC, rowid DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense := &models.Expense{}
		var groupID sql.NullString
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.Payer,
			&groupID, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.GroupID = groupID.String
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if len(expenses) == 0 {
		return expenses, nil
	}

	where, args = scopeFilter(scope, "e.group_id")
	shareRows, err := q.QueryContext(ctx,
		`SELECT s.expense_id, s.participant, s.amount
		 FROM expense_shares s JOIN expenses e ON e.id = s.expense_id`+where+`
		 ORDER BY s.expense_id, s.position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var expenseID string
		var share models.Share
		if err := shareRows.Scan(&expenseID, &share.Participant, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		expense, ok := byID[expenseID]
		if !ok {
			continue
		}
		expense.Shares = append(expense.Shares, share)
		expense.Participants = append(expense.Participants, share.Participant)
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return expenses, nil
}
