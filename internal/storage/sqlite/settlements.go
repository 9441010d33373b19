package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitease/internal/models"
)

// CreateSettlement persists a new settlement and bumps the ledger version.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, "create settlement", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, group_id, from_user, to_user, amount, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, nullable(settlement.GroupID), settlement.FromUser, settlement.ToUser,
			int64(settlement.Amount), nullable(settlement.Note), settlement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		return bumpVersion(ctx, tx)
	})
}

// ListSettlements retrieves the settlements in scope, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error) {
	var settlements []*models.Settlement
	err := s.withRetry(ctx, "list settlements", func() error {
		var err error
		settlements, err = listSettlements(ctx, s.db, scope)
		return err
	})
	return settlements, err
}

func listSettlements(ctx context.Context, q querier, scope models.Scope) ([]*models.Settlement, error) {
	where, args := scopeFilter(scope, "group_id")
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, from_user, to_user, amount, note, created_at
		 FROM settlements`+where+` ORDER BY created_at DESC, rowid DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var groupID, note sql.NullString

		if err := rows.Scan(&settlement.ID, &groupID, &settlement.FromUser, &settlement.ToUser,
			&settlement.Amount, &note, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		settlement.GroupID = groupID.String
		if note.Valid {
			settlement.Note = note.String
		}

		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
