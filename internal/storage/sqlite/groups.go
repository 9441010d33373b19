package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitease/internal/models"
)

// CreateGroup persists a new group. The caller supplies the join code; a
// duplicate code is reported as a ConflictError so the caller can retry.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.Code = strings.ToUpper(group.Code)

	return s.inTx(ctx, "create group", func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE code = ?", group.Code).Scan(&exists)
		if err == nil {
			return models.ErrConflict("group code already in use: %s", group.Code)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check group code: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO groups (id, name, code, created_at) VALUES (?, ?, ?, ?)",
			group.ID, group.Name, group.Code, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		return nil
	})
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, "id = ?", groupID)
}

// GetGroupByCode retrieves a group by its join code, ignoring case.
func (s *SQLiteStore) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	return s.getGroup(ctx, "code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (s *SQLiteStore) getGroup(ctx context.Context, where string, arg string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, code, created_at FROM groups WHERE "+where,
		arg,
	).Scan(&group.ID, &group.Name, &group.Code, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound("group not found: %s", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroups retrieves every group, newest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, code, created_at FROM groups ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Code, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// DeleteGroup removes a group. Its expenses, settlements and friends go with it
// through ON DELETE CASCADE, so the ledger version is bumped.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	return s.inTx(ctx, "delete group", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check deleted rows: %w", err)
		}
		if n == 0 {
			return models.ErrNotFound("group not found: %s", groupID)
		}
		return bumpVersion(ctx, tx)
	})
}
