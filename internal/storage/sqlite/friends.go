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

// CreateFriend registers a friend name in its scope. Names are unique per scope
// ignoring case.
func (s *SQLiteStore) CreateFriend(ctx context.Context, friend *models.Friend) error {
	if friend.ID == "" {
		friend.ID = uuid.New().String()
	}
	if friend.CreatedAt == 0 {
		friend.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, "create friend", func(tx *sql.Tx) error {
		known, err := friendExists(ctx, tx, friend.GroupID, friend.Name)
		if err != nil {
			return err
		}
		if known {
			return models.ErrConflict("friend already exists: %s", friend.Name)
		}
		return insertFriend(ctx, tx, friend)
	})
}

// AddFriends registers every name not already known in the group's scope.
// It returns the names that were added.
func (s *SQLiteStore) AddFriends(ctx context.Context, groupID string, names []string) ([]string, error) {
	var added []string
	err := s.inTx(ctx, "add friends", func(tx *sql.Tx) error {
		added = added[:0]
		now := time.Now().Unix()
		for _, name := range names {
			known, err := friendExists(ctx, tx, groupID, name)
			if err != nil {
				return err
			}
			if known {
				continue
			}
			friend := &models.Friend{
				ID:        uuid.New().String(),
				Name:      name,
				GroupID:   groupID,
				CreatedAt: now,
			}
			if err := insertFriend(ctx, tx, friend); err != nil {
				return err
			}
			added = append(added, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ListFriends retrieves the friends in scope sorted by name.
func (s *SQLiteStore) ListFriends(ctx context.Context, scope models.Scope) ([]*models.Friend, error) {
	where, args := scopeFilter(scope, "group_id")
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, group_id, created_at FROM friends"+where+" ORDER BY name COLLATE NOCASE, name",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.Friend
	for rows.Next() {
		friend := &models.Friend{}
		var groupID sql.NullString
		if err := rows.Scan(&friend.ID, &friend.Name, &groupID, &friend.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friend.GroupID = groupID.String
		friends = append(friends, friend)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}

func friendExists(ctx context.Context, q querier, groupID, name string) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM friends WHERE COALESCE(group_id, '') = ? AND LOWER(name) = ?",
		groupID, strings.ToLower(name),
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check friend existence: %w", err)
	}
	return true, nil
}

func insertFriend(ctx context.Context, q querier, friend *models.Friend) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO friends (id, name, group_id, created_at) VALUES (?, ?, ?, ?)",
		friend.ID, friend.Name, nullable(friend.GroupID), friend.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert friend: %w", err)
	}
	return nil
}
