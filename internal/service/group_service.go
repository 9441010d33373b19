package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/storage"
)

const (
	maxGroupNameLength = 50
	groupCodeBytes     = 3
	maxCodeAttempts    = 5
)

// GroupService manages groups, the scopes that ledger records belong to.
type GroupService struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics

	// newCode is swapped in tests to force collisions.
	newCode func() (string, error)
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, publisher events.Publisher, m *metrics.Metrics) *GroupService {
	return &GroupService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		newCode:   randomGroupCode,
	}
}

// CreateGroup creates a new group with a fresh join code.
func (s *GroupService) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	slog.Info("CreateGroup request received", "name", name)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrValidation("group name is required")
	}
	if utf8.RuneCountInString(name) > maxGroupNameLength {
		return nil, models.ErrValidation("group name must be at most %d characters", maxGroupNameLength)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate group code: %w", err)
		}

		group := &models.Group{Name: name, Code: code}
		err = s.store.CreateGroup(ctx, group)
		if err == nil {
			slog.Info("Group created", "group_id", group.ID, "code", group.Code)
			return group, nil
		}

		var conflict *models.ConflictError
		if !errors.As(err, &conflict) {
			slog.Error("CreateGroup failed", "error", err)
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
		slog.Debug("Group code collision, retrying", "code", code, "attempt", attempt)
	}

	return nil, fmt.Errorf("failed to create group: no free join code after %d attempts", maxCodeAttempts)
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	slog.Info("GetGroup request received", "group_id", groupID)
	return s.store.GetGroup(ctx, groupID)
}

// FindGroupByCode looks a group up by its join code, ignoring case.
func (s *GroupService) FindGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	slog.Info("FindGroupByCode request received", "code", code)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, models.ErrValidation("code is required")
	}
	return s.store.GetGroupByCode(ctx, code)
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return groups, nil
}

// DeleteGroup removes a group together with its ledger records and friends.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	slog.Info("DeleteGroup request received", "group_id", groupID)

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	s.metrics.LedgerWrites.WithLabelValues("group_delete").Inc()

	slog.Info("Group deleted", "group_id", groupID)
	publish(ctx, s.publisher, s.metrics, events.NewGroupDeleted(groupID))
	return nil
}

// randomGroupCode returns 6 uppercase hex characters.
func randomGroupCode() (string, error) {
	b := make([]byte, groupCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
