package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/storage"
)

// FriendService manages the identity registry clients pick participants from.
type FriendService struct {
	store storage.Store
}

// NewFriendService creates a new FriendService.
func NewFriendService(store storage.Store) *FriendService {
	return &FriendService{store: store}
}

// AddFriend registers name in the group's scope, or globally when groupID is empty.
func (s *FriendService) AddFriend(ctx context.Context, name, groupID string) (*models.Friend, error) {
	slog.Info("AddFriend request received", "name", name, "group_id", groupID)

	name = strings.TrimSpace(name)
	if err := validateIdentity("name", name); err != nil {
		return nil, err
	}
	if groupID != "" {
		if _, err := s.store.GetGroup(ctx, groupID); err != nil {
			return nil, err
		}
	}

	friend := &models.Friend{Name: name, GroupID: groupID}
	if err := s.store.CreateFriend(ctx, friend); err != nil {
		slog.Warn("AddFriend failed", "name", name, "error", err)
		return nil, err
	}

	slog.Info("Friend added", "friend_id", friend.ID, "name", friend.Name)
	return friend, nil
}

// ListFriends returns the friends in scope sorted by name.
func (s *FriendService) ListFriends(ctx context.Context, scope models.Scope) ([]*models.Friend, error) {
	slog.Info("ListFriends request received", "scope", scope.Key())

	friends, err := s.store.ListFriends(ctx, scope)
	if err != nil {
		slog.Error("ListFriends failed", "error", err)
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}
