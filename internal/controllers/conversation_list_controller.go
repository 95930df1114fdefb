package controllers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"supportdesk/internal/cache"
	"supportdesk/internal/models"
	"supportdesk/internal/observability"
	"supportdesk/internal/repositories"
)

// ConversationListController serves a user's conversation list with a
// cache-first read path: fresh snapshots are returned immediately and
// refreshed in the background, stale snapshots paper over backend outages.
type ConversationListController struct {
	conversations repositories.ConversationRepository
	snapshots     *cache.Snapshots
	log           *zap.Logger
}

// NewConversationListController wires the list controller.
func NewConversationListController(conversations repositories.ConversationRepository, snapshots *cache.Snapshots) *ConversationListController {
	return &ConversationListController{
		conversations: conversations,
		snapshots:     snapshots,
		log:           zap.L(),
	}
}

// List returns the user's conversations ordered by most recent activity.
// A fresh snapshot short-circuits the backend entirely; behind it a
// background refresh keeps the snapshot warm. When the backend fails, a
// stale snapshot is served silently. Only a failure with no snapshot at
// all surfaces an error.
func (c *ConversationListController) List(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	cached, fresh, cacheErr := c.snapshots.GetConversations(ctx, userID)
	if cacheErr == nil && fresh {
		observability.IncCacheLookup("conversations", "fresh")
		go c.refresh(userID)
		return cached, nil
	}

	list, err := c.conversations.ListForUser(ctx, userID)
	if err != nil {
		if cacheErr == nil {
			observability.IncCacheLookup("conversations", "stale")
			c.log.Warn("serving stale conversation list",
				zap.String("user_id", userID), zap.Error(err))
			return cached, nil
		}
		observability.IncCacheLookup("conversations", "miss")
		return nil, err
	}

	observability.IncCacheLookup("conversations", "backend")
	if err := c.snapshots.PutConversations(ctx, userID, list); err != nil {
		c.log.Warn("conversation snapshot write failed", zap.Error(err))
	}
	return list, nil
}

// Invalidate drops the user's snapshot so the next List hits the backend.
func (c *ConversationListController) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.ConversationsKey(id))
	}
	if err := c.snapshots.Invalidate(ctx, keys...); err != nil && !errors.Is(err, cache.ErrMiss) {
		c.log.Warn("snapshot invalidation failed", zap.Error(err))
	}
}

func (c *ConversationListController) refresh(userID string) {
	ctx := context.Background()
	list, err := c.conversations.ListForUser(ctx, userID)
	if err != nil {
		c.log.Debug("background list refresh failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := c.snapshots.PutConversations(ctx, userID, list); err != nil {
		c.log.Debug("background snapshot write failed", zap.Error(err))
	}
}
