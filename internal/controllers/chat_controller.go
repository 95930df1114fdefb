// Package controllers holds the state machines behind the dashboard's
// views: one open conversation with its live timeline, and the cached
// conversation list.
package controllers

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"supportdesk/internal/backend"
	"supportdesk/internal/cache"
	"supportdesk/internal/models"
	"supportdesk/internal/realtime"
	"supportdesk/internal/repositories"
	"supportdesk/internal/timeline"
)

// ErrMissingIdentifiers is returned when a chat is opened without both
// participant ids resolved.
var ErrMissingIdentifiers = errors.New("chat requires both participant ids")

// ErrChatClosed is returned by operations on a controller after Close.
var ErrChatClosed = errors.New("chat is closed")

// ChatController drives one open conversation: it ensures the conversation
// exists, loads history, stages optimistic sends and keeps the timeline in
// sync with realtime inserts.
type ChatController struct {
	client        backend.Client
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	snapshots     *cache.Snapshots
	log           *zap.Logger

	mu             sync.Mutex
	conversationID string
	userID         string
	peerID         string
	timeline       *timeline.Timeline
	bridge         *realtime.Bridge
	closed         bool
	notify         func()
}

// NewChatController wires a controller over the shared repositories.
// notify, when non-nil, fires whenever the timeline changes underneath the
// caller (realtime inserts), so the view can repaint.
func NewChatController(client backend.Client, conversations repositories.ConversationRepository, messages repositories.MessageRepository, snapshots *cache.Snapshots, notify func()) *ChatController {
	return &ChatController{
		client:        client,
		conversations: conversations,
		messages:      messages,
		snapshots:     snapshots,
		log:           zap.L(),
		timeline:      timeline.New(),
		notify:        notify,
	}
}

// Open resolves the direct conversation between userID and peerID, loads
// its history and attaches the realtime feed. History comes from the
// backend when reachable; otherwise a cached snapshot is shown until the
// next successful fetch.
func (c *ChatController) Open(ctx context.Context, userID, peerID string) (string, error) {
	if userID == "" || peerID == "" {
		return "", ErrMissingIdentifiers
	}

	adoption, err := c.conversations.EnsureDirect(ctx, userID, peerID)
	if err != nil && adoption.ID == "" {
		return "", err
	}
	if err != nil {
		// Best-effort id: the view opens, sends stay pending until the
		// backend comes back.
		c.log.Warn("conversation not persisted, opening best effort",
			zap.String("conversation_id", adoption.ID), zap.Error(err))
	}

	if ok, perr := c.conversations.IsParticipant(ctx, adoption.ID, userID); perr == nil && !ok {
		// Membership rows may lag the conversation row; the backend
		// enforces access on every operation, so log and continue.
		c.log.Warn("participant row not visible yet",
			zap.String("conversation_id", adoption.ID), zap.String("user_id", userID))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrChatClosed
	}
	if c.bridge != nil {
		c.bridge.Close()
	}
	c.conversationID = adoption.ID
	c.userID = userID
	c.peerID = peerID
	c.timeline = timeline.New()
	tl := c.timeline
	c.bridge = realtime.Attach(c.client, adoption.ID, tl, c.notify)
	c.mu.Unlock()

	history, herr := c.messages.List(ctx, adoption.ID, 0)
	if herr != nil {
		if c.snapshots != nil {
			if cached, cerr := c.snapshots.GetMessages(ctx, adoption.ID); cerr == nil {
				c.log.Info("serving message history from cache",
					zap.String("conversation_id", adoption.ID))
				tl.Reset(cached)
				return adoption.ID, nil
			}
		}
		return adoption.ID, herr
	}

	tl.Reset(history)
	if c.snapshots != nil {
		if cerr := c.snapshots.PutMessages(ctx, adoption.ID, history); cerr != nil {
			c.log.Warn("message snapshot write failed", zap.Error(cerr))
		}
	}
	return adoption.ID, nil
}

// Send stages body optimistically and persists it. On success the pending
// entry adopts the backend's id and timestamp; on failure the placeholder
// leaves the visible list, the error is returned to the caller and the
// draft is kept in FailedDrafts for retry.
func (c *ChatController) Send(ctx context.Context, body, kind string) (models.Message, error) {
	c.mu.Lock()
	if c.closed || c.conversationID == "" {
		c.mu.Unlock()
		return models.Message{}, ErrChatClosed
	}
	draft := models.Message{
		ConversationID: c.conversationID,
		SenderID:       c.userID,
		ReceiverID:     c.peerID,
		Body:           body,
		Kind:           kind,
	}
	tl := c.timeline
	c.mu.Unlock()

	localID := tl.Stage(draft)

	msg, err := c.messages.Create(ctx, draft)

	c.mu.Lock()
	stale := c.closed || c.timeline != tl
	c.mu.Unlock()
	if stale {
		// The conversation was closed or reopened mid-send; the result
		// belongs to a timeline nobody is showing anymore.
		return msg, err
	}

	if err != nil {
		tl.Rollback(localID)
		return models.Message{}, err
	}
	tl.Resolve(localID, msg)
	return msg, nil
}

// Retry re-sends a failed draft identified by its local id.
func (c *ChatController) Retry(ctx context.Context, localID string) (models.Message, error) {
	c.mu.Lock()
	tl := c.timeline
	c.mu.Unlock()

	var draft models.Message
	found := false
	for _, e := range tl.FailedDrafts() {
		if e.LocalID == localID {
			draft = e.Message
			found = true
			break
		}
	}
	if !found {
		return models.Message{}, errors.New("no failed draft to retry")
	}

	tl.Remove(localID)
	return c.Send(ctx, draft.Body, draft.Kind)
}

// Dismiss drops a failed draft.
func (c *ChatController) Dismiss(localID string) {
	c.mu.Lock()
	tl := c.timeline
	c.mu.Unlock()
	tl.Remove(localID)
}

// Entries returns the visible timeline in display order.
func (c *ChatController) Entries() []timeline.Entry {
	c.mu.Lock()
	tl := c.timeline
	c.mu.Unlock()
	return tl.Entries()
}

// FailedDrafts returns sends that were rolled back, for the view's retry
// affordance.
func (c *ChatController) FailedDrafts() []timeline.Entry {
	c.mu.Lock()
	tl := c.timeline
	c.mu.Unlock()
	return tl.FailedDrafts()
}

// ConversationID returns the id of the open conversation, empty before
// Open succeeds.
func (c *ChatController) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Close detaches the realtime feed. Late send results are discarded.
func (c *ChatController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.bridge != nil {
		c.bridge.Close()
		c.bridge = nil
	}
}
