package cache

import (
	"context"
	"encoding/json"
	"time"

	"supportdesk/internal/models"
)

// Snapshots wraps a Cache with JSON encoding and the staleness rules of the
// dashboard views. Conversation lists are fresh inside a fixed window;
// message snapshots carry no window and are always a display hint while a
// remote fetch is in flight.
type Snapshots struct {
	cache  Cache
	window time.Duration
	now    func() time.Time
}

type envelope struct {
	CachedAt time.Time       `json:"cached_at"`
	Data     json.RawMessage `json:"data"`
}

// NewSnapshots builds the snapshot layer. window is the freshness window
// for conversation lists.
func NewSnapshots(c Cache, window time.Duration) *Snapshots {
	return &Snapshots{cache: c, window: window, now: time.Now}
}

// ConversationsKey keys the conversation-list snapshot of one user.
func ConversationsKey(userID string) string {
	return "conversations:" + userID
}

// MessagesKey keys the message snapshot of one conversation.
func MessagesKey(conversationID string) string {
	return "messages:" + conversationID
}

// GetConversations returns the cached list for a user and whether the
// snapshot is still inside the freshness window. A stale snapshot is still
// returned: callers keep painting it when the remote fetch fails.
func (s *Snapshots) GetConversations(ctx context.Context, userID string) ([]models.ConversationSummary, bool, error) {
	var list []models.ConversationSummary
	cachedAt, err := s.get(ctx, ConversationsKey(userID), &list)
	if err != nil {
		return nil, false, err
	}
	fresh := s.now().Sub(cachedAt) < s.window
	return list, fresh, nil
}

// PutConversations replaces the cached list for a user.
func (s *Snapshots) PutConversations(ctx context.Context, userID string, list []models.ConversationSummary) error {
	return s.put(ctx, ConversationsKey(userID), list)
}

// GetMessages returns the cached message snapshot for a conversation.
func (s *Snapshots) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	if _, err := s.get(ctx, MessagesKey(conversationID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PutMessages replaces the cached message snapshot for a conversation.
func (s *Snapshots) PutMessages(ctx context.Context, conversationID string, msgs []models.Message) error {
	return s.put(ctx, MessagesKey(conversationID), msgs)
}

// Invalidate drops the given snapshot keys.
func (s *Snapshots) Invalidate(ctx context.Context, keys ...string) error {
	return s.cache.Del(ctx, keys...)
}

func (s *Snapshots) get(ctx context.Context, key string, out any) (time.Time, error) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// A corrupt snapshot is no better than a miss.
		_ = s.cache.Del(ctx, key)
		return time.Time{}, ErrMiss
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		_ = s.cache.Del(ctx, key)
		return time.Time{}, ErrMiss
	}
	return env.CachedAt, nil
}

func (s *Snapshots) put(ctx context.Context, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{CachedAt: s.now(), Data: payload})
	if err != nil {
		return err
	}
	// Snapshots outlive the freshness window on purpose: a stale copy is
	// still the fallback when the remote fetch fails.
	return s.cache.Set(ctx, key, string(raw), 0)
}
