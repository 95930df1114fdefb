// Package realtime feeds backend change events into an open conversation's
// timeline.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"supportdesk/internal/backend"
	"supportdesk/internal/repositories"
	"supportdesk/internal/timeline"
)

// Bridge ties one conversation's insert stream to its timeline. It lives
// exactly as long as the conversation is open; closing it tears the
// subscription down. The bridge never resubscribes on its own — when the
// backend drops the channel the owner reopens the conversation, which
// refetches history and attaches a fresh bridge.
type Bridge struct {
	sub    backend.Subscription
	mu     sync.Mutex
	closed bool
}

// Attach subscribes to message inserts for conversationID and applies each
// one to the timeline. notify, when non-nil, fires after every insert that
// changed the timeline, so the owner can repaint.
func Attach(client backend.Client, conversationID string, tl *timeline.Timeline, notify func()) *Bridge {
	b := &Bridge{}

	b.sub = client.Subscribe(backend.TableMessages, backend.Filter{"conversation_id": conversationID}, func(row backend.Row) {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		msg := repositories.MessageFromRow(row)
		if msg.ID == "" {
			zap.L().Warn("realtime insert without id dropped", zap.String("conversation_id", conversationID))
			return
		}
		if tl.ApplyInsert(msg) && notify != nil {
			notify()
		}
	})
	return b
}

// Close tears down the subscription. Events already in flight are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.sub.Unsubscribe()
}
