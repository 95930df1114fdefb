package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/models"
)

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheZeroTTLPersists(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestSnapshotsConversationsFreshness(t *testing.T) {
	s := NewSnapshots(NewMemory(), 5*time.Minute)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	list := []models.ConversationSummary{{Conversation: models.Conversation{ID: "dm:a_b", Kind: models.KindDirect}}}
	require.NoError(t, s.PutConversations(ctx, "alice-uuid", list))

	// Three minutes old: still fresh.
	s.now = func() time.Time { return now.Add(3 * time.Minute) }
	got, fresh, err := s.GetConversations(ctx, "alice-uuid")
	require.NoError(t, err)
	assert.True(t, fresh)
	require.Len(t, got, 1)
	assert.Equal(t, "dm:a_b", got[0].ID)

	// Past the window: stale but still returned.
	s.now = func() time.Time { return now.Add(6 * time.Minute) }
	got, fresh, err = s.GetConversations(ctx, "alice-uuid")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Len(t, got, 1)
}

func TestSnapshotsMiss(t *testing.T) {
	s := NewSnapshots(NewMemory(), 5*time.Minute)

	_, _, err := s.GetConversations(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSnapshotsMessagesRoundTrip(t *testing.T) {
	s := NewSnapshots(NewMemory(), 5*time.Minute)
	ctx := context.Background()

	msgs := []models.Message{{ID: "msg-1", ConversationID: "dm:a_b", Body: "hello"}}
	require.NoError(t, s.PutMessages(ctx, "dm:a_b", msgs))

	got, err := s.GetMessages(ctx, "dm:a_b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Body)
}

func TestSnapshotsCorruptEntryIsAMiss(t *testing.T) {
	mem := NewMemory()
	s := NewSnapshots(mem, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, MessagesKey("c1"), "{not json", 0))
	_, err := s.GetMessages(ctx, "c1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSnapshotsInvalidate(t *testing.T) {
	s := NewSnapshots(NewMemory(), 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.PutConversations(ctx, "alice-uuid", nil))
	require.NoError(t, s.Invalidate(ctx, ConversationsKey("alice-uuid")))

	_, _, err := s.GetConversations(ctx, "alice-uuid")
	assert.ErrorIs(t, err, ErrMiss)
}
