package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/models"
)

func text(id, sender, body string, at time.Time) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "dm:a_b",
		SenderID:       sender,
		Body:           body,
		Kind:           models.MessageText,
		CreatedAt:      at,
	}
}

func TestStageThenResolve(t *testing.T) {
	tl := New()
	localID := tl.Stage(text("", "alice", "hello", time.Time{}))

	entries := tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Pending, entries[0].State)
	assert.Empty(t, entries[0].ID)

	confirmed := text("msg-1", "alice", "hello", time.Now().UTC())
	tl.Resolve(localID, confirmed)

	entries = tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Confirmed, entries[0].State)
	assert.Equal(t, "msg-1", entries[0].ID)
	assert.Equal(t, confirmed.CreatedAt, entries[0].CreatedAt)
}

func TestRollbackRestoresVisibleCount(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	tl.ApplyInsert(text("msg-1", "bob", "earlier", now.Add(-time.Minute)))
	before := tl.Len()

	localID := tl.Stage(text("", "alice", "hello", time.Time{}))
	require.Equal(t, before+1, tl.Len())

	tl.Rollback(localID)
	assert.Equal(t, before, tl.Len())

	drafts := tl.FailedDrafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, Failed, drafts[0].State)
	assert.Equal(t, localID, drafts[0].LocalID)
}

func TestRolledBackDraftCannotBeConfirmed(t *testing.T) {
	tl := New()
	localID := tl.Stage(text("", "alice", "hello", time.Time{}))
	tl.Rollback(localID)

	tl.Resolve(localID, text("msg-1", "alice", "hello", time.Now()))
	assert.Zero(t, tl.Len())
	require.Len(t, tl.FailedDrafts(), 1)
	assert.Equal(t, Failed, tl.FailedDrafts()[0].State)

	// Dismissal drops the draft for good.
	tl.Remove(localID)
	assert.Empty(t, tl.FailedDrafts())
}

func TestRealtimeEchoClaimsPendingEntry(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	tl.Stage(text("", "alice", "hello", now))

	// The subscription delivers the send's echo before the HTTP response.
	changed := tl.ApplyInsert(text("msg-1", "alice", "hello", now.Add(time.Second)))
	assert.True(t, changed)

	entries := tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Confirmed, entries[0].State)
	assert.Equal(t, "msg-1", entries[0].ID)
}

func TestDuplicateInsertIsDropped(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	msg := text("msg-1", "bob", "hi", now)

	assert.True(t, tl.ApplyInsert(msg))
	assert.False(t, tl.ApplyInsert(msg))
	assert.Equal(t, 1, tl.Len())
}

func TestEchoOutsideWindowIsNewEntry(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	tl.Stage(text("", "alice", "hello", now))

	// Same sender and body, but far too old to be this send's echo.
	tl.ApplyInsert(text("msg-old", "alice", "hello", now.Add(-5*time.Minute)))

	entries := tl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Confirmed, entries[0].State)
	assert.Equal(t, Pending, entries[1].State)
}

func TestPendingStaysAtTailAcrossInserts(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	tl.Stage(text("", "alice", "draft", now))

	tl.ApplyInsert(text("msg-1", "bob", "one", now.Add(time.Second)))
	tl.ApplyInsert(text("msg-2", "bob", "two", now.Add(2*time.Second)))

	entries := tl.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg-1", entries[0].ID)
	assert.Equal(t, "msg-2", entries[1].ID)
	assert.Equal(t, Pending, entries[2].State)
}

func TestResetKeepsInFlightEntries(t *testing.T) {
	tl := New()
	now := time.Now().UTC()
	tl.ApplyInsert(text("stale-1", "bob", "old history", now.Add(-time.Hour)))
	pending := tl.Stage(text("", "alice", "in flight", now))
	failed := tl.Stage(text("", "alice", "rejected", now))
	tl.Rollback(failed)

	tl.Reset([]models.Message{
		text("msg-1", "bob", "one", now.Add(-2*time.Minute)),
		text("msg-2", "alice", "two", now.Add(-time.Minute)),
	})

	entries := tl.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg-1", entries[0].ID)
	assert.Equal(t, "msg-2", entries[1].ID)
	assert.Equal(t, Pending, entries[2].State)
	require.Len(t, tl.FailedDrafts(), 1)

	tl.Resolve(pending, text("msg-3", "alice", "in flight", now))
	last := tl.Entries()
	assert.Equal(t, "msg-3", last[2].ID)
}

func TestConfirmedOrderFollowsServerTimestamps(t *testing.T) {
	tl := New()
	base := time.Now().UTC()

	// Inserts arrive out of order; display order follows created_at.
	for _, i := range []int{3, 1, 2, 0} {
		tl.ApplyInsert(text(fmt.Sprintf("msg-%d", i), "bob", fmt.Sprintf("body %d", i), base.Add(time.Duration(i)*time.Second)))
	}

	entries := tl.Entries()
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), e.ID)
	}
}
