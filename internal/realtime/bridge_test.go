package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
	"supportdesk/internal/timeline"
)

func TestBridgeAppliesInsertsForItsConversation(t *testing.T) {
	mem := backend.NewMemory(nil)
	tl := timeline.New()
	notified := make(chan struct{}, 8)

	bridge := Attach(mem, "dm:a_b", tl, func() { notified <- struct{}{} })
	defer bridge.Close()

	ctx := context.Background()
	_, err := mem.InsertRow(ctx, backend.TableMessages, backend.Row{
		"conversation_id": "dm:a_b",
		"sender_id":       "b",
		"body":            "hello",
		"kind":            models.MessageText,
		"created_at":      time.Now().UTC(),
	})
	require.NoError(t, err)

	// A different conversation's traffic must not leak in.
	_, err = mem.InsertRow(ctx, backend.TableMessages, backend.Row{
		"conversation_id": "dm:a_c",
		"sender_id":       "c",
		"body":            "other",
		"kind":            models.MessageText,
		"created_at":      time.Now().UTC(),
	})
	require.NoError(t, err)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for insert notification")
	}

	entries := tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Body)
	assert.Equal(t, timeline.Confirmed, entries[0].State)
}

func TestBridgeEchoConfirmsPendingSend(t *testing.T) {
	mem := backend.NewMemory(nil)
	tl := timeline.New()

	bridge := Attach(mem, "dm:a_b", tl, nil)
	defer bridge.Close()

	now := time.Now().UTC()
	tl.Stage(models.Message{ConversationID: "dm:a_b", SenderID: "a", Body: "ping", Kind: models.MessageText, CreatedAt: now})

	_, err := mem.InsertRow(context.Background(), backend.TableMessages, backend.Row{
		"conversation_id": "dm:a_b",
		"sender_id":       "a",
		"body":            "ping",
		"kind":            models.MessageText,
		"created_at":      now,
	})
	require.NoError(t, err)

	entries := tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, timeline.Confirmed, entries[0].State)
	assert.NotEmpty(t, entries[0].ID)
}

func TestClosedBridgeDropsEvents(t *testing.T) {
	mem := backend.NewMemory(nil)
	tl := timeline.New()

	bridge := Attach(mem, "dm:a_b", tl, nil)
	bridge.Close()

	_, err := mem.InsertRow(context.Background(), backend.TableMessages, backend.Row{
		"conversation_id": "dm:a_b",
		"sender_id":       "b",
		"body":            "late",
		"kind":            models.MessageText,
		"created_at":      time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Zero(t, tl.Len())
}
