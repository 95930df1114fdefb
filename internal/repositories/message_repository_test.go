package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

func TestCreateMessageAssignsIDAndBumpsConversation(t *testing.T) {
	mem := backend.NewMemory(nil)
	conversations := fastRepo(mem)
	repo := NewMessageRepo(mem, conversations)
	ctx := context.Background()

	adoption, err := conversations.EnsureDirect(ctx, "alice-uuid", "bob-uuid")
	require.NoError(t, err)

	before, err := conversations.Get(ctx, adoption.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	msg, err := repo.Create(ctx, models.Message{
		ConversationID: adoption.ID,
		SenderID:       "alice-uuid",
		Body:           "hello",
		Kind:           models.MessageText,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	after, err := conversations.Get(ctx, adoption.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestCreateMessageRejectsUnknownKind(t *testing.T) {
	mem := backend.NewMemory(nil)
	repo := NewMessageRepo(mem, fastRepo(mem))

	_, err := repo.Create(context.Background(), models.Message{
		ConversationID: "dm:a_b",
		SenderID:       "a",
		Body:           "hi",
		Kind:           "sticker",
	})
	assert.ErrorIs(t, err, ErrInvalidMessageKind)
}

func TestListMessagesOrderedOldestFirst(t *testing.T) {
	mem := backend.NewMemory(nil)
	conversations := fastRepo(mem)
	repo := NewMessageRepo(mem, conversations)
	ctx := context.Background()

	adoption, err := conversations.EnsureDirect(ctx, "alice-uuid", "bob-uuid")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i, body := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, models.Message{
			ConversationID: adoption.ID,
			SenderID:       "alice-uuid",
			Body:           body,
			Kind:           models.MessageText,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, adoption.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Body)
	assert.Equal(t, "third", list[2].Body)
}
