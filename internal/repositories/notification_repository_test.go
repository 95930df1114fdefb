package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

func TestNotificationsListNewestFirst(t *testing.T) {
	repo := NewNotificationRepo(backend.NewMemory(nil))
	ctx := context.Background()

	first, err := repo.Create(ctx, "agent-1", models.NotificationMessage, "new message from João")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Read)

	_, err = repo.Create(ctx, "agent-1", models.NotificationTransfer, "conversation transferred to you by agent-2")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "agent-2", models.NotificationMessage, "elsewhere")
	require.NoError(t, err)

	list, err := repo.ListForUser(ctx, "agent-1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationTransfer, list[0].Kind)
	assert.Equal(t, models.NotificationMessage, list[1].Kind)
}

func TestNotificationsMarkReadFiltersUnread(t *testing.T) {
	repo := NewNotificationRepo(backend.NewMemory(nil))
	ctx := context.Background()

	created, err := repo.Create(ctx, "agent-1", models.NotificationMessage, "ping")
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(ctx, created.ID, "agent-1"))

	unread, err := repo.ListForUser(ctx, "agent-1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := repo.ListForUser(ctx, "agent-1", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Read)
}

func TestNotificationsMarkReadIsScopedToOwner(t *testing.T) {
	repo := NewNotificationRepo(backend.NewMemory(nil))
	ctx := context.Background()

	created, err := repo.Create(ctx, "agent-1", models.NotificationMessage, "ping")
	require.NoError(t, err)

	err = repo.MarkRead(ctx, created.ID, "agent-2")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}
