package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/mocks"
	"supportdesk/internal/models"
	"supportdesk/internal/repositories"
)

func setupNotificationRouter(handler *NotificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "agent-1")
		c.Next()
	})
	r.GET("/notifications", handler.ListNotifications)
	r.POST("/notifications/:notification_id/read", handler.MarkNotificationRead)
	return r
}

func TestListNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("ListForUser", mock.Anything, "agent-1", false).Return([]models.Notification{
		{ID: "n1", UserID: "agent-1", Kind: models.NotificationMessage, Message: "new message from João"},
		{ID: "n2", UserID: "agent-1", Kind: models.NotificationTransfer, Message: "conversation transferred to you by agent-2"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp["notifications"], 2)
	repo.AssertExpectations(t)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("ListForUser", mock.Anything, "agent-1", true).Return([]models.Notification{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestMarkNotificationRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("MarkRead", mock.Anything, "n1", "agent-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/n1/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("MarkRead", mock.Anything, "missing", "agent-1").
		Return(repositories.ErrNotificationNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/missing/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}
