package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/cache"
	"supportdesk/internal/controllers"
	"supportdesk/internal/mocks"
	"supportdesk/internal/models"
	"supportdesk/internal/repositories"
	"supportdesk/internal/ws"
)

func setupWebhookRouter(handler *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/webhook", handler.Verify)
	r.POST("/webhook", handler.Receive)
	return r
}

func newWebhookHandler(companies *mocks.CompanyRepositoryMock, profiles *mocks.ProfileRepositoryMock, convRepo *mocks.ConversationRepositoryMock, msgRepo *mocks.MessageRepositoryMock) *WebhookHandler {
	list := controllers.NewConversationListController(convRepo, cache.NewSnapshots(cache.NewMemory(), 5*time.Minute))
	return NewWebhookHandler(companies, profiles, convRepo, msgRepo, nil, list, ws.NewHub(), "verify-secret")
}

func TestWebhookVerifyEchoesChallenge(t *testing.T) {
	handler := newWebhookHandler(new(mocks.CompanyRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupWebhookRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWebhookVerifyRejectsBadToken(t *testing.T) {
	handler := newWebhookHandler(new(mocks.CompanyRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupWebhookRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookVerifyUnsetTokenMatchesOnlyEmptyParam(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	list := controllers.NewConversationListController(convRepo, cache.NewSnapshots(cache.NewMemory(), 5*time.Minute))
	handler := NewWebhookHandler(new(mocks.CompanyRepositoryMock), new(mocks.ProfileRepositoryMock), convRepo, new(mocks.MessageRepositoryMock), nil, list, ws.NewHub(), "")
	router := setupWebhookRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=anything&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWebhookInboundMessageCreatesConversation(t *testing.T) {
	companies := new(mocks.CompanyRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newWebhookHandler(companies, profiles, convRepo, msgRepo)
	router := setupWebhookRouter(handler)

	companies.On("GetByNumber", mock.Anything, "+5511000000000").
		Return(models.Company{ID: "company-1", WhatsAppNumber: "+5511000000000"}, nil).Once()
	profiles.On("EnsureByPhone", mock.Anything, "+5511999999999", "Maria").
		Return(models.Profile{ID: "wa:+5511999999999", FirstName: "Maria"}, nil).Once()
	convRepo.On("EnsureDirect", mock.Anything, "company-1", "wa:+5511999999999").
		Return(repositories.Adoption{ID: "dm:company-1_wa:+5511999999999", Persisted: true}, nil).Once()
	msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == "wa:+5511999999999" && m.Body == "preciso de ajuda"
	})).Return(models.Message{ID: "m1", Body: "preciso de ajuda"}, nil).Once()

	payload := `{"type":"message","to":"+5511000000000","from":"+5511999999999","sender_name":"Maria","body":"preciso de ajuda"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "m1", resp["message_id"])
	companies.AssertExpectations(t)
	profiles.AssertExpectations(t)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestWebhookInboundMessageNotifiesAssignedAgent(t *testing.T) {
	companies := new(mocks.CompanyRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	list := controllers.NewConversationListController(convRepo, cache.NewSnapshots(cache.NewMemory(), 5*time.Minute))
	handler := NewWebhookHandler(companies, profiles, convRepo, msgRepo, notifications, list, ws.NewHub(), "verify-secret")
	router := setupWebhookRouter(handler)

	companies.On("GetByNumber", mock.Anything, "+5511000000000").
		Return(models.Company{ID: "company-1", WhatsAppNumber: "+5511000000000"}, nil).Once()
	profiles.On("EnsureByPhone", mock.Anything, "+5511999999999", "Maria").
		Return(models.Profile{ID: "wa:+5511999999999", FirstName: "Maria"}, nil).Once()
	convRepo.On("EnsureDirect", mock.Anything, "company-1", "wa:+5511999999999").
		Return(repositories.Adoption{ID: "dm:company-1_wa:+5511999999999", Persisted: true}, nil).Once()
	msgRepo.On("Create", mock.Anything, mock.Anything).
		Return(models.Message{ID: "m1", Body: "oi"}, nil).Once()
	convRepo.On("Get", mock.Anything, "dm:company-1_wa:+5511999999999").
		Return(models.Conversation{ID: "dm:company-1_wa:+5511999999999", AgentID: "agent-2", Status: models.StatusActive}, nil).Once()
	notifications.On("Create", mock.Anything, "agent-2", models.NotificationMessage, "new message from Maria").
		Return(models.Notification{ID: "n1", UserID: "agent-2"}, nil).Once()

	payload := `{"type":"message","to":"+5511000000000","from":"+5511999999999","sender_name":"Maria","body":"oi"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	notifications.AssertExpectations(t)
	convRepo.AssertExpectations(t)
}

func TestWebhookUnknownNumberRejected(t *testing.T) {
	companies := new(mocks.CompanyRepositoryMock)
	handler := newWebhookHandler(companies, new(mocks.ProfileRepositoryMock), new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupWebhookRouter(handler)

	companies.On("GetByNumber", mock.Anything, "+5511000000000").
		Return(models.Company{}, repositories.ErrCompanyNotFound).Once()

	payload := `{"type":"message","to":"+5511000000000","from":"+5511999999999","body":"oi"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	companies.AssertExpectations(t)
}

func TestWebhookNonMessageEventIgnored(t *testing.T) {
	handler := newWebhookHandler(new(mocks.CompanyRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupWebhookRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"type":"status"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ignored", resp["status"])
}
