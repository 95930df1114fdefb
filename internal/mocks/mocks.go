package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"supportdesk/internal/models"
	"supportdesk/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) EnsureDirect(ctx context.Context, userA, userB string) (repositories.Adoption, error) {
	args := m.Called(ctx, userA, userB)
	var adoption repositories.Adoption
	if val := args.Get(0); val != nil {
		adoption = val.(repositories.Adoption)
	}
	return adoption, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, creatorID, title, avatarURL string, memberIDs []string) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, title, avatarURL, memberIDs)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, id string) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) Touch(ctx context.Context, conversationID string, at time.Time) error {
	args := m.Called(ctx, conversationID, at)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) Transfer(ctx context.Context, conversationID, agentID string) error {
	args := m.Called(ctx, conversationID, agentID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetStatus(ctx context.Context, conversationID, status string) error {
	args := m.Called(ctx, conversationID, status)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, draft models.Message) (models.Message, error) {
	args := m.Called(ctx, draft)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) List(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) Get(ctx context.Context, id string) (models.Profile, error) {
	args := m.Called(ctx, id)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) List(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	var list []models.Profile
	if val := args.Get(0); val != nil {
		list = val.([]models.Profile)
	}
	return list, args.Error(1)
}

func (m *ProfileRepositoryMock) EnsureByPhone(ctx context.Context, phone, displayName string) (models.Profile, error) {
	args := m.Called(ctx, phone, displayName)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

type CompanyRepositoryMock struct {
	mock.Mock
}

func (m *CompanyRepositoryMock) List(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	var list []models.Company
	if val := args.Get(0); val != nil {
		list = val.([]models.Company)
	}
	return list, args.Error(1)
}

func (m *CompanyRepositoryMock) Get(ctx context.Context, id string) (models.Company, error) {
	args := m.Called(ctx, id)
	var company models.Company
	if val := args.Get(0); val != nil {
		company = val.(models.Company)
	}
	return company, args.Error(1)
}

func (m *CompanyRepositoryMock) GetByNumber(ctx context.Context, whatsappNumber string) (models.Company, error) {
	args := m.Called(ctx, whatsappNumber)
	var company models.Company
	if val := args.Get(0); val != nil {
		company = val.(models.Company)
	}
	return company, args.Error(1)
}

func (m *CompanyRepositoryMock) Create(ctx context.Context, company models.Company) (models.Company, error) {
	args := m.Called(ctx, company)
	var created models.Company
	if val := args.Get(0); val != nil {
		created = val.(models.Company)
	}
	return created, args.Error(1)
}

func (m *CompanyRepositoryMock) Update(ctx context.Context, id string, company models.Company) (models.Company, error) {
	args := m.Called(ctx, id, company)
	var updated models.Company
	if val := args.Get(0); val != nil {
		updated = val.(models.Company)
	}
	return updated, args.Error(1)
}

func (m *CompanyRepositoryMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, userID, kind, message string) (models.Notification, error) {
	args := m.Called(ctx, userID, kind, message)
	var notification models.Notification
	if val := args.Get(0); val != nil {
		notification = val.(models.Notification)
	}
	return notification, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
