package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supportdesk/internal/controllers"
	"supportdesk/internal/models"
	"supportdesk/internal/repositories"
	"supportdesk/internal/ws"
)

// WebhookHandler receives inbound WhatsApp traffic. New customers land in
// the queue until an agent picks the conversation up.
type WebhookHandler struct {
	companies     repositories.CompanyRepository
	profiles      repositories.ProfileRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	list          *controllers.ConversationListController
	hub           *ws.Hub
	verifyToken   string
}

// NewWebhookHandler builds a WebhookHandler.
func NewWebhookHandler(companies repositories.CompanyRepository, profiles repositories.ProfileRepository, conversations repositories.ConversationRepository, messages repositories.MessageRepository, notifications repositories.NotificationRepository, list *controllers.ConversationListController, hub *ws.Hub, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		companies:     companies,
		profiles:      profiles,
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
		list:          list,
		hub:           hub,
		verifyToken:   verifyToken,
	}
}

// Verify answers the provider's subscription handshake by echoing the
// challenge when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, challenge)
}

type inboundMessage struct {
	Type       string `json:"type" binding:"required"`
	To         string `json:"to"`
	From       string `json:"from"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	Kind       string `json:"kind"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
}

// Receive ingests an inbound event. Messages are attached to the direct
// conversation between the company and the customer, creating both the
// customer profile and the conversation on first contact.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req inboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Type != "message" {
		// Status updates and other event types are acknowledged without
		// processing so the provider does not retry them.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	company, err := h.companies.GetByNumber(ctx, req.To)
	if err != nil {
		zap.L().Warn("inbound message for unknown number", zap.String("to", req.To))
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown destination number"})
		return
	}

	customer, err := h.profiles.EnsureByPhone(ctx, req.From, req.SenderName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve customer"})
		return
	}

	adoption, err := h.conversations.EnsureDirect(ctx, company.ID, customer.ID)
	if err != nil && adoption.ID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve conversation"})
		return
	}

	msg, err := h.messages.Create(ctx, models.Message{
		ConversationID: adoption.ID,
		SenderID:       customer.ID,
		ReceiverID:     company.ID,
		Body:           req.Body,
		Kind:           req.Kind,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	h.hub.BroadcastMessage(msg)
	h.notify(ctx, adoption.ID, company.ID, customer)
	h.list.Invalidate(ctx, company.ID)
	c.JSON(http.StatusOK, gin.H{"conversation_id": adoption.ID, "message_id": msg.ID})
}

// notify records a new-message notification for the assigned agent, or for
// the company when the conversation is still in the queue.
func (h *WebhookHandler) notify(ctx context.Context, conversationID, companyID string, customer models.Profile) {
	if h.notifications == nil {
		return
	}
	target := companyID
	if conversation, err := h.conversations.Get(ctx, conversationID); err == nil && conversation.AgentID != "" {
		target = conversation.AgentID
	}
	name := customer.FirstName
	if name == "" {
		name = customer.Phone
	}
	if _, err := h.notifications.Create(ctx, target, models.NotificationMessage, "new message from "+name); err != nil {
		zap.L().Warn("notification write failed", zap.Error(err))
	}
}
