package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supportdesk/internal/controllers"
	"supportdesk/internal/models"
	"supportdesk/internal/observability"
	"supportdesk/internal/repositories"
	"supportdesk/internal/telemetry"
	"supportdesk/internal/ws"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	notifications repositories.NotificationRepository
	list          *controllers.ConversationListController
	hub           *ws.Hub
	audit         *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations repositories.ConversationRepository, notifications repositories.NotificationRepository, list *controllers.ConversationListController, hub *ws.Hub, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		notifications: notifications,
		list:          list,
		hub:           hub,
		audit:         audit,
	}
}

// ListConversations returns the conversations visible to the authenticated
// user, ordered by most recent activity.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userID")

	summaries, err := h.list.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// StartConversation creates or adopts the direct conversation with the
// requested peer.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	var req struct {
		PeerID string `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	adoption, err := h.conversations.EnsureDirect(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfConversation), errors.Is(err, repositories.ErrMissingParticipant):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case adoption.ID == "":
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
			return
		}
		// Best-effort id; the client retries sends until the backend
		// confirms the conversation.
	}

	outcome := "persisted"
	if !adoption.Persisted {
		outcome = "fallback"
	}
	observability.IncConversationCreate(outcome)

	h.list.Invalidate(c.Request.Context(), userID, req.PeerID)
	h.emitAudit(c, "INFO", "conversation started")
	c.JSON(http.StatusOK, gin.H{"conversation_id": adoption.ID, "persisted": adoption.Persisted})
}

// CreateGroup creates a group conversation.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Title     string   `json:"title" binding:"required"`
		AvatarURL string   `json:"avatar_url"`
		MemberIDs []string `json:"member_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	group, err := h.conversations.CreateGroup(c.Request.Context(), userID, req.Title, req.AvatarURL, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.list.Invalidate(c.Request.Context(), append(req.MemberIDs, userID)...)
	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, group)
}

// TransferConversation assigns the conversation to another agent and marks
// it active.
func (h *ConversationHandler) TransferConversation(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		AgentID string `json:"agent_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.conversations.Transfer(c.Request.Context(), conversationID, req.AgentID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not transfer conversation"})
		return
	}

	h.hub.BroadcastTransfer(conversationID, req.AgentID)
	if h.notifications != nil {
		from := c.GetString("userID")
		if _, nerr := h.notifications.Create(c.Request.Context(), req.AgentID, models.NotificationTransfer, "conversation transferred to you by "+from); nerr != nil {
			zap.L().Warn("notification write failed", zap.Error(nerr))
		}
	}
	h.emitAudit(c, "INFO", "conversation transferred")
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "agent_id": req.AgentID})
}

// UpdateConversationStatus moves the conversation between the queue and
// active tabs, e.g. requeueing a resolved chat.
func (h *ConversationHandler) UpdateConversationStatus(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != models.StatusQueue && req.Status != models.StatusActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	err := h.conversations.SetStatus(c.Request.Context(), conversationID, req.Status)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update conversation status"})
		return
	}

	h.emitAudit(c, "INFO", "conversation status changed")
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "status": req.Status})
}

func (h *ConversationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
