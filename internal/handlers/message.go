package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supportdesk/internal/cache"
	"supportdesk/internal/models"
	"supportdesk/internal/observability"
	"supportdesk/internal/repositories"
	"supportdesk/internal/telemetry"
	"supportdesk/internal/ws"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	snapshots     *cache.Snapshots
	hub           *ws.Hub
	audit         *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, snapshots *cache.Snapshots, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		messages:      messages,
		snapshots:     snapshots,
		hub:           hub,
		audit:         audit,
	}
}

// ListMessages returns a conversation's messages oldest first. When the
// backend is unreachable a cached snapshot is served, flagged so the
// client knows it may be incomplete.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := c.GetString("userID")

	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return
	}

	msgs, err := h.messages.List(c.Request.Context(), conversationID, 0)
	if err != nil {
		if h.snapshots != nil {
			if cached, cerr := h.snapshots.GetMessages(c.Request.Context(), conversationID); cerr == nil {
				observability.IncCacheLookup("messages", "stale")
				zap.L().Warn("serving cached messages",
					zap.String("conversation_id", conversationID), zap.Error(err))
				c.JSON(http.StatusOK, gin.H{"messages": cached, "from_cache": true})
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	observability.IncCacheLookup("messages", "backend")
	if h.snapshots != nil {
		if err := h.snapshots.PutMessages(c.Request.Context(), conversationID, msgs); err != nil {
			zap.L().Warn("message snapshot write failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "from_cache": false})
}

// PostMessage stores a message and broadcasts it to the conversation's
// websocket room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := c.GetString("userID")

	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return
	}

	var req struct {
		Body     string `json:"body" binding:"required"`
		Kind     string `json:"kind"`
		FileName string `json:"file_name"`
		FileSize int64  `json:"file_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Body:           req.Body,
		Kind:           req.Kind,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidMessageKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(msg)
	h.emitAudit(c, "INFO", "message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
