package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"supportdesk/internal/models"
	"supportdesk/internal/observability"
)

// Hub maintains active websocket rooms, one per conversation.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(conversationID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[conversationID][conn] = true
	if _, ok := h.connInfo[conversationID]; !ok {
		h.connInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[conversationID][conn] = info
}

// RemoveClient removes a websocket connection from a conversation room.
func (h *Hub) RemoveClient(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	if infos, ok := h.connInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, conversationID)
		}
	}
}

// BroadcastMessage sends a new message to every client in its conversation.
func (h *Hub) BroadcastMessage(msg models.Message) {
	h.broadcast(msg.ConversationID, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastTransfer notifies clients that the conversation moved to a new
// agent.
func (h *Hub) BroadcastTransfer(conversationID, agentID string) {
	h.broadcast(conversationID, models.ChatEvent{Type: "transfer", AgentID: agentID})
}

func (h *Hub) broadcast(conversationID string, event models.ChatEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[conversationID]))
	for conn := range h.rooms[conversationID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			zap.L().Warn("websocket write error", zap.Error(err))
			conn.Close()
			h.publishWSError(conversationID, conn, err)
			h.RemoveClient(conversationID, conn)
		}
	}
}

func (h *Hub) publishWSError(conversationID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(conversationID, conn)
	if !ok {
		return
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(conversationID, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), err.Error()),
	}, headers)
	observability.IncWSEvent("chat", "ws_error")
}

func (h *Hub) getConnInfo(conversationID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[conversationID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
