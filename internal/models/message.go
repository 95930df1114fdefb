package models

import "time"

// Message kinds.
const (
	MessageText  = "text"
	MessageFile  = "file"
	MessageAudio = "audio"
)

// Message represents a chat message. Messages are append-only; ordering is
// by CreatedAt ascending.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ReceiverID     string    `db:"receiver_id" json:"receiver_id,omitempty"`
	Body           string    `db:"body" json:"body"`
	Kind           string    `db:"kind" json:"kind"`
	FileName       string    `db:"file_name" json:"file_name,omitempty"`
	FileSize       int64     `db:"file_size" json:"file_size,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ValidMessageKind reports whether kind is one of the supported kinds.
func ValidMessageKind(kind string) bool {
	return kind == MessageText || kind == MessageFile || kind == MessageAudio
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	AgentID string   `json:"agent_id,omitempty"`
}
