package models

import "time"

// Conversation kinds.
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// Dashboard statuses: customer-initiated conversations wait in the queue
// until an agent claims them.
const (
	StatusQueue  = "queue"
	StatusActive = "active"
)

// Participant roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Conversation represents a direct or group conversation. Direct
// conversations carry a derived id; group ids are service-assigned.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Title     string    `db:"title" json:"title,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Status    string    `db:"status" json:"status"`
	AgentID   string    `db:"agent_id" json:"agent_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participant links a profile to a conversation.
type Participant struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	ProfileID      string    `db:"profile_id" json:"profile_id"`
	Role           string    `db:"role" json:"role"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
}

// ConversationSummary is the list view of a conversation for one user.
// PeerID is a display hint read off the derived id of a direct
// conversation; the participants table stays the access authority.
type ConversationSummary struct {
	Conversation
	PeerID          string    `json:"peer_id,omitempty"`
	LastMessage     *Message  `json:"last_message,omitempty"`
	LastMessageTime time.Time `json:"last_message_time,omitempty"`
}
