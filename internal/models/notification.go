package models

import "time"

// Notification kinds, mirroring the dashboard's notification tabs.
const (
	NotificationMessage  = "message"
	NotificationTransfer = "transfer"
)

// Notification is an event surfaced to an agent outside the open chat:
// a new customer message or a conversation transferred to them.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Kind      string    `db:"kind" json:"kind"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
