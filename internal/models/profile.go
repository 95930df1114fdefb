package models

import "time"

// Profile is a user of the dashboard: an agent or a customer reached over
// an external channel.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	FirstName string    `db:"first_name" json:"first_name,omitempty"`
	LastName  string    `db:"last_name" json:"last_name,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
