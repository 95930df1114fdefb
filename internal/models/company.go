package models

import "time"

// Company holds the WhatsApp Business integration credentials configured in
// the settings view. One company maps to one inbound phone number.
type Company struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	WhatsAppNumber string    `db:"whatsapp_number" json:"whatsapp_number"`
	WhatsAppToken  string    `db:"whatsapp_token" json:"-"`
	LogoURL        string    `db:"logo_url" json:"logo_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
