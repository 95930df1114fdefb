package repositories

import (
	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

// ConversationFromRow maps a backend row onto the conversation model.
func ConversationFromRow(row backend.Row) models.Conversation {
	return models.Conversation{
		ID:        row.String("id"),
		Kind:      row.String("kind"),
		Title:     row.String("title"),
		AvatarURL: row.String("avatar_url"),
		Status:    row.String("status"),
		AgentID:   row.String("agent_id"),
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}
}

// MessageFromRow maps a backend row onto the message model.
func MessageFromRow(row backend.Row) models.Message {
	return models.Message{
		ID:             row.String("id"),
		ConversationID: row.String("conversation_id"),
		SenderID:       row.String("sender_id"),
		ReceiverID:     row.String("receiver_id"),
		Body:           row.String("body"),
		Kind:           row.String("kind"),
		FileName:       row.String("file_name"),
		FileSize:       row.Int64("file_size"),
		CreatedAt:      row.Time("created_at"),
	}
}

// ProfileFromRow maps a backend row onto the profile model.
func ProfileFromRow(row backend.Row) models.Profile {
	return models.Profile{
		ID:        row.String("id"),
		Email:     row.String("email"),
		Phone:     row.String("phone"),
		FirstName: row.String("first_name"),
		LastName:  row.String("last_name"),
		AvatarURL: row.String("avatar_url"),
		CreatedAt: row.Time("created_at"),
	}
}

// NotificationFromRow maps a backend row onto the notification model.
func NotificationFromRow(row backend.Row) models.Notification {
	return models.Notification{
		ID:        row.String("id"),
		UserID:    row.String("user_id"),
		Kind:      row.String("kind"),
		Message:   row.String("message"),
		Read:      row.Bool("read"),
		CreatedAt: row.Time("created_at"),
	}
}

// CompanyFromRow maps a backend row onto the company model.
func CompanyFromRow(row backend.Row) models.Company {
	return models.Company{
		ID:             row.String("id"),
		Name:           row.String("name"),
		WhatsAppNumber: row.String("whatsapp_number"),
		WhatsAppToken:  row.String("whatsapp_token"),
		LogoURL:        row.String("logo_url"),
		CreatedAt:      row.Time("created_at"),
	}
}
