package repositories

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

// ErrInvalidMessageKind is returned for message kinds outside the supported
// set.
var ErrInvalidMessageKind = errors.New("invalid message kind")

// MessageRepository defines interactions for conversation messages.
// Messages are append-only; there are no edits or deletes.
type MessageRepository interface {
	Create(ctx context.Context, draft models.Message) (models.Message, error)
	List(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

// MessageRepo is a backend-client implementation of MessageRepository.
type MessageRepo struct {
	client        backend.Client
	conversations ConversationRepository
}

// NewMessageRepo constructs a MessageRepo. conversations may be nil when
// the caller bumps conversation activity itself.
func NewMessageRepo(client backend.Client, conversations ConversationRepository) *MessageRepo {
	return &MessageRepo{client: client, conversations: conversations}
}

// Create persists a message and bumps the conversation's updated_at. The
// backend assigns the id and the authoritative timestamp.
func (r *MessageRepo) Create(ctx context.Context, draft models.Message) (models.Message, error) {
	if draft.Kind == "" {
		draft.Kind = models.MessageText
	}
	if !models.ValidMessageKind(draft.Kind) {
		return models.Message{}, ErrInvalidMessageKind
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row, err := r.client.InsertRow(ctx, backend.TableMessages, backend.Row{
		"conversation_id": draft.ConversationID,
		"sender_id":       draft.SenderID,
		"receiver_id":     draft.ReceiverID,
		"body":            draft.Body,
		"kind":            draft.Kind,
		"file_name":       draft.FileName,
		"file_size":       draft.FileSize,
		"created_at":      createdAt,
	})
	if err != nil {
		return models.Message{}, err
	}
	msg := MessageFromRow(row)

	if r.conversations != nil {
		// Activity bump is best effort; the message is already durable.
		_ = r.conversations.Touch(ctx, msg.ConversationID, msg.CreatedAt)
	}
	return msg, nil
}

// List returns the conversation's messages ordered by server timestamp
// ascending. A limit of 0 means no limit.
func (r *MessageRepo) List(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableMessages, backend.Filter{"conversation_id": conversationID}, "created_at", true, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, MessageFromRow(row))
	}
	return msgs, nil
}
