package repositories

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository stores the events surfaced on the notifications
// view.
type NotificationRepository interface {
	Create(ctx context.Context, userID, kind, message string) (models.Notification, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationRepo is a backend-client implementation of
// NotificationRepository.
type NotificationRepo struct {
	client backend.Client
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(client backend.Client) *NotificationRepo {
	return &NotificationRepo{client: client}
}

// Create stores an unread notification for a user.
func (r *NotificationRepo) Create(ctx context.Context, userID, kind, message string) (models.Notification, error) {
	if userID == "" {
		return models.Notification{}, errors.New("user id is required")
	}
	row, err := r.client.InsertRow(ctx, backend.TableNotifications, backend.Row{
		"user_id":    userID,
		"kind":       kind,
		"message":    message,
		"read":       false,
		"created_at": time.Now().UTC(),
	})
	if err != nil {
		return models.Notification{}, err
	}
	return NotificationFromRow(row), nil
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	filter := backend.Filter{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	rows, err := r.client.SelectRows(ctx, backend.TableNotifications, filter, "created_at", false, 0)
	if err != nil {
		return nil, err
	}
	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, NotificationFromRow(row))
	}
	return notifications, nil
}

// MarkRead marks a notification read. The user filter keeps one agent from
// acknowledging another's notifications.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	_, err := r.client.UpdateRow(ctx, backend.TableNotifications, backend.Filter{
		"id":      id,
		"user_id": userID,
	}, backend.Row{"read": true})
	if errors.Is(err, backend.ErrNoRows) {
		return ErrNotificationNotFound
	}
	return err
}
