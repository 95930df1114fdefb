package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"supportdesk/internal/backend"
	"supportdesk/internal/identity"
	"supportdesk/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrMissingParticipant   = errors.New("participant id is required")
)

// Adoption is the result of EnsureDirect. Persisted is false only when every
// strategy failed and the caller received a best-effort id that has not been
// confirmed by the backend; such an id must be reconciled on the next
// successful sync.
type Adoption struct {
	ID        string
	Persisted bool
}

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	EnsureDirect(ctx context.Context, userA, userB string) (Adoption, error)
	CreateGroup(ctx context.Context, creatorID, title, avatarURL string, memberIDs []string) (models.Conversation, error)
	Get(ctx context.Context, id string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	Touch(ctx context.Context, conversationID string, at time.Time) error
	Transfer(ctx context.Context, conversationID, agentID string) error
	SetStatus(ctx context.Context, conversationID, status string) error
}

// ConversationRepo implements ConversationRepository over the backend
// client.
type ConversationRepo struct {
	client backend.Client

	// Create-or-adopt retries transient failures a small bounded number
	// of times before falling back to a service-assigned id.
	attempts   int
	retryDelay time.Duration
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(client backend.Client) *ConversationRepo {
	return &ConversationRepo{client: client, attempts: 2, retryDelay: 200 * time.Millisecond}
}

// EnsureDirect resolves the direct conversation between two profiles,
// creating it when absent. Losing the create race to the counterpart client
// is treated as success: both sides converge on the same derived id. When
// err is non-nil the returned Adoption still carries a usable best-effort id
// so the caller is never blocked.
func (r *ConversationRepo) EnsureDirect(ctx context.Context, userA, userB string) (Adoption, error) {
	if userA == "" || userB == "" {
		return Adoption{}, ErrMissingParticipant
	}
	if userA == userB {
		return Adoption{}, ErrSelfConversation
	}

	id := identity.DirectID(userA, userB)

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Adoption{ID: id}, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}

		rows, err := r.client.SelectRows(ctx, backend.TableConversations, backend.Filter{"id": id}, "", true, 1)
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) > 0 {
			if err := r.ensureParticipants(ctx, id, userA, userB); err != nil {
				lastErr = err
				continue
			}
			return Adoption{ID: id, Persisted: true}, nil
		}

		now := time.Now().UTC()
		_, err = r.client.InsertRow(ctx, backend.TableConversations, backend.Row{
			"id":         id,
			"kind":       models.KindDirect,
			"status":     models.StatusQueue,
			"created_at": now,
			"updated_at": now,
		})
		if err == nil || errors.Is(err, backend.ErrConflict) {
			// A conflict means the counterpart client won the race; the
			// conversation exists either way.
			if perr := r.ensureParticipants(ctx, id, userA, userB); perr != nil {
				lastErr = perr
				continue
			}
			return Adoption{ID: id, Persisted: true}, nil
		}
		lastErr = err
	}

	// Last resort: let the backend assign an id so the UI is not blocked.
	row, err := r.client.InsertRow(ctx, backend.TableConversations, backend.Row{
		"kind":       models.KindDirect,
		"status":     models.StatusQueue,
		"created_at": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	})
	if err == nil {
		fallbackID := row.String("id")
		if perr := r.ensureParticipants(ctx, fallbackID, userA, userB); perr == nil {
			return Adoption{ID: fallbackID, Persisted: true}, nil
		}
		return Adoption{ID: fallbackID, Persisted: false}, nil
	}

	return Adoption{ID: id, Persisted: false}, errors.Join(lastErr, err)
}

// ensureParticipants inserts both participant rows, treating an existing
// row as success.
func (r *ConversationRepo) ensureParticipants(ctx context.Context, conversationID string, userIDs ...string) error {
	for _, uid := range userIDs {
		_, err := r.client.InsertRow(ctx, backend.TableParticipants, backend.Row{
			"conversation_id": conversationID,
			"profile_id":      uid,
			"role":            models.RoleMember,
			"joined_at":       time.Now().UTC(),
		})
		if err != nil && !errors.Is(err, backend.ErrConflict) {
			return err
		}
	}
	return nil
}

// CreateGroup creates a group conversation with a service-assigned id. The
// creator becomes admin, the members join as members.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID, title, avatarURL string, memberIDs []string) (models.Conversation, error) {
	if creatorID == "" {
		return models.Conversation{}, ErrMissingParticipant
	}

	now := time.Now().UTC()
	row, err := r.client.InsertRow(ctx, backend.TableConversations, backend.Row{
		"kind":       models.KindGroup,
		"title":      title,
		"avatar_url": avatarURL,
		"status":     models.StatusActive,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return models.Conversation{}, err
	}
	conversation := ConversationFromRow(row)

	_, err = r.client.InsertRow(ctx, backend.TableParticipants, backend.Row{
		"conversation_id": conversation.ID,
		"profile_id":      creatorID,
		"role":            models.RoleAdmin,
		"joined_at":       now,
	})
	if err != nil && !errors.Is(err, backend.ErrConflict) {
		return models.Conversation{}, err
	}

	for _, uid := range memberIDs {
		if uid == creatorID {
			continue
		}
		_, err := r.client.InsertRow(ctx, backend.TableParticipants, backend.Row{
			"conversation_id": conversation.ID,
			"profile_id":      uid,
			"role":            models.RoleMember,
			"joined_at":       now,
		})
		if err != nil && !errors.Is(err, backend.ErrConflict) {
			return models.Conversation{}, err
		}
	}
	return conversation, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, id string) (models.Conversation, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableConversations, backend.Filter{"id": id}, "", true, 1)
	if err != nil {
		return models.Conversation{}, err
	}
	if len(rows) == 0 {
		return models.Conversation{}, ErrConversationNotFound
	}
	return ConversationFromRow(rows[0]), nil
}

// ListForUser returns the conversations the user participates in, newest
// activity first, each with its last message.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	memberships, err := r.client.SelectRows(ctx, backend.TableParticipants, backend.Filter{"profile_id": userID}, "joined_at", true, 0)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(memberships))
	for _, membership := range memberships {
		conversationID := membership.String("conversation_id")
		conversation, err := r.Get(ctx, conversationID)
		if errors.Is(err, ErrConversationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		summary := models.ConversationSummary{Conversation: conversation}
		if conversation.Kind == models.KindDirect {
			summary.PeerID = identity.Peer(conversationID, userID)
		}
		last, ok, err := r.lastMessage(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if ok {
			summary.LastMessage = &last
			summary.LastMessageTime = last.CreatedAt
		}
		summaries = append(summaries, summary)
	}

	sortSummariesByActivity(summaries)
	return summaries, nil
}

func (r *ConversationRepo) lastMessage(ctx context.Context, conversationID string) (models.Message, bool, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableMessages, backend.Filter{"conversation_id": conversationID}, "created_at", false, 1)
	if err != nil {
		return models.Message{}, false, err
	}
	if len(rows) == 0 {
		return models.Message{}, false, nil
	}
	return MessageFromRow(rows[0]), true, nil
}

// IsParticipant checks whether a profile belongs to the conversation. The
// participants table is the authority; direct-id shape is never consulted.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableParticipants, backend.Filter{
		"conversation_id": conversationID,
		"profile_id":      userID,
	}, "", true, 1)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Touch bumps the conversation's updated_at.
func (r *ConversationRepo) Touch(ctx context.Context, conversationID string, at time.Time) error {
	_, err := r.client.UpdateRow(ctx, backend.TableConversations, backend.Filter{"id": conversationID}, backend.Row{"updated_at": at})
	if errors.Is(err, backend.ErrNoRows) {
		return ErrConversationNotFound
	}
	return err
}

// Transfer assigns the conversation to an agent and marks it active.
func (r *ConversationRepo) Transfer(ctx context.Context, conversationID, agentID string) error {
	_, err := r.client.UpdateRow(ctx, backend.TableConversations, backend.Filter{"id": conversationID}, backend.Row{
		"agent_id":   agentID,
		"status":     models.StatusActive,
		"updated_at": time.Now().UTC(),
	})
	if errors.Is(err, backend.ErrNoRows) {
		return ErrConversationNotFound
	}
	return err
}

// SetStatus moves the conversation between the queue and active tabs.
func (r *ConversationRepo) SetStatus(ctx context.Context, conversationID, status string) error {
	_, err := r.client.UpdateRow(ctx, backend.TableConversations, backend.Filter{"id": conversationID}, backend.Row{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if errors.Is(err, backend.ErrNoRows) {
		return ErrConversationNotFound
	}
	return err
}

func sortSummariesByActivity(summaries []models.ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return activityTime(summaries[i]).After(activityTime(summaries[j]))
	})
}

func activityTime(s models.ConversationSummary) time.Time {
	if !s.LastMessageTime.IsZero() {
		return s.LastMessageTime
	}
	return s.UpdatedAt
}
