// Package backend wraps the hosted data service behind a small query
// client: create-row, read-rows-by-filter, update-row, delete-row, a
// subscribe-to-row-events primitive, blob storage and session lookup. The
// schema (tables, columns) is an external contract owned by the backend
// configuration, not by this package.
package backend

import (
	"context"
	"errors"
	"time"
)

// Tables owned by the backend schema.
const (
	TableConversations = "conversations"
	TableParticipants  = "conversation_participants"
	TableMessages      = "messages"
	TableProfiles      = "profiles"
	TableCompanies     = "companies"
	TableNotifications = "notifications"
)

// BucketChatFiles receives uploaded message attachments.
const BucketChatFiles = "chat-files"

var (
	// ErrConflict reports a uniqueness violation on insert. In the
	// create-or-adopt flow this is a success signal, not a failure.
	ErrConflict = errors.New("backend: conflict")
	// ErrNoRows reports an empty single-row read.
	ErrNoRows = errors.New("backend: no rows")
	// ErrNoSession reports a missing or invalid session token.
	ErrNoSession = errors.New("backend: no session")
)

// Row is one backend record keyed by column name.
type Row map[string]any

// Filter restricts reads, updates, deletes and subscriptions to rows whose
// columns equal the given values. A nil filter matches every row.
type Filter map[string]any

// Subscription is a handle on a realtime insert feed.
type Subscription interface {
	Unsubscribe()
}

// Session identifies an authenticated profile.
type Session struct {
	UserID string
}

// Client is the minimal contract of the hosted data service.
type Client interface {
	// InsertRow stores a row and returns it as persisted, with any
	// service-assigned columns filled in.
	InsertRow(ctx context.Context, table string, row Row) (Row, error)
	// SelectRows reads rows matching filter, ordered by orderBy when set.
	// limit of 0 means no limit.
	SelectRows(ctx context.Context, table string, filter Filter, orderBy string, asc bool, limit int) ([]Row, error)
	// UpdateRow patches the rows matching filter and returns the first
	// updated row, or ErrNoRows when nothing matched.
	UpdateRow(ctx context.Context, table string, filter Filter, patch Row) (Row, error)
	DeleteRow(ctx context.Context, table string, filter Filter) error
	// Subscribe registers onInsert for every row inserted into table that
	// matches filter. Delivery is synchronous with the insert; handlers
	// must not block.
	Subscribe(table string, filter Filter, onInsert func(Row)) Subscription
	UploadBlob(ctx context.Context, bucket, name string, data []byte, contentType string) (string, error)
	GetBlob(ctx context.Context, bucket, name string) (data []byte, contentType string, err error)
	// GetSession resolves a bearer token to the profile it identifies.
	GetSession(ctx context.Context, token string) (Session, error)
}

// String returns a column as a string, tolerating absent values.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Bool returns a column as a bool, tolerating absent values.
func (r Row) Bool(col string) bool {
	v, _ := r[col].(bool)
	return v
}

// Int64 returns a column as an int64, tolerating absent values and the
// numeric types drivers hand back.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Time returns a column as a time.Time, tolerating absent values and
// RFC 3339 strings.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
