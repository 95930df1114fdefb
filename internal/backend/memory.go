package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Client with the same conflict and subscription
// semantics as the Postgres client. It backs tests and local development
// without a database.
type Memory struct {
	mu        sync.Mutex
	tables    map[string][]Row
	blobs     map[string]memoryBlob
	disp      *dispatcher
	jwtSecret []byte
}

type memoryBlob struct {
	data        []byte
	contentType string
}

// NewMemory builds an empty in-memory client.
func NewMemory(jwtSecret []byte) *Memory {
	return &Memory{
		tables:    make(map[string][]Row),
		blobs:     make(map[string]memoryBlob),
		disp:      newDispatcher(),
		jwtSecret: jwtSecret,
	}
}

// InsertRow stores a row, enforcing the same uniqueness rules the backend
// schema declares.
func (m *Memory) InsertRow(_ context.Context, table string, row Row) (Row, error) {
	stored := cloneRow(row)
	if tableHasID(table) && stored.String("id") == "" {
		stored["id"] = uuid.NewString()
	}
	if _, ok := stored["created_at"]; !ok {
		stored["created_at"] = time.Now().UTC()
	}

	m.mu.Lock()
	key := uniqueKey(table, stored)
	for _, existing := range m.tables[table] {
		if key != "" && uniqueKey(table, existing) == key {
			m.mu.Unlock()
			return nil, ErrConflict
		}
	}
	m.tables[table] = append(m.tables[table], stored)
	m.mu.Unlock()

	m.disp.dispatch(table, cloneRow(stored))
	return cloneRow(stored), nil
}

// SelectRows reads rows matching filter.
func (m *Memory) SelectRows(_ context.Context, table string, filter Filter, orderBy string, asc bool, limit int) ([]Row, error) {
	m.mu.Lock()
	var result []Row
	for _, row := range m.tables[table] {
		if filterMatches(filter, row) {
			result = append(result, cloneRow(row))
		}
	}
	m.mu.Unlock()

	if orderBy != "" {
		sort.SliceStable(result, func(i, j int) bool {
			less := lessColumn(result[i][orderBy], result[j][orderBy])
			if asc {
				return less
			}
			return lessColumn(result[j][orderBy], result[i][orderBy])
		})
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateRow patches matching rows and returns the first updated one.
func (m *Memory) UpdateRow(_ context.Context, table string, filter Filter, patch Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first Row
	for _, row := range m.tables[table] {
		if !filterMatches(filter, row) {
			continue
		}
		for col, val := range patch {
			row[col] = val
		}
		if first == nil {
			first = cloneRow(row)
		}
	}
	if first == nil {
		return nil, ErrNoRows
	}
	return first, nil
}

// DeleteRow removes the rows matching filter.
func (m *Memory) DeleteRow(_ context.Context, table string, filter Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tables[table][:0]
	for _, row := range m.tables[table] {
		if !filterMatches(filter, row) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}

// Subscribe registers a handler for row inserts.
func (m *Memory) Subscribe(table string, filter Filter, onInsert func(Row)) Subscription {
	return m.disp.subscribe(table, filter, onInsert)
}

// UploadBlob stores the blob and returns a relative URL.
func (m *Memory) UploadBlob(_ context.Context, bucket, name string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	m.blobs[bucket+"/"+name] = memoryBlob{data: append([]byte(nil), data...), contentType: contentType}
	m.mu.Unlock()
	return "/files/" + bucket + "/" + name, nil
}

// GetBlob reads a stored blob.
func (m *Memory) GetBlob(_ context.Context, bucket, name string) ([]byte, string, error) {
	m.mu.Lock()
	blob, ok := m.blobs[bucket+"/"+name]
	m.mu.Unlock()
	if !ok {
		return nil, "", ErrNoRows
	}
	return append([]byte(nil), blob.data...), blob.contentType, nil
}

// GetSession resolves a bearer token.
func (m *Memory) GetSession(_ context.Context, token string) (Session, error) {
	return sessionFromToken(m.jwtSecret, token)
}

// CountRows reports how many rows of a table match filter. Test helper.
func (m *Memory) CountRows(table string, filter Filter) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, row := range m.tables[table] {
		if filterMatches(filter, row) {
			count++
		}
	}
	return count
}

func uniqueKey(table string, row Row) string {
	switch table {
	case TableParticipants:
		return row.String("conversation_id") + "\x00" + row.String("profile_id")
	case TableConversations, TableMessages, TableProfiles, TableCompanies, TableNotifications:
		return "id\x00" + row.String("id")
	}
	return ""
}

func lessColumn(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Before(bt)
	}
	ai, aiok := a.(int64)
	bi, biok := b.(int64)
	if aiok && biok {
		return ai < bi
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs) < 0
}
