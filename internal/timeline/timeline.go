// Package timeline keeps a conversation's message list consistent while
// sends are in flight. Optimistic entries appear immediately, get resolved
// in place when the backend confirms them, and are reconciled against
// realtime inserts so the same message never shows twice.
package timeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"supportdesk/internal/models"
)

// DeliveryState tags an entry's position in the send lifecycle.
type DeliveryState string

const (
	// Confirmed entries carry the backend-assigned id and timestamp.
	Confirmed DeliveryState = "confirmed"
	// Pending entries were staged locally and await the backend's answer.
	Pending DeliveryState = "pending"
	// Failed tags a rejected draft. Failed drafts never appear in the
	// visible list; they are held aside for retry or dismissal.
	Failed DeliveryState = "failed"
)

// echoWindow bounds how far apart a staged send and its realtime echo may
// be and still count as the same message.
const echoWindow = 30 * time.Second

// Entry is a message plus its delivery state. LocalID is set only for
// entries that were staged on this client.
type Entry struct {
	models.Message
	State   DeliveryState
	LocalID string
}

// Timeline is the ordered message list for one open conversation. Confirmed
// entries sort by server timestamp; pending entries stay at the tail in
// staging order. Rolled-back sends leave the visible list entirely and are
// kept as failed drafts. Safe for concurrent use.
type Timeline struct {
	mu      sync.Mutex
	entries []Entry
	failed  []Entry
	now     func() time.Time
}

// New returns an empty Timeline.
func New() *Timeline {
	return &Timeline{now: time.Now}
}

// Stage appends an optimistic entry for a message the caller is about to
// send and returns its local id.
func (t *Timeline) Stage(draft models.Message) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	localID := fmt.Sprintf("temp-%d", t.now().UnixNano())
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = t.now().UTC()
	}
	t.entries = append(t.entries, Entry{Message: draft, State: Pending, LocalID: localID})
	return localID
}

// Resolve confirms the pending entry identified by localID, adopting the
// backend's id and timestamp. Resolving an unknown local id is a no-op;
// the realtime echo may have claimed the entry first.
func (t *Timeline) Resolve(localID string, confirmed models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].LocalID == localID && t.entries[i].State == Pending {
			t.entries[i].Message = confirmed
			t.entries[i].State = Confirmed
			t.resort()
			return
		}
	}
}

// Rollback strips the pending entry identified by localID from the visible
// list. The visible count returns to its pre-send value; the draft is kept
// aside as failed so the caller can offer a retry.
func (t *Timeline) Rollback(localID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].LocalID == localID && t.entries[i].State == Pending {
			draft := t.entries[i]
			draft.State = Failed
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.failed = append(t.failed, draft)
			return
		}
	}
}

// Remove drops the entry identified by localID, whether it is still
// visible or already a failed draft.
func (t *Timeline) Remove(localID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].LocalID == localID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
	for i := range t.failed {
		if t.failed[i].LocalID == localID {
			t.failed = append(t.failed[:i], t.failed[i+1:]...)
			return
		}
	}
}

// Reset replaces the confirmed history with a fresh server snapshot while
// keeping in-flight pending entries at the tail. Failed drafts are
// untouched.
func (t *Timeline) Reset(history []models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]Entry, 0, len(history)+len(t.entries))
	for _, msg := range history {
		next = append(next, Entry{Message: msg, State: Confirmed})
	}
	for _, e := range t.entries {
		if e.State != Confirmed {
			next = append(next, e)
		}
	}
	t.entries = next
	t.resort()
}

// ApplyInsert reconciles a realtime insert. A message whose id is already
// present is dropped. Otherwise it is matched against pending entries by
// sender, body and kind within the echo window; a match is confirmed in
// place, anything else is appended as a new confirmed entry.
func (t *Timeline) ApplyInsert(msg models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.ID != "" && e.ID == msg.ID {
			return false
		}
	}

	for i := range t.entries {
		e := &t.entries[i]
		if e.State != Pending {
			continue
		}
		if e.SenderID != msg.SenderID || e.Body != msg.Body || e.Kind != msg.Kind {
			continue
		}
		delta := msg.CreatedAt.Sub(e.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > echoWindow {
			continue
		}
		e.Message = msg
		e.State = Confirmed
		t.resort()
		return true
	}

	t.entries = append(t.entries, Entry{Message: msg, State: Confirmed})
	t.resort()
	return true
}

// Entries returns a copy of the visible timeline in display order. Failed
// drafts are not part of it.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// FailedDrafts returns the rolled-back sends held for retry, oldest first.
func (t *Timeline) FailedDrafts() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.failed))
	copy(out, t.failed)
	return out
}

// Len reports the number of visible entries, pending included.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// resort orders confirmed entries by server timestamp and keeps pending
// entries after them, preserving their relative order. Callers must hold
// the mutex.
func (t *Timeline) resort() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if (a.State == Confirmed) != (b.State == Confirmed) {
			return a.State == Confirmed
		}
		if a.State != Confirmed {
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
