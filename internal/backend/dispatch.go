package backend

import (
	"fmt"
	"sync"
)

// dispatcher fans successful inserts out to realtime subscribers. Both the
// Postgres and the in-memory client share it so subscription semantics are
// identical in tests and in production.
type dispatcher struct {
	mu   sync.RWMutex
	next int
	subs map[int]*subscription
}

type subscription struct {
	d      *dispatcher
	id     int
	table  string
	filter Filter
	fn     func(Row)
}

func (s *subscription) Unsubscribe() {
	s.d.mu.Lock()
	delete(s.d.subs, s.id)
	s.d.mu.Unlock()
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[int]*subscription)}
}

func (d *dispatcher) subscribe(table string, filter Filter, fn func(Row)) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	sub := &subscription{d: d, id: d.next, table: table, filter: filter, fn: fn}
	d.subs[sub.id] = sub
	return sub
}

func (d *dispatcher) dispatch(table string, row Row) {
	d.mu.RLock()
	targets := make([]*subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		if sub.table == table && filterMatches(sub.filter, row) {
			targets = append(targets, sub)
		}
	}
	d.mu.RUnlock()

	for _, sub := range targets {
		sub.fn(row)
	}
}

// filterMatches compares column values by their printed form so int and
// int64 driver representations of the same value still match.
func filterMatches(f Filter, row Row) bool {
	for col, want := range f {
		got, ok := row[col]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
