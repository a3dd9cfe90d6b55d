package service

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wildforest/ticketsync/pkg/metrics"
)

// registry keeps a bounded set of sessions. The front of order is the most
// recently used session; the back is evicted first when the registry is full.
type registry struct {
	mu      sync.Mutex
	byID    map[string]*list.Element
	order   *list.List
	maxSize int           // 0 or negative = unbounded
	idle    time.Duration // 0 = sessions never expire
	now     func() time.Time
	build   func(id string) *Session
}

func newRegistry(maxSize int, idle time.Duration, now func() time.Time, build func(id string) *Session) *registry {
	return &registry{
		byID:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		idle:    idle,
		now:     now,
		build:   build,
	}
}

// get returns the live session for id and marks it used. Sessions idle past
// the timeout are dropped and reported as absent.
func (r *registry) get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	s := el.Value.(*Session)
	now := r.now()
	if r.idle > 0 && now.Sub(s.lastSeen) > r.idle {
		r.remove(el)
		metrics.RecordSessionEvicted()
		return nil, false
	}
	s.lastSeen = now
	r.order.MoveToFront(el)
	return s, true
}

// create builds a session under a fresh id, evicting the least recently used
// session when the registry is full.
func (r *registry) create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 {
		for r.order.Len() >= r.maxSize {
			r.remove(r.order.Back())
			metrics.RecordSessionEvicted()
		}
	}

	s := r.build(uuid.NewString())
	s.lastSeen = r.now()
	r.byID[s.id] = r.order.PushFront(s)
	metrics.UpdateSessionsActive(r.order.Len())
	return s
}

// drop removes a session if present.
func (r *registry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.byID[id]; ok {
		r.remove(el)
	}
}

// sweep drops every idle session and returns how many were removed.
func (r *registry) sweep() int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for el := r.order.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*Session).lastSeen) > r.idle {
			r.remove(el)
			metrics.RecordSessionEvicted()
			removed++
		}
		el = prev
	}
	return removed
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// remove must be called with mu held.
func (r *registry) remove(el *list.Element) {
	s := el.Value.(*Session)
	r.order.Remove(el)
	delete(r.byID, s.id)
	metrics.UpdateSessionsActive(r.order.Len())
}
