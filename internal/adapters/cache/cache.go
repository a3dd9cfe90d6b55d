// Package cache keeps the last successful full read of the ticket sheet for a
// bounded staleness window, so repeated list requests in one session do not
// each cost a remote round trip.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
	"github.com/wildforest/ticketsync/pkg/metrics"
)

// DefaultTTL is the staleness window used when none is configured.
const DefaultTTL = 60 * time.Second

// Reader is the part of the row store client the cache needs.
type Reader interface {
	ReadAll(ctx context.Context) (rowstore.ReadResult, error)
}

// Entry is one successful full read.
type Entry struct {
	Tickets   ticket.Collection
	Skipped   int
	FetchedAt time.Time
}

// Fresh reports whether the entry is within ttl of now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return !e.FetchedAt.IsZero() && now.Sub(e.FetchedAt) <= ttl
}

// Snapshot is what GetFresh hands out. Stale is set when a refetch failed and
// the last known-good entry is served instead; the UI decides whether to warn.
type Snapshot struct {
	Entry
	Stale bool
}

// Cache is a per-session, time-bounded copy of the sheet. Refreshes happen
// lazily on GetFresh; there is no background timer.
type Cache struct {
	reader Reader
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger

	mu          sync.Mutex
	entry       *Entry
	invalidated bool
}

// New creates a cache in front of reader.
func New(reader Reader, opts ...Option) *Cache {
	c := &Cache{
		reader: reader,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("cache")
	}
	return c
}

// TTL returns the staleness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// GetFresh returns the cached entry while it is fresh and not invalidated,
// otherwise reads the sheet again. When that read fails and an earlier entry
// exists, the earlier entry is returned marked stale; on a cold cache the
// read error is returned.
func (c *Cache) GetFresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && !c.invalidated && c.entry.Fresh(c.now(), c.ttl) {
		metrics.RecordCacheLookup(metrics.CacheHit)
		return Snapshot{Entry: c.entry.clone()}, nil
	}

	entry, err := c.fetch(ctx)
	if err != nil {
		if c.entry == nil {
			metrics.RecordCacheLookup(metrics.CacheError)
			return Snapshot{}, coldFailure(err)
		}
		metrics.RecordCacheLookup(metrics.CacheStale)
		c.logger.Warn(ctx, "serving stale tickets after failed refresh",
			logger.Duration("age", c.now().Sub(c.entry.FetchedAt)),
			logger.Error(err),
		)
		return Snapshot{Entry: c.entry.clone(), Stale: true}, nil
	}
	metrics.RecordCacheLookup(metrics.CacheMiss)
	return Snapshot{Entry: entry.clone()}, nil
}

// Refresh reads the sheet unconditionally and replaces the entry. Unlike
// GetFresh it never falls back to stale data, which makes it the right call
// when row positions must be current, e.g. before a write.
func (c *Cache) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.fetch(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Entry: entry.clone()}, nil
}

// Invalidate forces the next GetFresh to refetch regardless of age. The old
// entry is kept as the stale fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.mu.Unlock()
}

// Peek returns the current entry without any remote call.
func (c *Cache) Peek() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return c.entry.clone(), true
}

// fetch must be called with c.mu held.
func (c *Cache) fetch(ctx context.Context) (*Entry, error) {
	res, err := c.reader.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	c.entry = &Entry{
		Tickets:   res.Tickets,
		Skipped:   res.Skipped,
		FetchedAt: c.now(),
	}
	c.invalidated = false
	c.logger.Debug(ctx, "tickets refreshed",
		logger.Int("tickets", len(res.Tickets)),
		logger.Int("skipped", res.Skipped),
	)
	return c.entry, nil
}

// coldFailure reports a read failure with nothing to fall back on as the
// store being unavailable. The cause stays in the chain.
func coldFailure(err error) error {
	if errors.Is(err, ticket.ErrRemoteUnavailable) {
		return err
	}
	return ticket.WrapKind("cache.get_fresh", ticket.ErrRemoteUnavailable, err)
}

func (e *Entry) clone() Entry {
	return Entry{Tickets: e.Tickets.Clone(), Skipped: e.Skipped, FetchedAt: e.FetchedAt}
}
