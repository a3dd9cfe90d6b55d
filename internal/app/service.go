// Package service ties the row store, per-session caches and the mutation
// coordinator together behind the HTTP API.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/wildforest/ticketsync/internal/adapters/cache"
	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

// Service hands out sessions that share one remote grid.
type Service struct {
	mu sync.RWMutex

	grid     rowstore.Grid
	sessions *registry
	// headerMu is shared by every session's client over grid.
	headerMu sync.Mutex

	// Configuration
	backend       string
	vocab         *ticket.Vocabulary
	columns       ticket.Columns
	layout        string
	cacheTTL      time.Duration
	remoteTimeout time.Duration
	maxSessions   int
	idleTimeout   time.Duration
	now           func() time.Time

	// State
	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGrid sets the row store backend shared by all sessions.
func WithGrid(g rowstore.Grid) Option {
	return func(s *Service) { s.grid = g }
}

// WithBackendName records the backend name reported by GetStats.
func WithBackendName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.backend = name
		}
	}
}

// WithVocabulary sets the status vocabulary.
func WithVocabulary(v *ticket.Vocabulary) Option {
	return func(s *Service) {
		if v != nil {
			s.vocab = v
		}
	}
}

// WithColumns sets the header names used for the sheet.
func WithColumns(cols ticket.Columns) Option {
	return func(s *Service) { s.columns = cols }
}

// WithTimestampLayout sets the layout used for created/updated cells and notes.
func WithTimestampLayout(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.layout = layout
		}
	}
}

// WithCacheTTL sets how long a session's snapshot stays fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRemoteTimeout bounds every remote call.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

// WithMaxSessions caps the number of live sessions. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionIdleTimeout drops sessions unused for longer than d.
func WithSessionIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithClock overrides the time source for caches, timestamps and sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:       "memory",
		vocab:         ticket.DefaultVocabulary(),
		columns:       ticket.DefaultColumns(),
		layout:        ticket.DefaultTimestampLayout,
		cacheTTL:      cache.DefaultTTL,
		remoteTimeout: rowstore.DefaultTimeout,
		maxSessions:   1000,
		idleTimeout:   30 * time.Minute,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the session registry and the idle sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.grid == nil {
		return ErrNoGrid
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.stopCh = make(chan struct{})
	s.sessions = newRegistry(s.maxSessions, s.idleTimeout, s.now, s.newSession)
	if s.idleTimeout > 0 {
		go s.sweepLoop(s.sessions, s.stopCh, sweepInterval(s.idleTimeout))
	}

	s.started = true
	s.logger.Info(ctx, "ticket service started",
		logger.String("backend", s.backend),
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Duration("remoteTimeout", s.remoteTimeout),
		logger.Int("maxSessions", s.maxSessions),
	)
	return nil
}

// Stop shuts the service down and closes the grid if it holds resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping ticket service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if closer, ok := s.grid.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close grid", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "ticket service stopped")
}

// Session returns the live session for id, or a new one when id is empty,
// unknown or expired. The boolean reports whether a session was created.
func (s *Service) Session(id string) (*Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, false, ErrNotStarted
	}
	if id != "" {
		if sess, ok := s.sessions.get(id); ok {
			return sess, false, nil
		}
	}
	return s.sessions.create(), true, nil
}

// EndSession forgets a session.
func (s *Service) EndSession(id string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started {
		s.sessions.drop(id)
	}
}

// Vocabulary returns the configured status vocabulary.
func (s *Service) Vocabulary() *ticket.Vocabulary { return s.vocab }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"backend":       s.backend,
		"cacheTTL":      s.cacheTTL.String(),
		"remoteTimeout": s.remoteTimeout.String(),
		"maxSessions":   s.maxSessions,
	}
	if s.started {
		stats["sessions"] = s.sessions.len()
	}
	return stats
}

// newSession builds the per-session stack: a row store client over the shared
// grid, a private cache and a coordinator bound to both.
func (s *Service) newSession(id string) *Session {
	l := s.logger.With(logger.String("session", id))
	client := rowstore.NewClient(s.grid,
		rowstore.WithColumns(s.columns),
		rowstore.WithTimestampLayout(s.layout),
		rowstore.WithTimeout(s.remoteTimeout),
		rowstore.WithHeaderLock(&s.headerMu),
		rowstore.WithLogger(l.Named("rowstore")),
	)
	c := cache.New(client,
		cache.WithTTL(s.cacheTTL),
		cache.WithClock(s.now),
		cache.WithLogger(l.Named("cache")),
	)
	return &Session{
		id:    id,
		cache: c,
		coord: NewCoordinator(client, c, s.vocab, s.layout, s.now, l.Named("coordinator")),
		vocab: s.vocab,
	}
}

// minSweepInterval keeps tiny idle timeouts from spinning the sweeper.
const minSweepInterval = time.Second

// sweepInterval checks twice per idle timeout, but no more than once a second.
func sweepInterval(idle time.Duration) time.Duration {
	return max(idle/2, minSweepInterval)
}

func (s *Service) sweepLoop(sessions *registry, stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := sessions.sweep(); n > 0 {
				s.logger.Debug(context.Background(), "dropped idle sessions", logger.Int("count", n))
			}
		}
	}
}
