package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/papers-cli/papers/pkg/papers"
)

// Lookup outcomes reported to the observer.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultExpired = "expired"
	ResultError   = "error"
)

// Store applies TTLs on top of a Backend and downgrades every backend failure
// to a miss. A nil *Store behaves as an always-miss cache.
type Store struct {
	backend  Backend
	ttl      time.Duration
	now      func() time.Time
	logger   papers.Logger
	observer func(result string)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger cache failures are reported to.
func WithLogger(logger papers.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver registers a callback invoked with the outcome of every lookup
// and with ResultError for failed writes.
func WithObserver(observer func(result string)) StoreOption {
	return func(s *Store) {
		s.observer = observer
	}
}

// NewStore wraps backend. ttl is used by Put calls that pass zero.
func NewStore(backend Backend, ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = papers.DefaultCacheTTL
	}

	s := &Store{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Backend returns the wrapped backend.
func (s *Store) Backend() Backend {
	if s == nil {
		return nil
	}

	return s.backend
}

// TTL returns the default entry lifetime.
func (s *Store) TTL() time.Duration {
	if s == nil {
		return 0
	}

	return s.ttl
}

// Get returns the body stored under key if it exists and has not expired.
// Expired entries are skipped and left for Sweep, since a concurrent Put may
// already have replaced them.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}

	entry, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		s.observe(ResultMiss)

		return nil, false
	}

	if err != nil {
		s.warn("cache read failed", key, err)
		s.observe(ResultError)

		return nil, false
	}

	if entry.Expired(s.now()) {
		s.observe(ResultExpired)

		return nil, false
	}

	s.observe(ResultHit)

	return entry.Body, true
}

// Put stores body under key. A zero ttl uses the store default. Failures are
// logged and otherwise ignored.
func (s *Store) Put(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if s == nil {
		return
	}

	if ttl <= 0 {
		ttl = s.ttl
	}

	err := s.backend.Set(ctx, key, &Entry{Body: body, StoredAt: s.now(), TTL: ttl})
	if err != nil {
		s.warn("cache write failed", key, err)
		s.observe(ResultError)
	}
}

// Invalidate removes the entry stored under key.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if s == nil {
		return
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		s.warn("cache delete failed", key, err)
	}
}

// Sweep removes expired entries if the backend supports it and reports how
// many were removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}

	sweeper, ok := s.backend.(Sweeper)
	if !ok {
		return 0, nil
	}

	return sweeper.Sweep(ctx, s.now())
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}

	return s.backend.Clear(ctx)
}

// Close releases the backend's resources, e.g. a NATS connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func (s *Store) warn(msg, key string, err error) {
	if s.logger == nil {
		return
	}

	s.logger.Warn(msg, map[string]interface{}{
		"key":   key,
		"error": (&papers.Error{Kind: papers.KindCache, Err: err}).Error(),
	})
}

func (s *Store) observe(result string) {
	if s.observer != nil {
		s.observer(result)
	}
}
