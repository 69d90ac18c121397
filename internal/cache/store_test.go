package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f9"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

type failingBackend struct{}

var errDiskOnFire = errors.New("disk on fire")

func (failingBackend) Get(context.Context, string) (*cache.Entry, error) { return nil, errDiskOnFire }
func (failingBackend) Set(context.Context, string, *cache.Entry) error   { return errDiskOnFire }
func (failingBackend) Delete(context.Context, string) error              { return errDiskOnFire }
func (failingBackend) Clear(context.Context) error                       { return errDiskOnFire }

func TestStore_RoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) cache.Backend{
		"memory": func(t *testing.T) cache.Backend { return cache.NewMemoryBackend() },
		"disk": func(t *testing.T) cache.Backend {
			d, err := cache.NewDiskBackend(t.TempDir())
			require.NoError(t, err)

			return d
		},
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			clock := newFakeClock()
			store := cache.NewStore(newBackend(t), time.Hour, cache.WithClock(clock.Now))
			ctx := context.Background()

			store.Put(ctx, testKey, []byte(`{"id":"W1"}`), 10*time.Minute)

			body, ok := store.Get(ctx, testKey)
			require.True(t, ok)
			assert.JSONEq(t, `{"id":"W1"}`, string(body))

			clock.Advance(10*time.Minute - time.Nanosecond)

			_, ok = store.Get(ctx, testKey)
			assert.True(t, ok, "entry should survive until its TTL has fully elapsed")

			clock.Advance(time.Nanosecond)

			_, ok = store.Get(ctx, testKey)
			assert.False(t, ok, "entry should expire once the TTL has elapsed")
		})
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), time.Hour)
	ctx := context.Background()

	store.Put(ctx, testKey, []byte("first"), 0)
	store.Put(ctx, testKey, []byte("second"), 0)

	body, ok := store.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, "second", string(body))
}

func TestStore_DefaultTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, cache.WithClock(clock.Now))
	ctx := context.Background()

	store.Put(ctx, testKey, []byte("x"), 0)
	clock.Advance(time.Minute)

	_, ok := store.Get(ctx, testKey)
	assert.False(t, ok)
}

func TestStore_BackendFailuresAreMisses(t *testing.T) {
	t.Parallel()

	logger := &MockLogger{}

	var results []string

	store := cache.NewStore(failingBackend{}, time.Hour,
		cache.WithLogger(logger),
		cache.WithObserver(func(result string) { results = append(results, result) }),
	)
	ctx := context.Background()

	assert.NotPanics(t, func() { store.Put(ctx, testKey, []byte("x"), 0) })

	_, ok := store.Get(ctx, testKey)
	assert.False(t, ok)

	assert.Equal(t, []string{cache.ResultError, cache.ResultError}, results)
	require.Len(t, logger.logs, 2)
	assert.Equal(t, "warn", logger.logs[0]["level"])
	assert.Equal(t, "cache write failed", logger.logs[0]["msg"])
	assert.Equal(t, "cache read failed", logger.logs[1]["msg"])
}

func TestStore_NilIsAlwaysMiss(t *testing.T) {
	t.Parallel()

	var store *cache.Store

	ctx := context.Background()

	store.Put(ctx, testKey, []byte("x"), time.Hour)

	_, ok := store.Get(ctx, testKey)
	assert.False(t, ok)

	n, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, store.Clear(ctx))
}

func TestStore_ObserverOutcomes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()

	var results []string

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute,
		cache.WithClock(clock.Now),
		cache.WithObserver(func(result string) { results = append(results, result) }),
	)
	ctx := context.Background()

	_, _ = store.Get(ctx, testKey)
	store.Put(ctx, testKey, []byte("x"), 0)
	_, _ = store.Get(ctx, testKey)
	clock.Advance(time.Hour)
	_, _ = store.Get(ctx, testKey)

	assert.Equal(t, []string{cache.ResultMiss, cache.ResultHit, cache.ResultExpired}, results)
}

func TestStore_ExpiredReadLeavesEntryForSweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	backend := cache.NewMemoryBackend()
	store := cache.NewStore(backend, time.Minute, cache.WithClock(clock.Now))
	ctx := context.Background()

	store.Put(ctx, testKey, []byte("old"), 0)
	clock.Advance(time.Hour)

	_, ok := store.Get(ctx, testKey)
	assert.False(t, ok)

	_, err := backend.Get(ctx, testKey)
	require.NoError(t, err, "an expired read must not delete the entry")

	store.Put(ctx, testKey, []byte("fresh"), 0)

	body, ok := store.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, "fresh", string(body))

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestStore_Sweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	backend := cache.NewMemoryBackend()
	store := cache.NewStore(backend, time.Hour, cache.WithClock(clock.Now))
	ctx := context.Background()

	store.Put(ctx, testKey, []byte("short"), time.Minute)
	store.Put(ctx, "ffff"+testKey[4:], []byte("long"), 2*time.Hour)
	clock.Advance(time.Hour)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, backend.Len())
}

func TestStore_ConcurrentPutSameKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := cache.NewDiskBackend(dir)
	require.NoError(t, err)

	store := cache.NewStore(backend, time.Hour)
	ctx := context.Background()

	bodies := []string{`{"writer":"a"}`, `{"writer":"b"}`, `{"writer":"c"}`, `{"writer":"d"}`}

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func(body string) {
			defer wg.Done()

			store.Put(ctx, testKey, []byte(body), 0)
			_, _ = store.Get(ctx, testKey)
		}(bodies[i%len(bodies)])
	}

	wg.Wait()

	body, ok := store.Get(ctx, testKey)
	require.True(t, ok)
	assert.Contains(t, bodies, string(body))
}
