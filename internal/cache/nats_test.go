package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const natsTestKey = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type fakeBucket struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{values: map[string][]byte{}}
}

func (b *fakeBucket) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.values[key]
	if !ok {
		return nil, ErrMiss
	}

	return v, nil
}

func (b *fakeBucket) Put(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = value
	b.puts++

	return nil
}

func (b *fakeBucket) Purge(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)

	return nil
}

func (b *fakeBucket) Keys(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, nil
}

func TestNATSBackend_RoundTrip(t *testing.T) {
	t.Parallel()

	bucket := newFakeBucket()
	backend := newNATSBackendWithBucket(bucket)
	ctx := context.Background()

	stored := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, backend.Set(ctx, natsTestKey, &Entry{Body: []byte(`{"ok":true}`), StoredAt: stored, TTL: time.Hour}))
	assert.Equal(t, 1, bucket.puts)

	entry, err := backend.Get(ctx, natsTestKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(entry.Body))
	assert.True(t, stored.Equal(entry.StoredAt))

	require.NoError(t, backend.Delete(ctx, natsTestKey))

	_, err = backend.Get(ctx, natsTestKey)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNATSBackend_SweepAndClear(t *testing.T) {
	t.Parallel()

	bucket := newFakeBucket()
	backend := newNATSBackendWithBucket(bucket)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	fresh := "aa" + natsTestKey[2:]
	stale := "bb" + natsTestKey[2:]

	require.NoError(t, backend.Set(ctx, fresh, &Entry{Body: []byte("f"), StoredAt: now, TTL: time.Hour}))
	require.NoError(t, backend.Set(ctx, stale, &Entry{Body: []byte("s"), StoredAt: now.Add(-time.Hour), TTL: time.Minute}))
	require.NoError(t, bucket.Put(ctx, "cc"+natsTestKey[2:], []byte("garbage")))

	removed, err := backend.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err := bucket.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, keys)

	require.NoError(t, backend.Clear(ctx))

	keys, err = bucket.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNATSBackend_InvalidKey(t *testing.T) {
	t.Parallel()

	backend := newNATSBackendWithBucket(newFakeBucket())

	err := backend.Set(context.Background(), "works.subject", &Entry{Body: []byte("x")})
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestNATSBackend_CloseWithoutConnection(t *testing.T) {
	t.Parallel()

	assert.NoError(t, newNATSBackendWithBucket(newFakeBucket()).Close())
}

func TestEntryCodec_RejectsOtherVersions(t *testing.T) {
	t.Parallel()

	_, err := decodeEntry([]byte(`{"v":99,"stored_at":"2026-01-01T00:00:00Z","ttl_ns":1,"body":""}`))
	require.ErrorIs(t, err, ErrEntryVersion)
}
