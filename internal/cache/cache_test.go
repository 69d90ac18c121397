package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/papers-cli/papers/pkg/papers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("promotes lower level hits", func(t *testing.T) {
		t.Parallel()

		l1 := cache.NewMemoryBackend()
		l2 := cache.NewMemoryBackend()
		chain := cache.NewChain(l1, l2)
		ctx := context.Background()

		require.NoError(t, l2.Set(ctx, testKey, &cache.Entry{Body: []byte("deep"), StoredAt: time.Now(), TTL: time.Hour}))

		entry, err := chain.Get(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, "deep", string(entry.Body))

		promoted, err := l1.Get(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, "deep", string(promoted.Body))
	})

	t.Run("miss everywhere", func(t *testing.T) {
		t.Parallel()

		chain := cache.NewChain(cache.NewMemoryBackend(), cache.NoOpBackend{})

		_, err := chain.Get(context.Background(), testKey)
		require.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("set writes every level and sweep reaches sweepers", func(t *testing.T) {
		t.Parallel()

		l1 := cache.NewMemoryBackend()
		l2, err := cache.NewDiskBackend(t.TempDir())
		require.NoError(t, err)

		chain := cache.NewChain(l1, l2, cache.NewNoOpBackend())
		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour)

		require.NoError(t, chain.Set(ctx, testKey, &cache.Entry{Body: []byte("x"), StoredAt: past, TTL: time.Hour}))

		_, err = l2.Get(ctx, testKey)
		require.NoError(t, err)

		removed, err := chain.Sweep(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
	})
}

func TestNewBackendFromConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("nil config disables caching", func(t *testing.T) {
		t.Parallel()

		backend, err := cache.NewBackendFromConfig(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, backend)
	})

	t.Run("none disables caching", func(t *testing.T) {
		t.Parallel()

		store, err := cache.NewStoreFromConfig(ctx, &papers.CacheConfig{Type: papers.CacheTypeNone})
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("disk", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		backend, err := cache.NewBackendFromConfig(ctx, &papers.CacheConfig{Type: papers.CacheTypeDisk, Dir: dir})
		require.NoError(t, err)

		disk, ok := backend.(*cache.DiskBackend)
		require.True(t, ok)
		assert.Equal(t, dir, disk.Dir())
	})

	t.Run("layered disk", func(t *testing.T) {
		t.Parallel()

		backend, err := cache.NewBackendFromConfig(ctx, &papers.CacheConfig{Type: papers.CacheTypeDisk, Dir: t.TempDir(), Layered: true})
		require.NoError(t, err)
		assert.IsType(t, &cache.Chain{}, backend)
	})

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		store, err := cache.NewStoreFromConfig(ctx, &papers.CacheConfig{Type: papers.CacheTypeMemory, TTL: time.Minute})
		require.NoError(t, err)
		require.NotNil(t, store)
		assert.Equal(t, time.Minute, store.TTL())
	})

	t.Run("nats without config", func(t *testing.T) {
		t.Parallel()

		_, err := cache.NewBackendFromConfig(ctx, &papers.CacheConfig{Type: papers.CacheTypeNATS})
		require.ErrorIs(t, err, papers.ErrNATSConfigRequired)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		_, err := cache.NewBackendFromConfig(ctx, &papers.CacheConfig{Type: "redis"})
		require.ErrorIs(t, err, papers.ErrUnsupportedCacheType)
	})
}
