package client_test

import (
	"context"
	"errors"
	nethttp "net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/papers-cli/papers/internal/client"
	"github.com/papers-cli/papers/internal/http"
	"github.com/papers-cli/papers/internal/observability"
	"github.com/papers-cli/papers/pkg/papers"
)

type countingDoer struct {
	calls atomic.Int32
	body  string
	err   error
}

func (d *countingDoer) Do(context.Context, *http.Request) (*http.Response, error) {
	d.calls.Add(1)

	if d.err != nil {
		return nil, d.err
	}

	return &http.Response{
		StatusCode: nethttp.StatusOK,
		Body:       []byte(d.body),
		Headers:    nethttp.Header{"Total-Results": {"7"}, "Content-Type": {"application/json"}},
	}, nil
}

type payload struct {
	Name string `json:"name"`
}

func newPipeline(t *testing.T, doer http.Doer, store *cache.Store) *client.Pipeline {
	t.Helper()

	p, err := client.NewPipeline(context.Background(), &papers.Config{}, client.Settings{
		API:     "test",
		BaseURL: "https://api.example.org",
	}, client.WithDoer(doer), client.WithStore(store))
	require.NoError(t, err)

	return p
}

func TestFetch_CachesDecodedBodies(t *testing.T) {
	t.Parallel()

	doer := &countingDoer{body: `{"name":"graphene"}`}
	store := cache.NewStore(cache.NewMemoryBackend(), time.Hour)
	p := newPipeline(t, doer, store)
	req := http.Get(p.BaseURL(), "/works/W1", nil)

	first, err := client.Fetch[payload](context.Background(), p, req)
	require.NoError(t, err)
	assert.Equal(t, "graphene", first.Value.Name)
	assert.False(t, first.Cached)

	second, err := client.Fetch[payload](context.Background(), p, req)
	require.NoError(t, err)
	assert.Equal(t, "graphene", second.Value.Name)
	assert.True(t, second.Cached)
	assert.Equal(t, "7", second.Header.Get(http.HeaderTotalResults))
	assert.Empty(t, second.Header.Get("Content-Type"))

	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestFetch_DecodeFailureIsNotCached(t *testing.T) {
	t.Parallel()

	doer := &countingDoer{body: `{"name":42}`}
	p := newPipeline(t, doer, cache.NewStore(cache.NewMemoryBackend(), time.Hour))
	req := http.Get(p.BaseURL(), "/works/W1", nil)

	for range 2 {
		_, err := client.Fetch[payload](context.Background(), p, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, papers.ErrDecode))
	}

	assert.Equal(t, int32(2), doer.calls.Load())
}

func TestFetch_UndecodableCacheEntryIsRefetched(t *testing.T) {
	t.Parallel()

	backend := cache.NewMemoryBackend()
	store := cache.NewStore(backend, time.Hour)
	doer := &countingDoer{body: `{"name":"fresh"}`}
	p := newPipeline(t, doer, store)
	req := http.Get(p.BaseURL(), "/works/W1", nil)

	store.Put(context.Background(), req.CacheKey("anonymous"), []byte(`{"body":{"name":1}}`), 0)

	result, err := client.Fetch[payload](context.Background(), p, req)
	require.NoError(t, err)
	assert.Equal(t, "fresh", result.Value.Name)
	assert.Equal(t, int32(1), doer.calls.Load())

	again, err := client.Fetch[payload](context.Background(), p, req)
	require.NoError(t, err)
	assert.True(t, again.Cached)
}

func TestFetch_WithoutCache(t *testing.T) {
	t.Parallel()

	doer := &countingDoer{body: `{"name":"x"}`}
	p := newPipeline(t, doer, nil)
	req := http.Get(p.BaseURL(), "/works", nil)

	for range 3 {
		_, err := client.Fetch[payload](context.Background(), p, req)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), doer.calls.Load())
	assert.NoError(t, p.Close())
}

func TestFetch_PropagatesTransportErrors(t *testing.T) {
	t.Parallel()

	doer := &countingDoer{err: &papers.Error{Kind: papers.KindClientError, Status: 404}}
	p := newPipeline(t, doer, cache.NewStore(cache.NewMemoryBackend(), time.Hour))

	_, err := client.Fetch[payload](context.Background(), p, http.Get(p.BaseURL(), "/works/W0", nil))
	assert.True(t, papers.IsNotFound(err))
}

func TestNewPipeline(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := client.NewPipeline(context.Background(), nil, client.Settings{})
		require.ErrorIs(t, err, papers.ErrConfigRequired)
	})

	t.Run("config base url wins", func(t *testing.T) {
		t.Parallel()

		p, err := client.NewPipeline(context.Background(), &papers.Config{BaseURL: "http://localhost:9"}, client.Settings{BaseURL: "https://api.openalex.org"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9", p.BaseURL())
		assert.Nil(t, p.Store())
	})

	t.Run("cache from config observed by metrics", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		config := &papers.Config{
			Cache:   &papers.CacheConfig{Type: papers.CacheTypeMemory},
			Metrics: reg,
		}

		p, err := client.NewPipeline(context.Background(), config, client.Settings{API: "openalex"},
			client.WithDoer(&countingDoer{body: `{}`}))
		require.NoError(t, err)
		require.NotNil(t, p.Store())

		_, err = client.Fetch[payload](context.Background(), p, http.Get("https://api.openalex.org", "/works", nil))
		require.NoError(t, err)

		metrics := observability.NewMetrics(reg)
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("openalex", "miss")), 0)
	})

	t.Run("invalid cache config", func(t *testing.T) {
		t.Parallel()

		_, err := client.NewPipeline(context.Background(), &papers.Config{Cache: &papers.CacheConfig{Type: "redis"}}, client.Settings{})
		require.ErrorIs(t, err, papers.ErrUnsupportedCacheType)
	})
}
