// Package client composes the request pipeline shared by the OpenAlex and
// Zotero clients: cache lookup, the retrying transport, decoding and cache
// fill.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/http"
	"github.com/papers-cli/papers/internal/observability"
	"github.com/papers-cli/papers/pkg/papers"
)

// cachedHeaders are replayed from the cache together with the body.
var cachedHeaders = []string{http.HeaderTotalResults, http.HeaderLastModifiedVersion}

// Settings are the provider specific parts of a pipeline.
type Settings struct {
	// API labels logs and metrics, e.g. "openalex".
	API string

	// BaseURL is the provider root used when the config has none.
	BaseURL string

	// Auth attaches credentials. Nil sends anonymous requests.
	Auth http.Authenticator

	// RateLimit is the provider's default request rate per second.
	RateLimit float64
}

// Pipeline executes request descriptors against one provider.
type Pipeline struct {
	api       string
	baseURL   string
	doer      http.Doer
	store     *cache.Store
	partition string
	logger    papers.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDoer replaces the retrying transport, e.g. with a test stub.
func WithDoer(doer http.Doer) Option {
	return func(p *Pipeline) {
		p.doer = doer
	}
}

// WithStore replaces the cache store built from the config.
func WithStore(store *cache.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// NewPipeline builds the transport, retry loop and cache for config.
//
//nolint:funlen
func NewPipeline(ctx context.Context, config *papers.Config, settings Settings, opts ...Option) (*Pipeline, error) {
	if config == nil {
		return nil, papers.ErrConfigRequired
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = settings.BaseURL
	}

	var observer *observability.APIObserver
	if config.Metrics != nil {
		observer = observability.NewMetrics(config.Metrics).ForAPI(settings.API)
	}

	rateLimit := config.RateLimit
	if rateLimit == 0 {
		rateLimit = settings.RateLimit
	}

	burst := config.RateBurst
	if burst <= 0 {
		burst = constants.DefaultRateBurst
	}

	httpOpts := []http.Option{
		http.WithDebug(config.Debug),
		http.WithUserAgent(config.UserAgent),
		http.WithTimeout(config.Timeout),
		http.WithRateLimit(rateLimit, burst),
		http.WithHTTPClient(config.HTTPClient),
	}

	retryOpts := []http.RetryOption{}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
		retryOpts = append(retryOpts, http.WithRetryLogger(config.Logger))
	}

	if observer != nil {
		httpOpts = append(httpOpts, http.WithObserver(observer))
		retryOpts = append(retryOpts, http.WithRetryObserver(observer))
	}

	transport := http.NewClient(settings.Auth, httpOpts...)

	policy := http.DefaultRetryPolicy()
	if config.MaxAttempts > 0 {
		policy.MaxAttempts = config.MaxAttempts
	}

	if config.RetryWaitMin > 0 {
		policy.BaseDelay = config.RetryWaitMin
	}

	if config.RetryWaitMax > 0 {
		policy.MaxDelay = config.RetryWaitMax
	}

	p := &Pipeline{
		api:       settings.API,
		baseURL:   baseURL,
		doer:      http.NewRetryer(transport, policy, retryOpts...),
		partition: transport.Partition(),
		logger:    config.Logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.store == nil && config.Cache != nil {
		storeOpts := []cache.StoreOption{}
		if config.Logger != nil {
			storeOpts = append(storeOpts, cache.WithLogger(config.Logger))
		}

		if observer != nil {
			storeOpts = append(storeOpts, cache.WithObserver(observer.ObserveCache))
		}

		store, err := cache.NewStoreFromConfig(ctx, config.Cache, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}

		p.store = store
	}

	return p, nil
}

// BaseURL returns the provider root requests are built against.
func (p *Pipeline) BaseURL() string {
	return p.baseURL
}

// Store returns the cache store, nil when caching is off.
func (p *Pipeline) Store() *cache.Store {
	return p.store
}

// Close releases the cache backend.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Result is a decoded response with the headers callers read.
type Result[T any] struct {
	Value  T
	Header nethttp.Header
	Cached bool
}

// envelope is the cached form of a response.
type envelope struct {
	Header nethttp.Header  `json:"header,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// Fetch executes req through the cache and the retrying transport and decodes
// the body into T. Only bodies that decode are cached; a cached body that no
// longer decodes is dropped and fetched again.
func Fetch[T any](ctx context.Context, p *Pipeline, req *http.Request) (*Result[T], error) {
	key := req.CacheKey(p.partition)

	if raw, ok := p.store.Get(ctx, key); ok {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			var value T
			if err := json.Unmarshal(env.Body, &value); err == nil {
				p.debug("cache hit", req)

				return &Result[T]{Value: value, Header: env.Header, Cached: true}, nil
			}
		}

		p.store.Invalidate(ctx, key)
	}

	start := time.Now()

	resp, err := p.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var value T
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return nil, &papers.Error{
			Kind:    papers.KindDecode,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("decoding %s %s", req.Method(), req.Path()),
			Err:     err,
		}
	}

	p.save(ctx, key, resp)

	if p.logger != nil {
		p.logger.Debug("fetched", map[string]interface{}{
			"api":      p.api,
			"path":     req.Path(),
			"duration": time.Since(start).String(),
		})
	}

	return &Result[T]{Value: value, Header: resp.Headers}, nil
}

func (p *Pipeline) save(ctx context.Context, key string, resp *http.Response) {
	if p.store == nil {
		return
	}

	env := envelope{Body: resp.Body}

	for _, name := range cachedHeaders {
		if v := resp.Headers.Get(name); v != "" {
			if env.Header == nil {
				env.Header = nethttp.Header{}
			}

			env.Header.Set(name, v)
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	p.store.Put(ctx, key, data, 0)
}

func (p *Pipeline) debug(msg string, req *http.Request) {
	if p.logger == nil {
		return
	}

	p.logger.Debug(msg, map[string]interface{}{"api": p.api, "path": req.Path()})
}
