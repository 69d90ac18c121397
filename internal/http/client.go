package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// Response headers callers depend on. Everything else is dropped.
const (
	HeaderTotalResults        = "Total-Results"
	HeaderLastModifiedVersion = "Last-Modified-Version"
	HeaderRetryAfter          = "Retry-After"
	HeaderBackoff             = "Backoff"
	HeaderContentType         = "Content-Type"
)

var defaultExposedHeaders = []string{
	HeaderTotalResults,
	HeaderLastModifiedVersion,
	HeaderRetryAfter,
	HeaderBackoff,
	HeaderContentType,
}

// Response is the raw outcome of one attempt.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Doer executes one request descriptor.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Doer.
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Observer receives transport and retry events, e.g. for metrics.
type Observer interface {
	ObserveRequest(status int, err error, elapsed time.Duration)
	ObserveRetry(kind papers.ErrorKind)
}

// Client is the transport. It executes exactly one attempt per Do call; the
// retry policy lives in Retryer. A non-2xx status is not an error here.
type Client struct {
	http      *retryablehttp.Client
	auth      Authenticator
	limiter   *rate.Limiter
	logger    papers.Logger
	observer  Observer
	debug     bool
	userAgent string
	timeout   time.Duration
	exposed   []string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger papers.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each attempt, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRateLimit gates each attempt behind a token bucket. A non-positive
// rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil

			return
		}

		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the pooled net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http.HTTPClient = httpClient
		}
	}
}

// WithObserver registers a transport observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithExposedHeaders adds response headers to keep.
func WithExposedHeaders(names ...string) Option {
	return func(c *Client) {
		c.exposed = append(c.exposed, names...)
	}
}

// NewClient creates a transport. auth may be nil.
func NewClient(auth Authenticator, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		http:      rc,
		auth:      auth,
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultHTTPTimeout,
		exposed:   append([]string(nil), defaultExposedHeaders...),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.debug && c.logger != nil {
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			c.logger.Debug("HTTP Request", map[string]interface{}{
				"method": req.Method,
				"url":    redactURL(req.URL),
			})
		}
		rc.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
			c.logger.Debug("HTTP Response", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    redactURL(resp.Request.URL),
			})
		}
	}

	return c
}

// Partition returns the cache partition of the client's credential.
func (c *Client) Partition() string {
	if c.auth == nil {
		return CredentialPartition("")
	}

	return c.auth.Partition()
}

// Do sends req once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			return nil, &papers.Error{Kind: papers.KindNetwork, Message: "rate limiter wait", Err: err}
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body interface{}
	if b := req.Body(); b != nil {
		body = bytes.NewReader(b)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(attemptCtx, req.Method(), req.URL(), body)
	if err != nil {
		return nil, &papers.Error{Kind: papers.KindInvalidParams, Message: "building request", Err: err}
	}

	for name, values := range req.Header() {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if ct := req.ContentType(); ct != "" {
		httpReq.Header.Set("Content-Type", ct)
	}

	if c.auth != nil {
		c.auth.Authenticate(httpReq.Request)
	}

	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, "request failed", err, start)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, "reading response body", err, start)
	}

	if c.observer != nil {
		c.observer.ObserveRequest(resp.StatusCode, nil, time.Since(start))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    c.pickHeaders(resp.Header),
	}, nil
}

// transportError returns the caller's context error when it is done, and a
// Network error otherwise. A per-attempt timeout is a Network error.
func (c *Client) transportError(ctx context.Context, msg string, err error, start time.Time) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	netErr := &papers.Error{Kind: papers.KindNetwork, Message: msg, Err: err}
	if errors.Is(err, context.DeadlineExceeded) {
		netErr.Message = fmt.Sprintf("%s: timed out after %s", msg, c.timeout)
	}

	if c.observer != nil {
		c.observer.ObserveRequest(0, netErr, time.Since(start))
	}

	return netErr
}

func (c *Client) pickHeaders(h http.Header) http.Header {
	out := make(http.Header, len(c.exposed))

	for _, name := range c.exposed {
		if vs := h.Values(name); len(vs) > 0 {
			out[http.CanonicalHeaderKey(name)] = append([]string(nil), vs...)
		}
	}

	return out
}

// redactURL masks credentials in a URL for logging.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	masked := *u
	q := masked.Query()

	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, constants.MaskedSecret)
		}
	}

	masked.RawQuery = q.Encode()

	return masked.String()
}
