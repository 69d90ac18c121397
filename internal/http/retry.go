package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// maxMessageLength bounds provider messages copied into errors.
const maxMessageLength = 512

// RetryPolicy bounds the retry loop.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. Values below one mean one.
	MaxAttempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
}

// DefaultRetryPolicy returns three attempts with one to thirty second delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.DefaultMaxAttempts,
		BaseDelay:   constants.DefaultRetryWaitMin,
		MaxDelay:    constants.DefaultRetryWaitMax,
		Jitter:      constants.DefaultRetryJitter,
	}
}

// Retryer drives a Doer through the retry loop and classifies the outcome.
// It implements Doer itself; every error it returns is a *papers.Error or the
// caller's context error.
type Retryer struct {
	next     Doer
	policy   RetryPolicy
	backoff  *Backoff
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   papers.Logger
	observer Observer
}

// RetryOption configures a Retryer.
type RetryOption func(*Retryer)

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retryer) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithRetryClock sets the clock used to resolve HTTP-date retry hints.
func WithRetryClock(now func() time.Time) RetryOption {
	return func(r *Retryer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRetryLogger logs each retry at info level.
func WithRetryLogger(logger papers.Logger) RetryOption {
	return func(r *Retryer) {
		r.logger = logger
	}
}

// WithRetryObserver reports each retry.
func WithRetryObserver(observer Observer) RetryOption {
	return func(r *Retryer) {
		r.observer = observer
	}
}

// NewRetryer wraps next with policy.
func NewRetryer(next Doer, policy RetryPolicy, opts ...RetryOption) *Retryer {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	r := &Retryer{
		next:    next,
		policy:  policy,
		backoff: NewBackoff(policy.BaseDelay, policy.MaxDelay, policy.Jitter),
		sleep:   sleepContext,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do runs req until it succeeds, fails permanently, or attempts run out. The
// last classified error is returned on exhaustion.
func (r *Retryer) Do(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.next.Do(ctx, req)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		classified := Classify(resp, err, r.now())
		if classified == nil {
			return resp, nil
		}

		lastErr = classified

		if !papers.IsRetryable(classified) || attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.delay(classified, attempt)

		if r.observer != nil {
			r.observer.ObserveRetry(papers.KindOf(classified))
		}

		if r.logger != nil {
			r.logger.Info("Retrying request", map[string]interface{}{
				"method":  req.Method(),
				"path":    req.Path(),
				"attempt": attempt,
				"delay":   delay.String(),
				"reason":  string(papers.KindOf(classified)),
			})
		}

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// delay prefers the provider hint, capped at the policy maximum.
func (r *Retryer) delay(err error, attempt int) time.Duration {
	var apiErr *papers.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		if r.policy.MaxDelay > 0 && apiErr.RetryAfter > r.policy.MaxDelay {
			return r.policy.MaxDelay
		}

		return apiErr.RetryAfter
	}

	return r.backoff.ForAttempt(attempt - 1)
}

// Classify maps the outcome of one attempt onto the error taxonomy. It
// returns nil for a 2xx response.
func Classify(resp *Response, err error, now time.Time) error {
	if err != nil {
		var apiErr *papers.Error
		if errors.As(err, &apiErr) {
			return apiErr
		}

		return &papers.Error{Kind: papers.KindNetwork, Message: "request failed", Err: err}
	}

	if resp == nil {
		return &papers.Error{Kind: papers.KindNetwork, Message: "no response"}
	}

	status := resp.StatusCode

	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusTooManyRequests:
		return &papers.Error{
			Kind:       papers.KindRateLimited,
			Status:     status,
			Message:    providerMessage(resp.Body),
			RetryAfter: retryHint(resp.Headers, now),
		}
	case status >= http.StatusInternalServerError:
		return &papers.Error{
			Kind:       papers.KindServerError,
			Status:     status,
			Message:    providerMessage(resp.Body),
			RetryAfter: retryHint(resp.Headers, now),
		}
	default:
		return &papers.Error{
			Kind:    papers.KindClientError,
			Status:  status,
			Message: providerMessage(resp.Body),
		}
	}
}

// retryHint reads Retry-After as seconds or an HTTP date, then Zotero's
// Backoff header in seconds.
func retryHint(h http.Header, now time.Time) time.Duration {
	if h == nil {
		return 0
	}

	if d := parseRetryAfter(h.Get(HeaderRetryAfter), now); d > 0 {
		return d
	}

	return parseRetryAfter(h.Get(HeaderBackoff), now)
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}

		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}

	return 0
}

// providerMessage extracts a readable message from an error body. OpenAlex
// returns {"error": ..., "message": ...}; Zotero returns plain text.
func providerMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "" && payload.Message != "":
			return truncate(payload.Error + ": " + payload.Message)
		case payload.Message != "":
			return truncate(payload.Message)
		case payload.Error != "":
			return truncate(payload.Error)
		}
	}

	return truncate(trimmed)
}

func truncate(s string) string {
	if len(s) <= maxMessageLength {
		return s
	}

	return s[:maxMessageLength] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
