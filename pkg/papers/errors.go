package papers

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failure returned by the OpenAlex and Zotero clients.
type ErrorKind string

const (
	// KindInvalidParams marks a request rejected before any network I/O.
	KindInvalidParams ErrorKind = "invalid_params"

	// KindNetwork marks a connection failure or timeout.
	KindNetwork ErrorKind = "network"

	// KindRateLimited marks a 429 response.
	KindRateLimited ErrorKind = "rate_limited"

	// KindClientError marks a 4xx response other than 429.
	KindClientError ErrorKind = "client_error"

	// KindServerError marks a 5xx response.
	KindServerError ErrorKind = "server_error"

	// KindDecode marks a 2xx response whose body did not match the expected shape.
	KindDecode ErrorKind = "decode"

	// KindCache marks a local cache I/O failure. Never returned to callers.
	KindCache ErrorKind = "cache"

	// KindUnsupported marks an operation the endpoint does not offer.
	KindUnsupported ErrorKind = "unsupported"

	// KindProtocolViolation marks a provider response that breaks the pagination contract.
	KindProtocolViolation ErrorKind = "protocol_violation"
)

// Error is the single error type produced by the request pipeline.
type Error struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Status is the HTTP status for RateLimited, ClientError and ServerError.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// Message is the provider supplied message, or a description of the local failure.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// RetryAfter is the provider hint attached to RateLimited errors, zero when absent.
	RetryAfter time.Duration `json:"retry_after,omitempty" yaml:"retry_after,omitempty"`

	// Err is the underlying cause, if any.
	Err error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with a
// non-zero Status also has to match the status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.Status == 0 || t.Status == e.Status
}

// Sentinel values for errors.Is comparisons by kind.
var (
	ErrInvalidParams     = &Error{Kind: KindInvalidParams}
	ErrNetwork           = &Error{Kind: KindNetwork}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrClientError       = &Error{Kind: KindClientError}
	ErrServerError       = &Error{Kind: KindServerError}
	ErrDecode            = &Error{Kind: KindDecode}
	ErrCache             = &Error{Kind: KindCache}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrProtocolViolation = &Error{Kind: KindProtocolViolation}
	ErrNotFound          = &Error{Kind: KindClientError, Status: http.StatusNotFound}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrUserIDRequired  = errors.New("zotero user or group ID is required")
	ErrAPIKeyRequired  = errors.New("API key is required")
	ErrInvalidBaseURL  = errors.New("invalid base URL")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

// NewInvalidParams returns an InvalidParams error with a formatted message.
func NewInvalidParams(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupported returns an Unsupported error naming the operation and endpoint.
func NewUnsupported(operation, endpoint string) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf("%s is not supported for %s", operation, endpoint)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsNotFound checks if the error is a 404 from the provider.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the error kind is one the retry loop retries.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}
