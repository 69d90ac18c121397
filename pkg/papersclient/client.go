package papersclient

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/papers-cli/papers/internal/openalex"
	"github.com/papers-cli/papers/internal/zotero"
	"github.com/papers-cli/papers/pkg/papers"
)

// OpenAlex is an OpenAlex client that owns a cache and must be closed.
type OpenAlex interface {
	papers.OpenAlexClient
	io.Closer
}

// Zotero is a Zotero client that owns a cache and must be closed.
type Zotero interface {
	papers.ZoteroClient
	io.Closer
}

// NewOpenAlex creates an OpenAlex client.
func NewOpenAlex(ctx context.Context, config *papers.Config) (OpenAlex, error) {
	if config == nil {
		return nil, papers.ErrConfigRequired
	}

	prepare(config)

	c, err := openalex.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAlex client: %w", err)
	}

	return c, nil
}

// NewOpenAlexWithEmail creates an OpenAlex client in the polite pool.
func NewOpenAlexWithEmail(ctx context.Context, email string) (OpenAlex, error) {
	return NewOpenAlex(ctx, &papers.Config{Email: email})
}

// NewZotero creates a client for the user or group library named in config.
func NewZotero(ctx context.Context, config *papers.Config) (Zotero, error) {
	if config == nil {
		return nil, papers.ErrConfigRequired
	}

	prepare(config)

	c, err := zotero.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating Zotero client: %w", err)
	}

	return c, nil
}

// NewZoteroWithKey creates a client for a user library.
func NewZoteroWithKey(ctx context.Context, userID, apiKey string) (Zotero, error) {
	return NewZotero(ctx, &papers.Config{UserID: userID, APIKey: apiKey})
}

// prepare normalizes the base URL and enables the default disk cache when
// no cache is configured.
func prepare(config *papers.Config) {
	config.BaseURL = normalizeBaseURL(config.BaseURL)

	if config.Cache == nil {
		config.Cache = papers.DefaultCacheConfig()
	}
}

// normalizeBaseURL trims a trailing slash and defaults the scheme to https.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}
