//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/pkg/papers"
	"github.com/papers-cli/papers/pkg/papersclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Email        string
	OpenAlexKey  string
	ZoteroUserID string
	ZoteroKey    string
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Email:        os.Getenv("PAPERS_OPENALEX_EMAIL"),
		OpenAlexKey:  os.Getenv("PAPERS_OPENALEX_API_KEY"),
		ZoteroUserID: os.Getenv("PAPERS_ZOTERO_USER_ID"),
		ZoteroKey:    os.Getenv("PAPERS_ZOTERO_API_KEY"),
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	return ctx
}

func newOpenAlex(t *testing.T, cfg *TestConfig, cache *papers.CacheConfig) papersclient.OpenAlex {
	t.Helper()

	client, err := papersclient.NewOpenAlex(testContext(t), &papers.Config{
		Email:  cfg.Email,
		APIKey: cfg.OpenAlexKey,
		Cache:  cache,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func noCache() *papers.CacheConfig {
	return &papers.CacheConfig{Type: papers.CacheTypeNone}
}
