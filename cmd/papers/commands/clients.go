package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/observability"
	"github.com/papers-cli/papers/pkg/papers"
	"github.com/papers-cli/papers/pkg/papersclient"
)

// Configuration keys shared by the root flags, the config file and
// PAPERS_* environment variables.
const (
	KeyOutput         = "output"
	KeyVerbose        = "verbose"
	KeyNoCache        = "no_cache"
	KeyCacheTTL       = "cache.ttl"
	KeyCacheType      = "cache.type"
	KeyCacheDir       = "cache.dir"
	KeyCacheLayered   = "cache.layered"
	KeyNATSURL        = "cache.nats.url"
	KeyNATSBucket     = "cache.nats.bucket"
	KeyTimeout        = "timeout"
	KeyMaxAttempts    = "max_attempts"
	KeyOpenAlexKey    = "openalex.api_key"
	KeyOpenAlexEmail  = "openalex.email"
	KeyOpenAlexURL    = "openalex.base_url"
	KeyZoteroKey      = "zotero.api_key"
	KeyZoteroUserID   = "zotero.user_id"
	KeyZoteroGroupID  = "zotero.group_id"
	KeyZoteroURL      = "zotero.base_url"
	KeyLogFormat      = "log.format"
	KeyRequestLogging = "log.requests"
	KeyDataDir        = "data_dir"
)

// newLogger builds the stderr logger. --verbose selects debug level.
func newLogger() *observability.Logger {
	cfg := observability.DefaultLoggingConfig()

	if format := viper.GetString(KeyLogFormat); format != "" {
		cfg.Format = format
	}

	if viper.GetBool(KeyVerbose) {
		cfg.Level = "debug"
	}

	return observability.NewLoggerAdapter(observability.NewLogger(cfg))
}

// cacheConfig resolves the response cache settings. --no-cache wins.
func cacheConfig() *papers.CacheConfig {
	if viper.GetBool(KeyNoCache) {
		return &papers.CacheConfig{Type: papers.CacheTypeNone}
	}

	cfg := papers.DefaultCacheConfig()

	if t := viper.GetString(KeyCacheType); t != "" {
		cfg.Type = papers.CacheType(strings.ToLower(t))
	}

	if dir := viper.GetString(KeyCacheDir); dir != "" {
		cfg.Dir = dir
	}

	if ttl := viper.GetDuration(KeyCacheTTL); ttl > 0 {
		cfg.TTL = ttl
	}

	cfg.Layered = viper.GetBool(KeyCacheLayered)

	if cfg.Type == papers.CacheTypeNATS {
		cfg.NATS = &papers.NATSCacheConfig{
			URL:    viper.GetString(KeyNATSURL),
			Bucket: viper.GetString(KeyNATSBucket),
		}
	}

	return cfg
}

// baseConfig returns the settings common to both providers. Credentials are
// read here once and passed down explicitly.
func baseConfig(metrics prometheus.Registerer) *papers.Config {
	logger := newLogger()

	var timeout time.Duration
	if d := viper.GetDuration(KeyTimeout); d > 0 {
		timeout = d
	}

	return &papers.Config{
		Timeout:     timeout,
		MaxAttempts: viper.GetInt(KeyMaxAttempts),
		Logger:      logger,
		Debug:       viper.GetBool(KeyVerbose) || viper.GetBool(KeyRequestLogging),
		Cache:       cacheConfig(),
		Metrics:     metrics,
	}
}

func newOpenAlexClient(ctx context.Context, metrics prometheus.Registerer) (papersclient.OpenAlex, error) {
	config := baseConfig(metrics)
	config.BaseURL = viper.GetString(KeyOpenAlexURL)
	config.APIKey = viper.GetString(KeyOpenAlexKey)
	config.Email = viper.GetString(KeyOpenAlexEmail)

	client, err := papersclient.NewOpenAlex(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAlex client: %w", err)
	}

	return client, nil
}

// zoteroConfigured reports whether a Zotero library is configured.
func zoteroConfigured() bool {
	return viper.GetString(KeyZoteroUserID) != "" || viper.GetString(KeyZoteroGroupID) != ""
}

func newZoteroClient(ctx context.Context, metrics prometheus.Registerer) (papersclient.Zotero, error) {
	if !zoteroConfigured() {
		return nil, constants.ErrNoZoteroLibrary
	}

	config := baseConfig(metrics)
	config.BaseURL = viper.GetString(KeyZoteroURL)
	config.APIKey = viper.GetString(KeyZoteroKey)
	config.UserID = viper.GetString(KeyZoteroUserID)
	config.GroupID = viper.GetString(KeyZoteroGroupID)

	client, err := papersclient.NewZotero(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Zotero client: %w", err)
	}

	return client, nil
}
