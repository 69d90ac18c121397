package papers

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/papers-cli/papers/internal/constants"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeDisk stores one file per response under a directory.
	CacheTypeDisk CacheType = "disk"

	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// DefaultCacheTTL is the lifetime of a cached response when none is configured.
const DefaultCacheTTL = constants.DefaultCacheTTL

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// Dir is the disk cache directory. Empty uses DefaultCacheDir.
	Dir string

	// TTL is the lifetime of a stored response.
	TTL time.Duration

	// Layered puts an in-memory cache in front of the configured backend.
	Layered bool

	// NATS KV cache configuration
	NATS *NATSCacheConfig
}

// NATSCacheConfig configures a JetStream key-value bucket as the cache backend.
type NATSCacheConfig struct {
	URL    string
	Bucket string
}

// DefaultCacheConfig returns a disk cache under the user cache directory.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeDisk,
		Dir:  DefaultCacheDir(),
		TTL:  DefaultCacheTTL,
	}
}

// DefaultCacheDir returns the papers directory under the OS user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	return filepath.Join(base, "papers")
}
