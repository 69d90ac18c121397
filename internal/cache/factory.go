package cache

import (
	"context"
	"fmt"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// NewBackendFromConfig creates a backend from configuration. A nil config or
// CacheTypeNone returns a nil backend, meaning caching is off.
func NewBackendFromConfig(ctx context.Context, config *papers.CacheConfig) (Backend, error) {
	if config == nil {
		return nil, nil //nolint:nilnil // no cache configured
	}

	var (
		backend Backend
		err     error
	)

	switch config.Type {
	case papers.CacheTypeDisk, "":
		dir := config.Dir
		if dir == "" {
			dir = papers.DefaultCacheDir()
		}

		backend, err = NewDiskBackend(dir)

	case papers.CacheTypeMemory:
		return NewMemoryBackend(), nil

	case papers.CacheTypeNATS:
		if config.NATS == nil {
			return nil, papers.ErrNATSConfigRequired
		}

		bucket := config.NATS.Bucket
		if bucket == "" {
			bucket = constants.DefaultNATSBucket
		}

		backend, err = NewNATSBackend(ctx, NATSOptions{URL: config.NATS.URL, Bucket: bucket})

	case papers.CacheTypeNone:
		return nil, nil //nolint:nilnil // caching disabled

	default:
		return nil, fmt.Errorf("%w: %s", papers.ErrUnsupportedCacheType, config.Type)
	}

	if err != nil {
		return nil, err
	}

	if config.Layered {
		return NewChain(NewMemoryBackend(), backend), nil
	}

	return backend, nil
}

// NewStoreFromConfig builds a Store for config, or returns nil when caching is off.
func NewStoreFromConfig(ctx context.Context, config *papers.CacheConfig, opts ...StoreOption) (*Store, error) {
	backend, err := NewBackendFromConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if backend == nil {
		return nil, nil //nolint:nilnil // caching disabled
	}

	return NewStore(backend, config.TTL, opts...), nil
}
