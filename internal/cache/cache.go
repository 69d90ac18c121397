// Package cache stores raw response bodies under content-addressed keys with a
// time-to-live. Backends only persist entries; expiry is decided by Store.
package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// Backend persists entries. Get returns ErrMiss for absent keys. Set replaces
// any previous entry for the key wholesale.
type Backend interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Sweeper is implemented by backends that can remove expired entries eagerly.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// NoOpBackend is a backend that does nothing (no caching).
type NoOpBackend struct{}

// NewNoOpBackend creates a new no-op backend.
func NewNoOpBackend() *NoOpBackend {
	return &NoOpBackend{}
}

// Get always misses.
func (NoOpBackend) Get(context.Context, string) (*Entry, error) {
	return nil, ErrMiss
}

// Set does nothing.
func (NoOpBackend) Set(context.Context, string, *Entry) error {
	return nil
}

// Delete does nothing.
func (NoOpBackend) Delete(context.Context, string) error {
	return nil
}

// Clear does nothing.
func (NoOpBackend) Clear(context.Context) error {
	return nil
}

// Chain implements a chain of cache backends (L1, L2, etc.)
type Chain struct {
	backends []Backend
}

// NewChain creates a new backend chain, fastest first.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Get returns the first hit and copies it into the faster backends in front of it.
func (c *Chain) Get(ctx context.Context, key string) (*Entry, error) {
	var firstErr error

	for i, backend := range c.backends {
		entry, err := backend.Get(ctx, key)
		if err == nil {
			for j := range i {
				_ = c.backends[j].Set(ctx, key, entry)
			}

			return entry, nil
		}

		if !errors.Is(err, ErrMiss) && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return nil, ErrMiss
}

// Set stores an entry in every backend and returns the last failure.
func (c *Chain) Set(ctx context.Context, key string, entry *Entry) error {
	var lastErr error

	for _, backend := range c.backends {
		if err := backend.Set(ctx, key, entry); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Delete removes an entry from every backend.
func (c *Chain) Delete(ctx context.Context, key string) error {
	var lastErr error

	for _, backend := range c.backends {
		if err := backend.Delete(ctx, key); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Clear removes every entry from every backend.
func (c *Chain) Clear(ctx context.Context) error {
	var lastErr error

	for _, backend := range c.backends {
		if err := backend.Clear(ctx); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Sweep sweeps every backend that supports it and returns the total removed.
func (c *Chain) Sweep(ctx context.Context, now time.Time) (int, error) {
	var (
		total   int
		lastErr error
	)

	for _, backend := range c.backends {
		sweeper, ok := backend.(Sweeper)
		if !ok {
			continue
		}

		n, err := sweeper.Sweep(ctx, now)
		total += n

		if err != nil {
			lastErr = err
		}
	}

	return total, lastErr
}

// Close closes every backend that holds resources.
func (c *Chain) Close() error {
	var lastErr error

	for _, backend := range c.backends {
		if closer, ok := backend.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				lastErr = err
			}
		}
	}

	return lastErr
}
