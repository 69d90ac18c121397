package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// kvBucket is the subset of a JetStream key-value bucket the NATS backend uses.
type kvBucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Purge(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// NATSBackend stores entries in a JetStream key-value bucket, so several
// machines can share one cache.
type NATSBackend struct {
	bucket kvBucket
	conn   *nats.Conn
}

// NATSOptions configures NewNATSBackend.
type NATSOptions struct {
	URL    string
	Bucket string

	// MaxAge bounds how long the bucket keeps any value. Entry TTLs still
	// decide expiry; this only reclaims storage.
	MaxAge time.Duration
}

// NewNATSBackend connects to NATS and creates or binds the bucket.
func NewNATSBackend(ctx context.Context, opts NATSOptions) (*NATSBackend, error) {
	if opts.URL == "" {
		return nil, ErrNoNATSEndpoint
	}

	conn, err := nats.Connect(opts.URL, nats.Name("papers-cache"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      opts.Bucket,
		Description: "papers response cache",
		TTL:         opts.MaxAge,
		History:     1,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding key-value bucket %q: %w", opts.Bucket, err)
	}

	return &NATSBackend{bucket: jetStreamBucket{kv: kv}, conn: conn}, nil
}

func newNATSBackendWithBucket(bucket kvBucket) *NATSBackend {
	return &NATSBackend{bucket: bucket}
}

// Get reads and decodes the entry for key.
func (n *NATSBackend) Get(ctx context.Context, key string) (*Entry, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	data, err := n.bucket.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return decodeEntry(data)
}

// Set stores the entry, replacing any previous revision.
func (n *NATSBackend) Set(ctx context.Context, key string, entry *Entry) error {
	if err := validKey(key); err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if err := n.bucket.Put(ctx, key, data); err != nil {
		return fmt.Errorf("storing NATS cache entry: %w", err)
	}

	return nil
}

// Delete purges the entry for key.
func (n *NATSBackend) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	return n.bucket.Purge(ctx, key)
}

// Clear purges every key in the bucket.
func (n *NATSBackend) Clear(ctx context.Context) error {
	keys, err := n.bucket.Keys(ctx)
	if err != nil {
		return fmt.Errorf("listing NATS cache keys: %w", err)
	}

	for _, key := range keys {
		if err := n.bucket.Purge(ctx, key); err != nil {
			return fmt.Errorf("purging NATS cache key: %w", err)
		}
	}

	return nil
}

// Sweep purges entries expired at now.
func (n *NATSBackend) Sweep(ctx context.Context, now time.Time) (int, error) {
	keys, err := n.bucket.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing NATS cache keys: %w", err)
	}

	removed := 0

	for _, key := range keys {
		entry, err := n.Get(ctx, key)
		if errors.Is(err, ErrMiss) {
			continue
		}

		if err == nil && !entry.Expired(now) {
			continue
		}

		if err := n.bucket.Purge(ctx, key); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Close drains the NATS connection if the backend owns one.
func (n *NATSBackend) Close() error {
	if n.conn == nil {
		return nil
	}

	return n.conn.Drain()
}

// jetStreamBucket adapts jetstream.KeyValue to kvBucket.
type jetStreamBucket struct {
	kv jetstream.KeyValue
}

func (b jetStreamBucket) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading NATS cache entry: %w", err)
	}

	return entry.Value(), nil
}

func (b jetStreamBucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.kv.Put(ctx, key, value)

	return err
}

func (b jetStreamBucket) Purge(ctx context.Context, key string) error {
	err := b.kv.Purge(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}

	return err
}

func (b jetStreamBucket) Keys(ctx context.Context) ([]string, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	return keys, nil
}
