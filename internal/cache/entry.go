package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Static errors for err113 compliance.
var (
	// ErrMiss is returned by backends when a key has no stored entry.
	ErrMiss = errors.New("cache miss")

	ErrInvalidKey     = errors.New("invalid cache key")
	ErrCorruptEntry   = errors.New("corrupt cache entry")
	ErrEntryVersion   = errors.New("unsupported cache entry version")
	ErrNilEntry       = errors.New("nil cache entry")
	ErrNoDirectory    = errors.New("disk cache requires a directory")
	ErrNoNATSEndpoint = errors.New("NATS cache requires a URL")
)

// entryFormatVersion is bumped whenever the stored layout changes. Entries of
// another version read as misses.
const entryFormatVersion = 1

// Entry is one stored response body.
type Entry struct {
	Body     []byte
	StoredAt time.Time
	TTL      time.Duration
}

// ExpiresAt returns the instant the entry stops being served.
func (e *Entry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}

// Expired reports whether the entry is past its TTL at now. An entry is
// expired from the instant StoredAt+TTL onwards.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

type storedEntry struct {
	Version  int       `json:"v"`
	StoredAt time.Time `json:"stored_at"`
	TTL      int64     `json:"ttl_ns"`
	Body     []byte    `json:"body"`
}

// encodeEntry serializes an entry for backends that store opaque bytes.
func encodeEntry(entry *Entry) ([]byte, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	data, err := json.Marshal(storedEntry{
		Version:  entryFormatVersion,
		StoredAt: entry.StoredAt.UTC(),
		TTL:      int64(entry.TTL),
		Body:     entry.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry: %w", err)
	}

	return data, nil
}

// decodeEntry is the inverse of encodeEntry.
func decodeEntry(data []byte) (*Entry, error) {
	var stored storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	if stored.Version != entryFormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrEntryVersion, stored.Version)
	}

	return &Entry{
		Body:     stored.Body,
		StoredAt: stored.StoredAt,
		TTL:      time.Duration(stored.TTL),
	}, nil
}

// validKey accepts the lowercase hex fingerprints produced by the request
// pipeline, which keeps keys safe as file names and NATS subjects.
func validKey(key string) error {
	if len(key) < 3 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	return nil
}
