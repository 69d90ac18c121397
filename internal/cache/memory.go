package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	entries sync.Map
}

// NewMemoryBackend returns an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Get returns a copy of the stored entry.
func (m *MemoryBackend) Get(_ context.Context, key string) (*Entry, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return nil, ErrMiss
	}

	return cloneEntry(v.(*Entry)), nil
}

// Set stores a copy of entry.
func (m *MemoryBackend) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}

	m.entries.Store(key, cloneEntry(entry))

	return nil
}

// Delete removes the entry for key.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)

	return nil
}

// Clear removes every entry.
func (m *MemoryBackend) Clear(context.Context) error {
	m.entries.Clear()

	return nil
}

// Sweep removes entries expired at now.
func (m *MemoryBackend) Sweep(_ context.Context, now time.Time) (int, error) {
	removed := 0

	m.entries.Range(func(key, value any) bool {
		if value.(*Entry).Expired(now) {
			m.entries.Delete(key)
			removed++
		}

		return true
	})

	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	n := 0

	m.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

func cloneEntry(e *Entry) *Entry {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)

	return &Entry{Body: body, StoredAt: e.StoredAt, TTL: e.TTL}
}
