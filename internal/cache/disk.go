package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papers-cli/papers/internal/constants"
)

// DiskBackend stores one file per key under a directory. Writes go to a
// temporary file in the destination directory which is then renamed over the
// final path, so a reader sees either the previous or the new entry.
type DiskBackend struct {
	dir string
}

// NewDiskBackend creates the directory if needed and returns a backend rooted there.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}

	if err := os.MkdirAll(dir, constants.CacheDirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &DiskBackend{dir: dir}, nil
}

// Dir returns the cache directory.
func (d *DiskBackend) Dir() string {
	return d.dir
}

// path shards entries by the first two hex characters of the key.
func (d *DiskBackend) path(key string) string {
	return filepath.Join(d.dir, key[:2], key+constants.CacheFileSuffix)
}

// Get reads and decodes the entry for key.
func (d *DiskBackend) Get(ctx context.Context, key string) (*Entry, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	return decodeEntry(data)
}

// Set writes the entry atomically.
func (d *DiskBackend) Set(ctx context.Context, key string, entry *Entry) error {
	if err := validKey(key); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	final := d.path(key)
	shard := filepath.Dir(final)

	if err := os.MkdirAll(shard, constants.CacheDirPerm); err != nil {
		return fmt.Errorf("creating cache shard: %w", err)
	}

	tmp, err := os.CreateTemp(shard, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing temp cache file: %w", err)
	}

	if err := tmp.Chmod(constants.CacheFilePerm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("setting cache file permissions: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("committing cache entry: %w", err)
	}

	return nil
}

// Delete removes the entry for key. A missing entry is not an error.
func (d *DiskBackend) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	err := os.Remove(d.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}

	return nil
}

// Clear removes every entry, leaving the directory in place.
func (d *DiskBackend) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := os.RemoveAll(filepath.Join(d.dir, e.Name())); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}

	return nil
}

// Sweep removes entries that are expired at now or can no longer be decoded,
// along with temp files abandoned by interrupted writes.
func (d *DiskBackend) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0

	err := filepath.WalkDir(d.dir, func(path string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if de.IsDir() {
			return nil
		}

		name := de.Name()

		if strings.Contains(name, ".tmp-") {
			info, err := de.Info()
			if err == nil && now.Sub(info.ModTime()) > time.Hour {
				if os.Remove(path) == nil {
					removed++
				}
			}

			return nil
		}

		if !strings.HasSuffix(name, constants.CacheFileSuffix) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		entry, err := decodeEntry(data)
		if err != nil || entry.Expired(now) {
			if os.Remove(path) == nil {
				removed++
			}
		}

		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping cache: %w", err)
	}

	return removed, nil
}

// Usage reports the number of entries and their total size in bytes.
func (d *DiskBackend) Usage(ctx context.Context) (int, int64, error) {
	var (
		entries int
		size    int64
	)

	err := filepath.WalkDir(d.dir, func(path string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if de.IsDir() || !strings.HasSuffix(de.Name(), constants.CacheFileSuffix) {
			return nil
		}

		info, err := de.Info()
		if err != nil {
			return nil
		}

		entries++
		size += info.Size()

		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("measuring cache: %w", err)
	}

	return entries, size, nil
}
