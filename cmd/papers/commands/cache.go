package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long:  "Inspect, sweep and clear the local response cache",
	}

	cmd.AddCommand(newCacheSweepCommand())
	cmd.AddCommand(newCacheClearCommand())
	cmd.AddCommand(newCachePathCommand())

	return cmd
}

// openCache opens the configured cache store.
func openCache(ctx context.Context) (*cache.Store, error) {
	cfg := cacheConfig()
	if cfg.Type == papers.CacheTypeNone {
		return nil, constants.ErrCacheDisabled
	}

	store, err := cache.NewStoreFromConfig(ctx, cfg, cache.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return store, nil
}

type cacheResult struct {
	Action  string `json:"action"            yaml:"action"`
	Removed int    `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func newCacheSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired entries",
		Long:  "Delete every cache entry whose time-to-live has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openCache(ctx)
			if err != nil {
				return err
			}

			defer func() { _ = store.Close() }()

			removed, err := store.Sweep(ctx)
			if err != nil {
				return fmt.Errorf("sweeping cache: %w", err)
			}

			result := cacheResult{Action: "swept", Removed: removed}

			return render(result, func(table *tablewriter.Table) error {
				table.Header("Action", "Removed")
				_ = table.Append(result.Action, fmt.Sprint(removed))

				return nil
			})
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry",
		Long:  "Delete the whole response cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openCache(ctx)
			if err != nil {
				return err
			}

			defer func() { _ = store.Close() }()

			if err := store.Clear(ctx); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			result := cacheResult{Action: "cleared"}

			return render(result, func(table *tablewriter.Table) error {
				table.Header("Action")
				_ = table.Append(result.Action)

				return nil
			})
		},
	}
}

func newCachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Long:  "Print the cache backend and, for the disk cache, its directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cacheConfig()

			info := map[string]string{"type": string(cfg.Type), "ttl": cfg.TTL.String()}

			switch cfg.Type {
			case papers.CacheTypeDisk:
				info["dir"] = cfg.Dir

				if err := addDiskUsage(cmd.Context(), cfg.Dir, info); err != nil {
					return err
				}
			case papers.CacheTypeNATS:
				if cfg.NATS != nil {
					info["url"] = cfg.NATS.URL
					info["bucket"] = cfg.NATS.Bucket
				}
			}

			return render(info, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				for _, key := range sortedKeys(info) {
					_ = table.Append(key, info[key])
				}

				return nil
			})
		},
	}
}

// addDiskUsage adds the entry count and size of an existing disk cache.
func addDiskUsage(ctx context.Context, dir string, info map[string]string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		info["entries"] = "0"

		return nil
	}

	disk, err := cache.NewDiskBackend(dir)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	entries, size, err := disk.Usage(ctx)
	if err != nil {
		return err
	}

	info["entries"] = strconv.Itoa(entries)
	info["size"] = humanize.Bytes(uint64(size)) //nolint:gosec // Sizes are never negative

	return nil
}
