package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/internal/cache"
	"github.com/papers-cli/papers/internal/constants"
)

func TestNewCacheCommand(t *testing.T) {
	t.Parallel()

	cmd := NewCacheCommand()
	assert.Equal(t, "cache", cmd.Use)
	assert.Len(t, cmd.Commands(), 3)

	for _, name := range []string{"sweep", "clear", "path"} {
		sub := findSubcommand(cmd, name)
		require.NotNil(t, sub, "subcommand %s should exist", name)
		assert.NotNil(t, sub.RunE)
	}
}

//nolint:paralleltest // Uses global viper state
func TestCacheCommands_Disabled(t *testing.T) {
	useTestConfig(t, map[string]interface{}{KeyNoCache: true})

	cmd := newCacheSweepCommand()
	cmd.SetContext(context.Background())

	require.ErrorIs(t, cmd.RunE(cmd, nil), constants.ErrCacheDisabled)
}

//nolint:paralleltest // Uses global viper state
func TestCacheCommands_SweepAndClear(t *testing.T) {
	dir := t.TempDir()
	out := useTestConfig(t, map[string]interface{}{KeyCacheDir: dir, KeyOutput: "json"})

	backend, err := cache.NewDiskBackend(dir)
	require.NoError(t, err)

	ctx := context.Background()
	stale := "aa" + "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a"
	fresh := "bb" + "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a"

	require.NoError(t, backend.Set(ctx, stale, &cache.Entry{Body: []byte("{}"), StoredAt: time.Now().Add(-48 * time.Hour), TTL: time.Hour}))
	require.NoError(t, backend.Set(ctx, fresh, &cache.Entry{Body: []byte("{}"), StoredAt: time.Now(), TTL: time.Hour}))

	sweep := newCacheSweepCommand()
	sweep.SetContext(ctx)
	require.NoError(t, sweep.RunE(sweep, nil))

	var result cacheResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "swept", result.Action)
	assert.Equal(t, 1, result.Removed)

	_, err = backend.Get(ctx, fresh)
	require.NoError(t, err)

	clearCmd := newCacheClearCommand()
	clearCmd.SetContext(ctx)
	require.NoError(t, clearCmd.RunE(clearCmd, nil))

	_, err = backend.Get(ctx, fresh)
	require.ErrorIs(t, err, cache.ErrMiss)
}

//nolint:paralleltest // Uses global viper state
func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	out := useTestConfig(t, map[string]interface{}{KeyCacheDir: dir, KeyCacheTTL: "2h", KeyOutput: "json"})

	backend, err := cache.NewDiskBackend(dir)
	require.NoError(t, err)

	key := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	require.NoError(t, backend.Set(context.Background(), key, &cache.Entry{Body: []byte("{}"), StoredAt: time.Now(), TTL: time.Hour}))

	cmd := newCachePathCommand()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.RunE(cmd, nil))

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "disk", info["type"])
	assert.Equal(t, dir, info["dir"])
	assert.Equal(t, "2h0m0s", info["ttl"])
	assert.Equal(t, "1", info["entries"])
	assert.NotEmpty(t, info["size"])
}

//nolint:paralleltest // Uses global viper state
func TestCachePathCommand_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	out := useTestConfig(t, map[string]interface{}{KeyCacheDir: dir, KeyOutput: "json"})

	cmd := newCachePathCommand()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.RunE(cmd, nil))

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "0", info["entries"])
	assert.NoDirExists(t, dir)
}
