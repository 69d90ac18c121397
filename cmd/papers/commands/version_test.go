package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // Uses global viper state
func TestNewVersionCommand(t *testing.T) {
	out := useTestConfig(t, map[string]interface{}{KeyOutput: "json"})

	cmd := NewVersionCommand("1.0.0", "abc123", "2026-01-01")
	assert.Equal(t, "version", cmd.Use)
	assert.Equal(t, "Display version information", cmd.Short)

	require.NoError(t, cmd.RunE(cmd, nil))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}
