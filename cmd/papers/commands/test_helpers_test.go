package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// useTestConfig resets viper to settings and captures command output. Tests
// calling it share global state and must not run in parallel.
func useTestConfig(t *testing.T, settings map[string]interface{}) *bytes.Buffer {
	t.Helper()

	viper.Reset()

	for k, v := range settings {
		viper.Set(k, v)
	}

	buf := &bytes.Buffer{}
	previous := stdout
	stdout = buf

	t.Cleanup(func() {
		stdout = previous

		viper.Reset()
	})

	return buf
}
