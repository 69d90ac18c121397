package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papers-cli/papers/cmd/papers/commands"
	"github.com/papers-cli/papers/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "papers",
	Short: "OpenAlex and Zotero from the command line",
	Long: `A command-line interface for the OpenAlex scholarly graph and Zotero libraries.

Search and page through works, authors, sources, institutions and the other
OpenAlex collections, browse a Zotero library, and serve both as MCP tools.
Responses are cached on disk; use --no-cache to bypass the cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.papers/config.yml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (table, json, yaml; default table on a terminal, json otherwise)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output, logs every request")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the response cache")
	rootCmd.PersistentFlags().Duration("cache-ttl", constants.DefaultCacheTTL, "lifetime of cached responses")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag(commands.KeyOutput, rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag(commands.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag(commands.KeyNoCache, rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag(commands.KeyCacheTTL, rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewEntityCommands()...)
	rootCmd.AddCommand(commands.NewZoteroCommand())
	rootCmd.AddCommand(commands.NewSelectionCommand())
	rootCmd.AddCommand(commands.NewCacheCommand())
	rootCmd.AddCommand(commands.NewMCPCommand(version))
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.papers/config.yml
		viper.AddConfigPath(filepath.Join(home, commands.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// PAPERS_OPENALEX_API_KEY sets openalex.api_key
	viper.SetEnvPrefix("PAPERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool(commands.KeyVerbose) {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
