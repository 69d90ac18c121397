package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/papers-cli/papers/internal/constants"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".papers"

// Config represents the CLI configuration file.
type Config struct {
	Output   string         `json:"output,omitempty"       yaml:"output,omitempty"`
	Timeout  string         `json:"timeout,omitempty"      yaml:"timeout,omitempty"`
	Attempts int            `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	DataDir  string         `json:"data_dir,omitempty"     yaml:"data_dir,omitempty"`
	OpenAlex OpenAlexConfig `json:"openalex"               yaml:"openalex"`
	Zotero   ZoteroConfig   `json:"zotero"                 yaml:"zotero"`
	Cache    CacheConfig    `json:"cache"                  yaml:"cache"`
}

// OpenAlexConfig holds the OpenAlex credentials.
type OpenAlexConfig struct {
	APIKey  string `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	Email   string `json:"email,omitempty"    yaml:"email,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ZoteroConfig selects the Zotero library and holds its key.
type ZoteroConfig struct {
	APIKey  string `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	UserID  string `json:"user_id,omitempty"  yaml:"user_id,omitempty"`
	GroupID string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// CacheConfig holds the response cache settings.
type CacheConfig struct {
	Type    string           `json:"type,omitempty"    yaml:"type,omitempty"`
	Dir     string           `json:"dir,omitempty"     yaml:"dir,omitempty"`
	TTL     string           `json:"ttl,omitempty"     yaml:"ttl,omitempty"`
	Layered bool             `json:"layered,omitempty" yaml:"layered,omitempty"`
	NATS    *NATSCacheConfig `json:"nats,omitempty"    yaml:"nats,omitempty"`
}

// NATSCacheConfig locates the NATS key-value bucket.
type NATSCacheConfig struct {
	URL    string `json:"url,omitempty"    yaml:"url,omitempty"`
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in $HOME/.papers/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from the config file, environment and flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if !showSecrets {
				config = maskSecrets(config)
			}

			return render(config, func(table *tablewriter.Table) error {
				table.Header("Key", "Value")

				for _, row := range configRows(config) {
					_ = table.Append(row[0], row[1])
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print API keys in clear text")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value and write it to the config file.

Keys: ` + strings.Join(settableKeys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			path, err := saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(stdout, "Set %s in %s\n", args[0], path)

			return nil
		},
	}
}

// loadConfig reads the effective configuration from viper.
func loadConfig() *Config {
	config := &Config{
		Output:   viper.GetString(KeyOutput),
		Timeout:  viper.GetString(KeyTimeout),
		Attempts: viper.GetInt(KeyMaxAttempts),
		DataDir:  viper.GetString(KeyDataDir),
		OpenAlex: OpenAlexConfig{
			APIKey:  viper.GetString(KeyOpenAlexKey),
			Email:   viper.GetString(KeyOpenAlexEmail),
			BaseURL: viper.GetString(KeyOpenAlexURL),
		},
		Zotero: ZoteroConfig{
			APIKey:  viper.GetString(KeyZoteroKey),
			UserID:  viper.GetString(KeyZoteroUserID),
			GroupID: viper.GetString(KeyZoteroGroupID),
			BaseURL: viper.GetString(KeyZoteroURL),
		},
		Cache: CacheConfig{
			Type:    viper.GetString(KeyCacheType),
			Dir:     viper.GetString(KeyCacheDir),
			TTL:     viper.GetString(KeyCacheTTL),
			Layered: viper.GetBool(KeyCacheLayered),
		},
	}

	if url, bucket := viper.GetString(KeyNATSURL), viper.GetString(KeyNATSBucket); url != "" || bucket != "" {
		config.Cache.NATS = &NATSCacheConfig{URL: url, Bucket: bucket}
	}

	return config
}

// configSetters maps each settable key to a parser writing it into Config.
var configSetters = map[string]func(*Config, string) error{
	KeyOutput: func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = v

			return nil
		default:
			return fmt.Errorf("%w: %q", constants.ErrInvalidOutput, v)
		}
	},
	KeyTimeout: func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", v, err)
		}

		c.Timeout = v

		return nil
	},
	KeyMaxAttempts: func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid max_attempts %q: must be a positive integer", v)
		}

		c.Attempts = n

		return nil
	},
	KeyDataDir:       func(c *Config, v string) error { c.DataDir = v; return nil },
	KeyOpenAlexKey:   func(c *Config, v string) error { c.OpenAlex.APIKey = v; return nil },
	KeyOpenAlexEmail: func(c *Config, v string) error { c.OpenAlex.Email = v; return nil },
	KeyOpenAlexURL:   func(c *Config, v string) error { c.OpenAlex.BaseURL = v; return nil },
	KeyZoteroKey:     func(c *Config, v string) error { c.Zotero.APIKey = v; return nil },
	KeyZoteroUserID:  func(c *Config, v string) error { c.Zotero.UserID = v; return nil },
	KeyZoteroGroupID: func(c *Config, v string) error { c.Zotero.GroupID = v; return nil },
	KeyZoteroURL:     func(c *Config, v string) error { c.Zotero.BaseURL = v; return nil },
	KeyCacheType:     func(c *Config, v string) error { c.Cache.Type = strings.ToLower(v); return nil },
	KeyCacheDir:      func(c *Config, v string) error { c.Cache.Dir = v; return nil },
	KeyCacheTTL: func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid cache ttl %q: %w", v, err)
		}

		c.Cache.TTL = v

		return nil
	},
	KeyCacheLayered: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid cache.layered %q: %w", v, err)
		}

		c.Cache.Layered = b

		return nil
	},
	KeyNATSURL: func(c *Config, v string) error {
		if c.Cache.NATS == nil {
			c.Cache.NATS = &NATSCacheConfig{}
		}

		c.Cache.NATS.URL = v

		return nil
	},
	KeyNATSBucket: func(c *Config, v string) error {
		if c.Cache.NATS == nil {
			c.Cache.NATS = &NATSCacheConfig{}
		}

		c.Cache.NATS.Bucket = v

		return nil
	},
}

func settableKeys() []string {
	return sortedKeys(configSetters)
}

// setConfigValue validates and applies one key.
func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return setter(config, value)
}

// configFilePath returns the config file in use, or the default location.
func configFilePath() (string, error) {
	if path := viper.ConfigFileUsed(); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

// saveConfig writes config as YAML and returns the file written.
func saveConfig(config *Config) (string, error) {
	path, err := configFilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

func maskSecrets(config *Config) *Config {
	masked := *config

	if masked.OpenAlex.APIKey != "" {
		masked.OpenAlex.APIKey = constants.MaskedSecret
	}

	if masked.Zotero.APIKey != "" {
		masked.Zotero.APIKey = constants.MaskedSecret
	}

	return &masked
}

func configRows(config *Config) [][2]string {
	rows := [][2]string{
		{KeyOutput, config.Output},
		{KeyTimeout, config.Timeout},
		{KeyMaxAttempts, strconv.Itoa(config.Attempts)},
		{KeyDataDir, config.DataDir},
		{KeyOpenAlexKey, config.OpenAlex.APIKey},
		{KeyOpenAlexEmail, config.OpenAlex.Email},
		{KeyOpenAlexURL, config.OpenAlex.BaseURL},
		{KeyZoteroKey, config.Zotero.APIKey},
		{KeyZoteroUserID, config.Zotero.UserID},
		{KeyZoteroGroupID, config.Zotero.GroupID},
		{KeyZoteroURL, config.Zotero.BaseURL},
		{KeyCacheType, config.Cache.Type},
		{KeyCacheDir, config.Cache.Dir},
		{KeyCacheTTL, config.Cache.TTL},
		{KeyCacheLayered, strconv.FormatBool(config.Cache.Layered)},
	}

	if config.Cache.NATS != nil {
		rows = append(rows, [2]string{KeyNATSURL, config.Cache.NATS.URL}, [2]string{KeyNATSBucket, config.Cache.NATS.Bucket})
	}

	for i := range rows {
		if rows[i][1] == "" {
			rows[i][1] = constants.NotAvailable
		}
	}

	return rows
}
