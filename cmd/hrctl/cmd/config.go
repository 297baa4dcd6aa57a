package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configDirName = ".hrctl"

// Config is the persisted CLI configuration. Values resolve in order: flags,
// environment (including .env), config file, defaults.
type Config struct {
	ServerURL string `mapstructure:"server_url"`
	UserID    string `mapstructure:"user_id"`
	LogLevel  string `mapstructure:"log_level"`

	// ConfigDir holds the config file and the response cache database.
	ConfigDir string `mapstructure:"-"`
}

// CachePath is the response cache database location.
func (c *Config) CachePath() string {
	return filepath.Join(c.ConfigDir, "cache.db")
}

func (c *Config) configFile() string {
	return filepath.Join(c.ConfigDir, "config.yaml")
}

func loadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	viper.SetEnvPrefix("HRCTL")
	viper.AutomaticEnv()
	viper.SetDefault("server_url", "")
	viper.SetDefault("user_id", "")
	viper.SetDefault("log_level", "info")

	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{ConfigDir: configDir}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *Config) save() error {
	viper.Set("server_url", c.ServerURL)
	viper.Set("user_id", c.UserID)
	viper.Set("log_level", c.LogLevel)
	return viper.WriteConfigAs(c.configFile())
}

func init() {
	configCmd.AddCommand(configSetURLCmd, configSetUserCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and persist client settings",
}

var configSetURLCmd = &cobra.Command{
	Use:   "set-url <base-url>",
	Short: "Persist the backend base URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.TrimRight(strings.TrimSpace(args[0]), "/")
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid base URL %q", args[0])
		}
		cfg.ServerURL = raw
		if err := cfg.save(); err != nil {
			return fmt.Errorf("persist config: %w", err)
		}
		notifier.Success(fmt.Sprintf("Server set to %s", raw))
		return nil
	},
}

var configSetUserCmd = &cobra.Command{
	Use:   "set-user <user-id>",
	Short: "Persist the backend user for employee prefill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.UserID = strings.TrimSpace(args[0])
		if err := cfg.save(); err != nil {
			return fmt.Errorf("persist config: %w", err)
		}
		notifier.Success(fmt.Sprintf("User set to %s", cfg.UserID))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("server_url: %s\n", cfg.ServerURL)
		fmt.Printf("user_id:    %s\n", cfg.UserID)
		fmt.Printf("log_level:  %s\n", cfg.LogLevel)
		fmt.Printf("config dir: %s\n", cfg.ConfigDir)
		return nil
	},
}
