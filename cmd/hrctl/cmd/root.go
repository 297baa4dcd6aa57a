// Package cmd wires the hrctl command tree: configuration, record forms,
// record listing, check-in and announcement display against an HR document
// backend.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrkit/hrclient/pkg/cache"
	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/notify"
)

var (
	cfg      *Config
	log      *slog.Logger
	notifier notify.Notifier = notify.NewTerminal()

	flagServer string
	flagUser   string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "hrctl",
	Short: "HR record client for document-oriented backends",
	Long: `hrctl creates and inspects HR records (leave applications, expense
claims, attendance requests) against a document-oriented REST backend.
Forms are driven by server metadata, so new record types need no client
changes.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if flagServer != "" {
		cfg.ServerURL = strings.TrimRight(flagServer, "/")
	}
	if flagUser != "" {
		cfg.UserID = flagUser
	}

	level := slog.LevelInfo
	if flagDebug || strings.EqualFold(cfg.LogLevel, "debug") {
		level = slog.LevelDebug
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	return nil
}

// newGateway builds the remote gateway from the effective configuration.
func newGateway() (*gateway.Client, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("no server configured; run `hrctl config set-url <base-url>` first")
	}
	return gateway.New(gateway.Config{BaseURL: cfg.ServerURL, Logger: log})
}

// newCache opens the persistent response cache, falling back to memory when
// the database cannot be opened.
func newCache() *cache.Cache {
	store, err := cache.NewSQLiteStore(cfg.CachePath())
	if err != nil {
		log.Warn("hrctl: open cache database, using memory", "path", cfg.CachePath(), "error", err)
		return cache.New(cache.NewMemoryStore(), "hrctl", cache.WithLogger(log))
	}
	return cache.New(store, "hrctl", cache.WithLogger(log))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "backend user id for employee prefill")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}
