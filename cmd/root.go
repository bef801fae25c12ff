// Package cmd wires the catsieve commands: parse, solve, snapshot and
// refresh. Configuration comes from an HCL file; --snapshot switches any
// command from the live wiki to a local SQLite capture.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentic-research/catsieve/internal/config"
	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/agentic-research/catsieve/internal/provider/mediawiki"
	"github.com/agentic-research/catsieve/internal/provider/snapshot"
)

var (
	configPath   string
	snapshotPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to HCL config")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "Query a local SQLite snapshot instead of the live wiki")
}

var rootCmd = &cobra.Command{
	Use:           "catsieve",
	Short:         "Catsieve: set-combination queries over wiki category graphs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// defaultDir is where config and refresher state live unless overridden.
func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".agentic-research", "catsieve"), nil
}

func configFilePath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catsieve.hcl"), nil
}

func loadConfig() (*config.Config, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// loadConfigOptional returns nil without error when no config file
// exists. Snapshot-backed commands work without one; a config that is
// present but malformed still fails.
func loadConfigOptional() (*config.Config, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return config.Load(path)
}

// newProvider returns the provider the command should query: the
// snapshot named on the command line, or the configured live wiki. The
// cleanup func is non-nil only for providers that hold resources.
func newProvider(cfg *config.Config) (provider.Provider, func(), error) {
	if snapshotPath != "" {
		store, err := snapshot.Open(snapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	opts := []mediawiki.Option{}
	if cfg.Wiki.RateLimit != nil {
		opts = append(opts, mediawiki.WithRateLimit(*cfg.Wiki.RateLimit))
	}
	if cfg.Wiki.UserAgent != nil {
		opts = append(opts, mediawiki.WithUserAgent(*cfg.Wiki.UserAgent))
	}
	return mediawiki.New(cfg.Wiki.Endpoint, opts...), nil, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
