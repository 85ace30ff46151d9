// blockfall is a deterministic falling-block game for the terminal.
//
// Usage:
//
//	blockfall play              - Play in the terminal
//	blockfall worker            - Run the engine worker over stdin/stdout
//	blockfall serve             - Serve games over SSH and/or WebSocket
//	blockfall replay <file|id>  - Watch a recorded game
//	blockfall verify <file|id>  - Check that a recording replays deterministically
//	blockfall snapshot validate - Check a snapshot file before recovery
//	blockfall scores            - Browse high scores and saved replays
//
// Global flags:
//
//	--config <path>     - Config file (default search: ~/.blockfall/config.yaml, ./configs/blockfall.yaml)
//	--db <path>         - Database path (overrides config)
//	--log-level <level> - debug, info, warn, error
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/blockfall/internal/config"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/storage"
	"github.com/vovakirdan/blockfall/internal/worker"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blockfall",
	Short: "Blockfall - a deterministic falling-block game",
	Long: `Blockfall runs a deterministic falling-block simulation behind a
message protocol. The same engine drives the terminal player, the SSH
server, the WebSocket bridge and replays.

Examples:
  blockfall play
  blockfall play --seed 12345
  blockfall play --resume
  blockfall serve --ssh :23234 --ws :8080
  blockfall replay ./replays/game.yaml
  blockfall verify ./replays/game.yaml
  blockfall scores`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(scoresCmd)
}

// newLogger returns a stderr logger at the --log-level level.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          prefix,
	}), nil
}

// loadConfig loads the config and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.DB = flagDBPath
	}
	return cfg, nil
}

// workerOptions derives worker options from the config.
func workerOptions(cfg config.Config, logger *log.Logger) worker.Options {
	rate := cfg.Runtime.TickRate
	if rate < 1 {
		rate = 60
	}
	settings := cfg.Visual.Settings()
	return worker.Options{
		TickInterval: time.Second / time.Duration(rate),
		Settings:     &settings,
		Recovery:     engine.ValidateOptions{StrictChecksum: cfg.Recovery.StrictChecksum},
		Logger:       logger,
	}
}

// openStore opens the configured database. Failure is reported and nil is
// returned so the caller can continue without persistence.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.DB)
	if err != nil {
		logger.Warn("could not open database, continuing without persistence", "path", cfg.Storage.DB, "err", err)
		return nil
	}
	return store
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
