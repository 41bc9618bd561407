// dragonslayer runs the one-button dragon cabinet: the game loop, the sound
// sequencer and the WebSocket viewer.
//
// Usage:
//
//	dragonslayer run          - Play in this terminal with the viewer on :8080
//	dragonslayer serve        - Run headless, optionally with an SSH console
//	dragonslayer history      - Show recent rounds and totals
//	dragonslayer config       - Print the effective tuning as YAML
//
// Global flags:
//
//	--config <path>     - Tuning file (default: search ~/.dragonslayer, ./configs)
//	--env-file <path>   - Dotenv file read before the environment (default: .env)
//	--seed <value>      - RNG seed for reproducible rounds
//	--db <path>         - Round history database (default: ~/.dragonslayer/rounds.db)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/dragonslayer/internal/config"
)

var (
	// Global flags
	flagConfigPath string
	flagEnvFile    string
	flagSeed       int64
	flagDBPath     string
	flagLogLevel   string

	// settings is the environment merged with explicitly set flags.
	settings config.ServeConfig
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dragonslayer",
	Short: "Dragonslayer - a one-button dragon fight",
	Long: `Dragonslayer is a small arcade cabinet game: dodge the dragon's
fireballs, touch the dragon five times and it falls.

Available commands:
  run      - Play in this terminal, viewer served over WebSocket
  serve    - Headless cabinet with an optional SSH controller console
  history  - Recent rounds and win/loss totals
  config   - Print the effective tuning

Settings are read from the environment (DRAGONSLAYER_*), optionally
seeded from a dotenv file. Flags win over both.

Examples:
  dragonslayer run
  dragonslayer run --http :9000 --sound
  dragonslayer serve --ssh :23234
  dragonslayer history --limit 20`,
	PersistentPreRunE: loadSettings,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to tuning YAML")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.dragonslayer/rounds.db", "Path to round history database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// loadSettings reads the environment, then applies flags the user set.
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServeConfig(flagEnvFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("config") {
		cfg.ConfigPath = flagConfigPath
	}
	if flags.Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	settings = cfg
	return nil
}

// loadTuning reads the game tuning named by the settings.
func loadTuning() (config.Config, error) {
	cfg, err := config.Load(settings.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "dragonslayer",
		Level:           level,
	}), nil
}

// openLogFile opens ~/.dragonslayer/dragonslayer.log for appending. The
// console owns the terminal while it runs, so logs go there instead.
func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot get home directory: %w", err)
	}
	dir := filepath.Join(home, ".dragonslayer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return os.OpenFile(filepath.Join(dir, "dragonslayer.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
