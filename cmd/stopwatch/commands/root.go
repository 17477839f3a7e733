package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/stopwatch/internal/config"
	"github.com/strrl/stopwatch/internal/db"
	"github.com/strrl/stopwatch/internal/laplog"
	"github.com/strrl/stopwatch/internal/stopwatch"
	"github.com/strrl/stopwatch/internal/tui"
)

const debugLogFile = "stopwatch-debug.log"

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "stopwatch",
		Short:         "A terminal stopwatch with laps",
		Long:          `stopwatch is a TUI stopwatch: start and stop timing, record laps, reset, and scroll through recorded laps with split statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/stopwatch/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug logs ("+debugLogFile+" for the TUI, stderr otherwise)")

	rootCmd.AddCommand(NewRunCommand(opts))
	rootCmd.AddCommand(NewFormatCommand())
	rootCmd.AddCommand(NewConfigCommand(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(opts *rootOptions) error {
	cfg, err := config.Load(viper.New(), opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the TUI, so debug logs go to a file
	logger := slog.New(slog.DiscardHandler)
	if opts.debug {
		f, err := tea.LogToFile(debugLogFile, "stopwatch")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
		logger = newLogger(f, true)
	}

	engine := stopwatch.New(
		stopwatch.WithTickInterval(cfg.TickInterval),
		stopwatch.WithLogger(logger),
	)

	recorder, err := newRecorder(cfg, logger)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer recorder.Close()
		engine.OnLedgerChanged(recorder.Observe)
	}

	err = tui.ShowTUI(tui.Options{
		Engine:      engine,
		Recorder:    recorder,
		AccentColor: cfg.AccentColor,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// newRecorder returns nil when lap statistics are disabled
func newRecorder(cfg config.Config, logger *slog.Logger) (*laplog.Recorder, error) {
	if !cfg.Stats {
		return nil, nil
	}

	database, err := db.GetDB()
	if err != nil {
		return nil, err
	}

	recorder, err := laplog.NewRecorder(database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start lap statistics: %w", err)
	}
	return recorder, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
