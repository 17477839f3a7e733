package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/stopwatch/internal/config"
	"github.com/strrl/stopwatch/internal/laplog"
	"github.com/strrl/stopwatch/internal/stopwatch"
	"github.com/strrl/stopwatch/pkg/models"
)

type runOptions struct {
	duration   time.Duration
	lapEvery   time.Duration
	printEvery time.Duration
}

// NewRunCommand creates the headless run command
func NewRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stopwatch without the TUI",
		Long: `Run the stopwatch for a fixed time, printing the display time as it ticks
and taking a lap at a fixed interval. Ctrl+C stops early. Lap statistics are
printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd, root, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.duration, "for", 5*time.Second, "How long to run")
	cmd.Flags().DurationVar(&opts.lapEvery, "lap-every", 0, "Take a lap at this interval (0 for no laps)")
	cmd.Flags().DurationVar(&opts.printEvery, "print-every", 250*time.Millisecond, "Print the display time at most this often")

	return cmd
}

func runHeadless(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if opts.duration <= 0 {
		return fmt.Errorf("--for must be positive, got %s", opts.duration)
	}
	if opts.lapEvery < 0 {
		return fmt.Errorf("--lap-every must not be negative, got %s", opts.lapEvery)
	}
	if opts.printEvery <= 0 {
		return fmt.Errorf("--print-every must be positive, got %s", opts.printEvery)
	}

	cfg, err := config.Load(viper.New(), root.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), root.debug)
	engine := stopwatch.New(
		stopwatch.WithTickInterval(cfg.TickInterval),
		stopwatch.WithLogger(logger),
	)
	defer engine.Close()

	recorder, err := newRecorder(cfg, logger)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer recorder.Close()
		engine.OnLedgerChanged(recorder.Observe)
	}

	// Ticks arrive on the engine's goroutine, laps on this one
	out := &lockedWriter{w: cmd.OutOrStdout()}
	var lastPrinted time.Time
	engine.OnTick(func(display string) {
		now := time.Now()
		if now.Sub(lastPrinted) < opts.printEvery {
			return
		}
		lastPrinted = now
		out.Printf("%s\n", display)
	})
	engine.OnLedgerChanged(func(entries []models.LapEntry) {
		if len(entries) > 0 {
			out.Printf("lap %d  %s\n", entries[0].Label, entries[0].Display)
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	var laps <-chan time.Time
	if opts.lapEvery > 0 {
		lapTicker := time.NewTicker(opts.lapEvery)
		defer lapTicker.Stop()
		laps = lapTicker.C
	}

	if err := engine.Start(); err != nil {
		return err
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-laps:
			engine.Lap()
		}
	}

	if err := engine.Stop(); err != nil {
		return err
	}
	out.Printf("total  %s\n", engine.Display())

	if recorder == nil {
		return nil
	}
	return printLapStats(cmd.Context(), out, recorder)
}

func printLapStats(ctx context.Context, out *lockedWriter, recorder *laplog.Recorder) error {
	summary, err := recorder.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load lap statistics: %w", err)
	}
	if summary.Count == 0 {
		return nil
	}

	splits, err := recorder.Splits(ctx)
	if err != nil {
		return fmt.Errorf("failed to load lap splits: %w", err)
	}

	out.Printf("\nlaps: %d\n", summary.Count)
	for _, split := range splits {
		out.Printf("  lap %-4d +%s\n", split.Label, stopwatch.Format(split.Split))
	}
	out.Printf("fastest: lap %d +%s\n", summary.FastestLabel, stopwatch.Format(summary.Fastest))
	out.Printf("slowest: lap %d +%s\n", summary.SlowestLabel, stopwatch.Format(summary.Slowest))
	out.Printf("average: +%s\n", stopwatch.Format(summary.Average))
	return nil
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}
