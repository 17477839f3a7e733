package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/strrl/stopwatch/internal/stopwatch"
)

// NewFormatCommand creates the format command
func NewFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <seconds|duration>...",
		Short: "Print durations the way the stopwatch displays them",
		Long: `Print each argument as MM:SS.CC. Arguments are seconds (61.256) or Go
durations (1m1.256s). Hundredths are truncated and minutes wrap at the hour.`,
		Example: "  stopwatch format 61.256 1h2m3s",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runFormat,
	}
}

func runFormat(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		d, err := parseElapsed(arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stopwatch.Format(d))
	}
	return nil
}

func parseElapsed(arg string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.ParseFloat(arg, 64); err == nil {
		d = time.Duration(seconds * float64(time.Second))
	} else if parsed, err := time.ParseDuration(arg); err == nil {
		d = parsed
	} else {
		return 0, fmt.Errorf("invalid duration %q: want seconds or a duration like 1m30s", arg)
	}

	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", arg)
	}
	return d, nil
}
