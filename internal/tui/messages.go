package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/stopwatch/internal/laplog"
	"github.com/strrl/stopwatch/pkg/models"
)

// Message types delivered to the model
type (
	// DisplayMsg carries the formatted time from an engine tick
	DisplayMsg string

	// LedgerChangedMsg carries the lap ledger after a lap or reset
	LedgerChangedMsg []models.LapEntry

	// SummaryLoadedMsg contains lap statistics for the current run
	SummaryLoadedMsg struct {
		Summary models.LapSummary
		Splits  []models.Split
		Error   error
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

// offerLatest puts v in a one-slot channel, replacing any value nobody has
// read yet. It never blocks, so it is safe to call from engine handlers.
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// waitForDisplay waits for the next engine tick
func waitForDisplay(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return DisplayMsg(<-ch)
	}
}

// waitForLedger waits for the next ledger change
func waitForLedger(ch <-chan []models.LapEntry) tea.Cmd {
	return func() tea.Msg {
		return LedgerChangedMsg(<-ch)
	}
}

// loadSummaryCmd loads lap statistics asynchronously
func loadSummaryCmd(ctx context.Context, rec *laplog.Recorder) tea.Cmd {
	return func() tea.Msg {
		summary, err := rec.Summary(ctx)
		if err != nil {
			return SummaryLoadedMsg{Error: err}
		}
		splits, err := rec.Splits(ctx)
		return SummaryLoadedMsg{
			Summary: summary,
			Splits:  splits,
			Error:   err,
		}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
