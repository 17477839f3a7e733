package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/stopwatch/internal/clock/testutil"
	"github.com/strrl/stopwatch/internal/stopwatch"
	"github.com/strrl/stopwatch/pkg/models"
)

func newTestModel(t *testing.T) (model, *stopwatch.Engine, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC))
	engine := stopwatch.New(stopwatch.WithClock(clk))
	t.Cleanup(engine.Close)

	m := initialModel(Options{Engine: engine})
	t.Cleanup(m.cancel)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(model), engine, clk
}

func press(m model, key string) model {
	var msg tea.KeyMsg
	if key == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, _ := m.Update(msg)
	return updated.(model)
}

// nextLedger delivers the pending ledger change to the model
func nextLedger(t *testing.T, m model) model {
	t.Helper()
	select {
	case entries := <-m.ledgers:
		updated, _ := m.Update(LedgerChangedMsg(entries))
		return updated.(model)
	case <-time.After(2 * time.Second):
		t.Fatal("no ledger change delivered")
		return m
	}
}

// TestModelInitialization tests the initial model setup
func TestModelInitialization(t *testing.T) {
	clk := testutil.NewFakeClock(time.Now())
	engine := stopwatch.New(stopwatch.WithClock(clk))
	m := initialModel(Options{Engine: engine})
	defer m.cancel()

	if m.display != "00:00.00" {
		t.Errorf("Initial display = %q, want 00:00.00", m.display)
	}
	if m.lapButtonLabel() != "Lap" {
		t.Errorf("Initial lap button = %q, want Lap", m.lapButtonLabel())
	}
	if m.startButtonLabel() != "Start" {
		t.Errorf("Initial start button = %q, want Start", m.startButtonLabel())
	}
	if m.accent != "212" {
		t.Errorf("Default accent = %q, want 212", m.accent)
	}
	if m.ready {
		t.Error("Model should not be ready before a window size")
	}
}

// TestViewportInitialization tests viewport setup
func TestViewportInitialization(t *testing.T) {
	m, _, _ := newTestModel(t)

	if !m.ready {
		t.Error("Model should be ready after window size is set")
	}
	if m.width != 80 || m.height != 30 {
		t.Error("Window dimensions not set correctly")
	}
	if m.viewport.Height != 30-chromeTop-chromeBottom {
		t.Errorf("Viewport height = %d, want %d", m.viewport.Height, 30-chromeTop-chromeBottom)
	}

	// Tiny windows still get a one line lap list
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 3})
	m = updated.(model)
	if m.viewport.Height != 1 {
		t.Errorf("Viewport height = %d, want 1", m.viewport.Height)
	}
}

// TestStartStopKey tests the start/stop dispatch and button labels
func TestStartStopKey(t *testing.T) {
	m, engine, clk := newTestModel(t)

	m = press(m, " ")
	if !engine.Running() {
		t.Fatal("Engine should run after space")
	}
	if m.startButtonLabel() != "Stop" || m.lapButtonLabel() != "Lap" {
		t.Errorf("Running labels = %q/%q, want Stop/Lap", m.startButtonLabel(), m.lapButtonLabel())
	}
	if !m.ticking {
		t.Error("Spinner should tick while running")
	}

	clk.Advance(1500 * time.Millisecond)
	m = press(m, "s")
	if engine.Running() {
		t.Fatal("Engine should stop on second press")
	}
	if m.display != "00:01.50" {
		t.Errorf("Display after stop = %q, want 00:01.50", m.display)
	}
	if m.lapButtonLabel() != "Reset" {
		t.Errorf("Lap button after stop = %q, want Reset", m.lapButtonLabel())
	}
}

// TestLapAndReset tests that laps reach the lap list and reset clears it
func TestLapAndReset(t *testing.T) {
	m, engine, clk := newTestModel(t)

	m = press(m, " ")
	clk.Advance(750 * time.Millisecond)
	m = press(m, "l")
	m = nextLedger(t, m)
	clk.Advance(500 * time.Millisecond)
	m = press(m, "l")
	m = nextLedger(t, m)

	if len(m.laps) != 2 {
		t.Fatalf("Expected 2 laps, got %d", len(m.laps))
	}
	if m.laps[0].Label != 2 || m.laps[1].Label != 1 {
		t.Errorf("Labels = %d,%d, want 2,1", m.laps[0].Label, m.laps[1].Label)
	}
	laps := m.renderLaps()
	if !strings.Contains(laps, "Lap 1") || !strings.Contains(laps, "00:00.75") {
		t.Errorf("Lap list missing first lap:\n%s", laps)
	}
	if !strings.Contains(laps, "00:01.25") {
		t.Errorf("Lap list missing second lap:\n%s", laps)
	}

	m = press(m, " ")
	m = press(m, "l")
	m = nextLedger(t, m)

	if len(engine.Laps()) != 0 || len(m.laps) != 0 {
		t.Error("Reset should clear the ledger")
	}
	if m.display != "00:00.00" {
		t.Errorf("Display after reset = %q, want 00:00.00", m.display)
	}
	if !strings.Contains(m.renderLaps(), "No laps recorded") {
		t.Error("Empty lap list should say so")
	}
}

// TestLapWhileStoppedResets tests that the lap key never records while stopped
func TestLapWhileStoppedResets(t *testing.T) {
	m, engine, _ := newTestModel(t)

	m = press(m, "l")
	if len(engine.Laps()) != 0 {
		t.Error("Lap key while stopped should not record a lap")
	}
	if m.engine.Running() {
		t.Error("Lap key should not start the engine")
	}
}

// TestDisplayMsg tests tick handling while running and after stop
func TestDisplayMsg(t *testing.T) {
	m, _, clk := newTestModel(t)

	m = press(m, " ")
	updated, cmd := m.Update(DisplayMsg("00:00.42"))
	m = updated.(model)
	if m.display != "00:00.42" {
		t.Errorf("Display = %q, want 00:00.42", m.display)
	}
	if cmd == nil {
		t.Error("DisplayMsg should re-arm the display subscription")
	}

	clk.Advance(2 * time.Second)
	m = press(m, " ")

	// A tick computed before the stop must not overwrite the final time
	updated, _ = m.Update(DisplayMsg("00:01.99"))
	m = updated.(model)
	if m.display != "00:02.00" {
		t.Errorf("Display = %q, want 00:02.00", m.display)
	}
}

// TestEngineTickReachesModel tests the tick subscription end to end
func TestEngineTickReachesModel(t *testing.T) {
	m, _, clk := newTestModel(t)

	m = press(m, " ")
	clk.Advance(3210 * time.Millisecond)
	if n := clk.Tick(); n != 1 {
		t.Fatalf("Tick delivered to %d tickers, want 1", n)
	}

	msg := waitForDisplay(m.displays)()
	updated, _ := m.Update(msg)
	m = updated.(model)
	if m.display != "00:03.21" {
		t.Errorf("Display = %q, want 00:03.21", m.display)
	}
}

// TestSummaryLoaded tests split rendering from lap statistics
func TestSummaryLoaded(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.laps = []models.LapEntry{
		{Label: 2, Elapsed: 2250 * time.Millisecond, Display: "00:02.25"},
		{Label: 1, Elapsed: 1500 * time.Millisecond, Display: "00:01.50"},
	}
	m.loadingSummary = true

	updated, _ := m.Update(SummaryLoadedMsg{
		Summary: models.LapSummary{
			Count:        2,
			FastestLabel: 2,
			Fastest:      750 * time.Millisecond,
			SlowestLabel: 1,
			Slowest:      1500 * time.Millisecond,
			Average:      1125 * time.Millisecond,
		},
		Splits: []models.Split{
			{Label: 2, Split: 750 * time.Millisecond},
			{Label: 1, Split: 1500 * time.Millisecond},
		},
	})
	m = updated.(model)

	if m.loadingSummary {
		t.Error("Loading flag should be cleared after summary loaded")
	}
	if !strings.Contains(m.renderLaps(), "+00:00.75") {
		t.Errorf("Split missing from lap list:\n%s", m.renderLaps())
	}

	// A summary for a different number of laps is stale
	updated, _ = m.Update(SummaryLoadedMsg{Summary: models.LapSummary{Count: 5}})
	m = updated.(model)
	if m.summary.Count != 2 {
		t.Error("Stale summary should be ignored")
	}
}

// TestQuitStopsEngine tests that quitting cancels the running ticker
func TestQuitStopsEngine(t *testing.T) {
	m, engine, clk := newTestModel(t)

	m = press(m, " ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Quit should return a command")
	}
	if engine.Running() {
		t.Error("Engine should be stopped on quit")
	}
	if clk.ActiveTickers() != 0 {
		t.Error("No ticker should be left running after quit")
	}
	if m.ctx.Err() == nil {
		t.Error("Model context should be cancelled on quit")
	}
}

// TestViewRenders tests the full screen render
func TestViewRenders(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"Stopwatch", "00:00.00", "[Lap]", "[Start]", "Laps (0)", "q: quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

// TestOfferLatest tests that the newest value replaces an unread one
func TestOfferLatest(t *testing.T) {
	ch := make(chan string, 1)
	offerLatest(ch, "first")
	offerLatest(ch, "second")

	if got := <-ch; got != "second" {
		t.Errorf("Got %q, want second", got)
	}
	select {
	case got := <-ch:
		t.Errorf("Unexpected extra value %q", got)
	default:
	}
}

// TestSpinnerAnimation tests spinner tick updates
func TestSpinnerAnimation(t *testing.T) {
	spinner := NewSpinner()
	initialFrame := spinner.View()

	spinner.Next()
	if spinner.View() == initialFrame {
		t.Error("Spinner frame should change after Next()")
	}

	// 8 frames in the spinner
	for i := 0; i < 7; i++ {
		spinner.Next()
	}
	if spinner.View() != initialFrame {
		t.Error("Spinner should return to initial frame after full rotation")
	}
}

// TestLoadingIndicator tests the loading indicator
func TestLoadingIndicator(t *testing.T) {
	indicator := NewLoadingIndicator("Testing...", "212")

	view := indicator.View()
	if !strings.Contains(view, "Testing...") {
		t.Error("Loading indicator should show its message")
	}

	indicator.SetMessage("New message")
	if indicator.View() == view {
		t.Error("View should change when message is updated")
	}
}

// TestProgressBar tests progress bar rendering
func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		width    int
	}{
		{0, 10},
		{50, 10},
		{100, 10},
		{150, 10}, // Over 100%
		{-10, 10}, // Negative
	}

	for _, tt := range tests {
		bar := renderProgressBar(tt.progress, tt.width, "212")
		if cells := strings.Count(bar, "█") + strings.Count(bar, "░"); cells != tt.width {
			t.Errorf("Progress %.0f: bar has %d cells, want %d", tt.progress, cells, tt.width)
		}
	}
}

// BenchmarkRenderLaps benchmarks lap list rendering
func BenchmarkRenderLaps(b *testing.B) {
	m := model{}
	for i := 100; i > 0; i-- {
		d := time.Duration(i) * 1234 * time.Millisecond
		m.laps = append(m.laps, models.LapEntry{Label: i, Elapsed: d, Display: stopwatch.Format(d)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.renderLaps()
	}
}
