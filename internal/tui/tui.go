package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/stopwatch/internal/laplog"
	"github.com/strrl/stopwatch/internal/stopwatch"
	"github.com/strrl/stopwatch/pkg/models"
)

// Lines above and below the lap list: header, blank, time, blank, buttons,
// progress bar, lap header, and summary plus footer at the bottom
const (
	chromeTop    = 7
	chromeBottom = 2
)

var (
	startColor = lipgloss.Color("42")
	stopColor  = lipgloss.Color("196")
)

// Options configures the TUI
type Options struct {
	Engine      *stopwatch.Engine
	Recorder    *laplog.Recorder // nil disables lap statistics
	AccentColor string
	Logger      *slog.Logger
}

type model struct {
	engine   *stopwatch.Engine
	recorder *laplog.Recorder
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	displays chan string
	ledgers  chan []models.LapEntry

	display     string
	laps        []models.LapEntry
	splits      map[int]time.Duration
	summary     *models.LapSummary
	everStarted bool

	loadingSummary bool
	ticking        bool
	spinner        *Spinner
	indicator      *LoadingIndicator
	accent         lipgloss.Color

	viewport viewport.Model
	ready    bool
	err      error
	width    int
	height   int
}

func initialModel(opts Options) model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	accent := lipgloss.Color(opts.AccentColor)
	if opts.AccentColor == "" {
		accent = lipgloss.Color("212")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := model{
		engine:    opts.Engine,
		recorder:  opts.Recorder,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		displays:  make(chan string, 1),
		ledgers:   make(chan []models.LapEntry, 1),
		display:   opts.Engine.Display(),
		laps:      opts.Engine.Laps(),
		splits:    make(map[int]time.Duration),
		spinner:   NewSpinner(),
		indicator: NewLoadingIndicator("Computing lap stats...", accent),
		accent:    accent,
	}

	displays, ledgers := m.displays, m.ledgers
	m.engine.OnTick(func(display string) {
		offerLatest(displays, display)
	})
	m.engine.OnLedgerChanged(func(entries []models.LapEntry) {
		offerLatest(ledgers, entries)
	})

	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForDisplay(m.displays), waitForLedger(m.ledgers))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		listHeight := msg.Height - chromeTop - chromeBottom
		if listHeight < 1 {
			listHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, listHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = listHeight
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.engine.Close()
			m.cancel()
			return m, tea.Quit

		case " ", "space", "s", "enter":
			if err := m.engine.PressStartStop(); err != nil {
				m.err = err
				return m, nil
			}
			m.display = m.engine.Display()
			if m.engine.Running() {
				m.everStarted = true
				cmds = append(cmds, m.startTicking())
			}
			m.logger.Debug("start/stop pressed", "running", m.engine.Running(), "display", m.display)
			return m, tea.Batch(cmds...)

		case "l", "r", "backspace":
			m.engine.PressLapReset()
			m.display = m.engine.Display()
			m.logger.Debug("lap/reset pressed", "running", m.engine.Running(), "laps", len(m.engine.Laps()))
			return m, nil
		}

	case DisplayMsg:
		// A tick read before a stop can arrive after it; the engine's own
		// value wins once stopped
		if m.engine.Running() {
			m.display = string(msg)
		} else {
			m.display = m.engine.Display()
		}
		return m, waitForDisplay(m.displays)

	case LedgerChangedMsg:
		m.laps = msg
		if len(m.laps) == 0 {
			m.summary = nil
			m.splits = make(map[int]time.Duration)
		}
		m.updateViewport()
		cmds = append(cmds, waitForLedger(m.ledgers))
		if m.recorder != nil {
			m.loadingSummary = true
			cmds = append(cmds, loadSummaryCmd(m.ctx, m.recorder), m.startTicking())
		}
		return m, tea.Batch(cmds...)

	case SummaryLoadedMsg:
		if msg.Error != nil {
			m.loadingSummary = false
			if !errors.Is(msg.Error, context.Canceled) {
				m.logger.Error("lap stats failed", "err", msg.Error)
			}
			return m, nil
		}
		// Stale results from before a newer lap or reset are dropped
		if msg.Summary.Count != len(m.laps) {
			return m, nil
		}
		m.loadingSummary = false
		summary := msg.Summary
		m.summary = &summary
		m.splits = make(map[int]time.Duration, len(msg.Splits))
		for _, split := range msg.Splits {
			m.splits[split.Label] = split.Split
		}
		m.updateViewport()
		return m, nil

	case TickMsg:
		if !m.engine.Running() && !m.loadingSummary {
			m.ticking = false
			return m, nil
		}
		m.spinner.Next()
		m.indicator.Tick()
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// startTicking starts the spinner animation unless it is already running
func (m *model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func (m *model) updateViewport() {
	m.viewport.SetContent(m.renderLaps())
}

func (m model) lapButtonLabel() string {
	if m.engine.Running() || !m.everStarted {
		return "Lap"
	}
	return "Reset"
}

func (m model) startButtonLabel() string {
	if m.engine.Running() {
		return "Stop"
	}
	return "Start"
}

func (m model) renderLaps() string {
	if len(m.laps) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		return emptyStyle.Render("  No laps recorded")
	}

	var s strings.Builder

	lapStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	splitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	fastestStyle := lipgloss.NewStyle().Foreground(startColor)
	slowestStyle := lipgloss.NewStyle().Foreground(stopColor)

	for i, lap := range m.laps {
		line := fmt.Sprintf("  Lap %-4d %s", lap.Label, lap.Display)
		s.WriteString(lapStyle.Render(line))

		if split, ok := m.splits[lap.Label]; ok {
			style := splitStyle
			if m.summary != nil && m.summary.Count > 1 {
				switch lap.Label {
				case m.summary.FastestLabel:
					style = fastestStyle
				case m.summary.SlowestLabel:
					style = slowestStyle
				}
			}
			s.WriteString(style.Render("   +" + stopwatch.Format(split)))
		}

		if i < len(m.laps)-1 {
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	return strings.Join([]string{
		m.renderHeader(),
		"",
		m.renderTime(),
		"",
		m.renderButtons(),
		m.renderProgress(),
		m.renderLapHeader(),
		m.viewport.View(),
		m.renderSummary(),
		m.renderFooter(),
	}, "\n")
}

func (m model) renderHeader() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63")).
		Width(m.width).
		Align(lipgloss.Center)

	return style.Render("Stopwatch")
}

func (m model) renderTime() string {
	indicator := " "
	if m.engine.Running() {
		indicator = lipgloss.NewStyle().Foreground(m.accent).Render(m.spinner.View())
	}

	timeStyle := lipgloss.NewStyle().Bold(true)
	line := fmt.Sprintf("%s  %s", indicator, timeStyle.Render(m.display))

	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Render(line)
}

func (m model) renderButtons() string {
	lapButton := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(lipgloss.Color("252")).
		Render("[" + m.lapButtonLabel() + "]")

	color := startColor
	if m.engine.Running() {
		color = stopColor
	}
	startButton := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(color).
		Bold(true).
		Render("[" + m.startButtonLabel() + "]")

	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, lapButton, startButton))
}

// renderProgress shows how far the current minute has run
func (m model) renderProgress() string {
	width := m.width - 4
	if width > 60 {
		width = 60
	}
	elapsed := m.engine.Elapsed() % time.Minute
	progress := float64(elapsed) / float64(time.Minute) * 100

	return lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Render(renderProgressBar(progress, width, m.accent))
}

func (m model) renderLapHeader() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	return headerStyle.Render(fmt.Sprintf("  Laps (%d)", len(m.laps)))
}

func (m model) renderSummary() string {
	if m.recorder == nil {
		return ""
	}
	if m.loadingSummary {
		return "  " + m.indicator.View()
	}
	if m.summary == nil || m.summary.Count < 2 {
		return ""
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return style.Render(fmt.Sprintf("  fastest lap %d +%s • slowest lap %d +%s • average +%s",
		m.summary.FastestLabel, stopwatch.Format(m.summary.Fastest),
		m.summary.SlowestLabel, stopwatch.Format(m.summary.Slowest),
		stopwatch.Format(m.summary.Average)))
}

func (m model) renderFooter() string {
	info := fmt.Sprintf("space: %s • l: %s • ↑/↓: scroll laps • q: quit",
		strings.ToLower(m.startButtonLabel()),
		strings.ToLower(m.lapButtonLabel()))

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	return style.Render(info)
}

// ShowTUI runs the stopwatch screen until the user quits
func ShowTUI(opts Options) error {
	m := initialModel(opts)
	defer m.cancel()
	defer opts.Engine.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
