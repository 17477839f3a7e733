// Package stopwatch implements the timing and lap-ledger engine: elapsed time
// across start/stop cycles, a periodic display tick while running, and the
// ordered list of recorded laps.
package stopwatch

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/strrl/stopwatch/internal/clock"
	"github.com/strrl/stopwatch/pkg/models"
)

// DefaultTickInterval is how often a running engine emits the display time.
const DefaultTickInterval = 10 * time.Millisecond

// TickHandler receives the formatted elapsed time on every tick.
type TickHandler func(display string)

// LedgerHandler receives the whole ledger, newest first, after every change.
type LedgerHandler func(entries []models.LapEntry)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithTickInterval overrides DefaultTickInterval. Non-positive values are
// ignored.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine is a stopwatch with two states, Stopped (initial) and Running.
//
// Every mutation and every tick is serialized on one mutex. Tick handlers run
// on the engine's ticker goroutine and ledger handlers run on the goroutine
// that changed the ledger; neither may call back into the Engine
// synchronously.
type Engine struct {
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	running     bool
	startedAt   time.Time
	accumulated time.Duration
	ledger      Ledger
	seg         *segment

	tickHandlers   []TickHandler
	ledgerHandlers []LedgerHandler

	// notifyMu keeps ledger notifications in mutation order.
	notifyMu sync.Mutex
}

// New returns a stopped engine with zero elapsed time and an empty ledger.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:    clock.Real{},
		interval: DefaultTickInterval,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnTick subscribes h to tick emissions.
func (e *Engine) OnTick(h TickHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickHandlers = append(e.tickHandlers, h)
}

// OnLedgerChanged subscribes h to ledger changes (lap and reset).
func (e *Engine) OnLedgerChanged(h LedgerHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledgerHandlers = append(e.ledgerHandlers, h)
}

// Start begins a run segment and the periodic tick.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

// Stop banks the current segment and cancels the tick. No tick is delivered
// after Stop returns.
func (e *Engine) Stop() error {
	e.mu.Lock()
	seg, err := e.stopLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	seg.cancel()
	return nil
}

// Lap records the current total elapsed time. It has no effect and returns
// false while stopped.
func (e *Engine) Lap() bool {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return false
	}
	e.recordLapLocked()
	e.unlockAndPublish()
	return true
}

// Reset zeroes the elapsed time and clears the ledger. It is only valid while
// stopped.
func (e *Engine) Reset() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("%w: reset while running", ErrInvalidTransition)
	}
	e.resetLocked()
	e.unlockAndPublish()
	return nil
}

// PressStartStop starts a stopped engine and stops a running one.
func (e *Engine) PressStartStop() error {
	e.mu.Lock()
	if !e.running {
		defer e.mu.Unlock()
		return e.startLocked()
	}
	seg, err := e.stopLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	seg.cancel()
	return nil
}

// PressLapReset records a lap while running and resets while stopped.
func (e *Engine) PressLapReset() {
	e.mu.Lock()
	if e.running {
		e.recordLapLocked()
		e.unlockAndPublish()
		return
	}
	e.resetLocked()
	e.unlockAndPublish()
}

// Close stops a running engine so its ticker goroutine exits.
func (e *Engine) Close() {
	if err := e.Stop(); err == nil {
		e.logger.Debug("stopwatch closed while running")
	}
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Elapsed is the banked time plus the in-progress segment, if any.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalLocked()
}

// Accumulated is the time banked from completed segments only.
func (e *Engine) Accumulated() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accumulated
}

// Display is Elapsed formatted as MM:SS.CC.
func (e *Engine) Display() string {
	return Format(e.Elapsed())
}

// Laps snapshots the ledger, newest first.
func (e *Engine) Laps() []models.LapEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Entries()
}

func (e *Engine) startLocked() error {
	if e.running {
		return fmt.Errorf("%w: start while running", ErrInvalidTransition)
	}
	e.running = true
	e.startedAt = e.clock.Now()
	e.seg = newSegment(e.clock.NewTicker(e.interval))
	go e.runTicks(e.seg)

	e.logger.Debug("stopwatch started", "accumulated", e.accumulated, "interval", e.interval)
	return nil
}

func (e *Engine) stopLocked() (*segment, error) {
	if !e.running {
		return nil, fmt.Errorf("%w: stop while stopped", ErrInvalidTransition)
	}
	e.accumulated += e.clock.Now().Sub(e.startedAt)
	e.running = false
	e.startedAt = time.Time{}
	seg := e.seg
	e.seg = nil

	e.logger.Debug("stopwatch stopped", "accumulated", e.accumulated)
	return seg, nil
}

func (e *Engine) recordLapLocked() {
	total := e.totalLocked()
	e.ledger.Record(total)
	e.logger.Debug("lap recorded", "label", e.ledger.Count(), "elapsed", total)
}

// resetLocked is only reached while stopped, when Stop has already cancelled
// the segment's ticker.
func (e *Engine) resetLocked() {
	e.running = false
	e.startedAt = time.Time{}
	e.accumulated = 0
	e.ledger.Clear()

	e.logger.Debug("stopwatch reset")
}

// unlockAndPublish must be called with e.mu held. It releases e.mu and hands
// a ledger snapshot to every ledger handler.
func (e *Engine) unlockAndPublish() {
	entries := e.ledger.Entries()
	handlers := e.ledgerHandlers
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, h := range handlers {
		h(entries)
	}
}

func (e *Engine) totalLocked() time.Duration {
	if !e.running {
		return e.accumulated
	}
	return e.accumulated + e.clock.Now().Sub(e.startedAt)
}

func (e *Engine) runTicks(seg *segment) {
	defer close(seg.exited)
	for {
		select {
		case <-seg.done:
			return
		case <-seg.ticker.C():
			e.tick(seg)
		}
	}
}

// tick reads the running total and emits it. It never mutates state.
func (e *Engine) tick(seg *segment) {
	e.mu.Lock()
	if e.seg != seg || !e.running {
		e.mu.Unlock()
		return
	}
	display := Format(e.totalLocked())
	handlers := e.tickHandlers
	e.mu.Unlock()

	for _, h := range handlers {
		h(display)
	}
}

// segment is one Running period: a ticker and the goroutine draining it.
type segment struct {
	ticker clock.Ticker
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

func newSegment(t clock.Ticker) *segment {
	return &segment{
		ticker: t,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// cancel stops the ticker exactly once and waits for the goroutine to exit.
func (s *segment) cancel() {
	s.once.Do(func() {
		close(s.done)
		s.ticker.Stop()
	})
	<-s.exited
}
