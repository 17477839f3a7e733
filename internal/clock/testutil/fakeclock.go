package testutil

import (
	"sync"
	"time"

	"github.com/strrl/stopwatch/internal/clock"
)

// FakeClock is a manually driven clock.Clock. Time only moves on Advance and
// tickers only fire on Tick.
type FakeClock struct {
	mtx     sync.Mutex
	now     time.Time
	tickers []*FakeTicker
}

var _ clock.Clock = new(FakeClock)

// NewFakeClock returns a FakeClock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (f *FakeClock) Now() time.Time {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.now = f.now.Add(d)
}

func (f *FakeClock) NewTicker(d time.Duration) clock.Ticker {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	t := &FakeTicker{
		Interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Tickers returns every ticker created so far, oldest first.
func (f *FakeClock) Tickers() []*FakeTicker {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	out := make([]*FakeTicker, len(f.tickers))
	copy(out, f.tickers)
	return out
}

// ActiveTickers counts tickers that have not been stopped.
func (f *FakeClock) ActiveTickers() int {
	n := 0
	for _, t := range f.Tickers() {
		if !t.Stopped() {
			n++
		}
	}
	return n
}

// Tick delivers the current time to every active ticker and reports how many
// received it. Each delivery blocks until the receiver takes it or the
// ticker is stopped.
func (f *FakeClock) Tick() int {
	now := f.Now()
	n := 0
	for _, t := range f.Tickers() {
		if t.Fire(now) {
			n++
		}
	}
	return n
}

// FakeTicker is the clock.Ticker handed out by FakeClock.
type FakeTicker struct {
	Interval time.Duration

	c        chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
	mtx      sync.Mutex
	stops    int
}

func (t *FakeTicker) C() <-chan time.Time {
	return t.c
}

func (t *FakeTicker) Stop() {
	t.mtx.Lock()
	t.stops++
	t.mtx.Unlock()
	t.stopOnce.Do(func() {
		close(t.stopped)
	})
}

// Fire hands now to whoever is reading C. It returns false without
// delivering if the ticker is or becomes stopped.
func (t *FakeTicker) Fire(now time.Time) bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.c <- now:
		return true
	case <-t.stopped:
		return false
	}
}

// Stopped reports whether Stop has been called.
func (t *FakeTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// StopCount is the number of times Stop was called.
func (t *FakeTicker) StopCount() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.stops
}
