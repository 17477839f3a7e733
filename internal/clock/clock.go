// Package clock abstracts the wall clock and periodic tickers so the
// stopwatch can be driven deterministically in tests.
package clock

import "time"

// Clock provides the current instant and periodic tickers.
type Clock interface {
	// Now returns the current time. Real implementations carry a monotonic
	// reading so differences are immune to wall clock changes.
	Now() time.Time
	// NewTicker returns a Ticker delivering the time every d.
	NewTicker(d time.Duration) Ticker
}

// Ticker is a cancellable periodic source of ticks.
type Ticker interface {
	// C returns the channel ticks are delivered on.
	C() <-chan time.Time
	// Stop turns the ticker off. A tick already in flight may still be
	// readable from C.
	Stop()
}

// Real implements Clock with the time package.
type Real struct{}

var _ Clock = Real{}

// Now returns time.Now.
func (Real) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
func (Real) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *realTicker) Stop() {
	t.ticker.Stop()
}
