package stopwatch

import (
	"fmt"
	"time"

	"github.com/strrl/stopwatch/pkg/models"
)

// Ledger holds recorded laps newest first. Laps are kept in recording order
// internally so Record is an append.
type Ledger struct {
	laps []time.Duration
}

// Record prepends a lap.
func (l *Ledger) Record(d time.Duration) {
	l.laps = append(l.laps, d)
}

// Clear drops every lap.
func (l *Ledger) Clear() {
	l.laps = nil
}

func (l *Ledger) Count() int {
	return len(l.laps)
}

// At returns the lap at index i, where 0 is the newest.
func (l *Ledger) At(i int) (time.Duration, error) {
	if i < 0 || i >= len(l.laps) {
		return 0, fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, i, len(l.laps))
	}
	return l.laps[len(l.laps)-1-i], nil
}

// Label is the number shown next to the lap at index i. The oldest lap is
// always 1.
func (l *Ledger) Label(i int) int {
	return len(l.laps) - i
}

// Entries snapshots the ledger, newest first, labelled and formatted.
func (l *Ledger) Entries() []models.LapEntry {
	entries := make([]models.LapEntry, len(l.laps))
	for i := range entries {
		d := l.laps[len(l.laps)-1-i]
		entries[i] = models.LapEntry{
			Label:   l.Label(i),
			Elapsed: d,
			Display: Format(d),
		}
	}
	return entries
}
