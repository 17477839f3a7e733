package models

import "time"

// LapEntry is one row of the lap ledger as the presentation layer sees it
type LapEntry struct {
	Label   int           // 1 for the oldest lap, Count for the newest
	Elapsed time.Duration // Total elapsed time when the lap was taken
	Display string        // Elapsed formatted as MM:SS.CC
}

// Split is the time between a lap and the one before it
type Split struct {
	Label int
	Split time.Duration
}

// LapSummary aggregates the splits of the current run
type LapSummary struct {
	RunID        string
	Count        int
	FastestLabel int
	Fastest      time.Duration
	SlowestLabel int
	Slowest      time.Duration
	Average      time.Duration
}
