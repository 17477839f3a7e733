// Package laplog mirrors the lap ledger into an in-memory DuckDB table and
// answers split statistics over it.
package laplog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/strrl/stopwatch/pkg/models"
)

// ErrClosed is returned by queries made after Close.
var ErrClosed = errors.New("lap recorder closed")

const writeTimeout = 5 * time.Second

type requestKind int

const (
	requestSync requestKind = iota
	requestClear
	requestSummary
	requestSplits
)

// request is one unit of work for the processing goroutine
type request struct {
	kind    requestKind
	runID   string
	entries []models.LapEntry
	ctx     context.Context
	reply   chan result
}

type result struct {
	summary models.LapSummary
	splits  []models.Split
	err     error
}

// Recorder serializes ledger writes and statistics queries on a single
// goroutine, so a query always observes every change observed before it.
type Recorder struct {
	db        *sql.DB
	logger    *slog.Logger
	requests  chan request
	done      chan struct{}
	mu        sync.RWMutex
	runID     string
	closed    bool
	closeOnce sync.Once
}

// NewRecorder creates the laps table if needed and starts processing.
func NewRecorder(db *sql.DB, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, err := db.Exec(createLapsTable); err != nil {
		return nil, fmt.Errorf("failed to create laps table: %w", err)
	}

	r := &Recorder{
		db:       db,
		logger:   logger,
		requests: make(chan request, 64),
		done:     make(chan struct{}),
		runID:    uuid.NewString(),
	}
	go r.processRequests()
	return r, nil
}

// RunID identifies the laps recorded since the last clear.
func (r *Recorder) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// Observe takes a ledger snapshot. An empty snapshot ends the current run and
// starts a new one. It has the shape of a stopwatch ledger handler.
func (r *Recorder) Observe(entries []models.LapEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if len(entries) == 0 {
		old := r.runID
		r.runID = uuid.NewString()
		r.requests <- request{kind: requestClear, runID: old}
		return
	}

	snapshot := make([]models.LapEntry, len(entries))
	copy(snapshot, entries)
	r.requests <- request{kind: requestSync, runID: r.runID, entries: snapshot}
}

// Summary aggregates the splits of the current run.
func (r *Recorder) Summary(ctx context.Context) (models.LapSummary, error) {
	res, err := r.submit(ctx, requestSummary)
	if err != nil {
		return models.LapSummary{}, err
	}
	return res.summary, nil
}

// Splits lists the splits of the current run, newest first.
func (r *Recorder) Splits(ctx context.Context) ([]models.Split, error) {
	res, err := r.submit(ctx, requestSplits)
	if err != nil {
		return nil, err
	}
	return res.splits, nil
}

// Close drains pending writes and stops the processing goroutine.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.requests)
		r.mu.Unlock()
	})
	<-r.done
}

func (r *Recorder) submit(ctx context.Context, kind requestKind) (result, error) {
	req := request{
		kind:  kind,
		ctx:   ctx,
		reply: make(chan result, 1),
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return result{}, ErrClosed
	}
	req.runID = r.runID
	select {
	case r.requests <- req:
	case <-ctx.Done():
		r.mu.RUnlock()
		return result{}, ctx.Err()
	}
	r.mu.RUnlock()

	select {
	case res := <-req.reply:
		return res, res.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (r *Recorder) processRequests() {
	defer close(r.done)
	for req := range r.requests {
		r.handleRequest(req)
	}
}

func (r *Recorder) handleRequest(req request) {
	switch req.kind {
	case requestSync, requestClear:
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.write(ctx, req); err != nil {
			r.logger.Error("lap log write failed", "run", req.runID, "err", err)
		}

	case requestSummary:
		// Don't run queries nobody is waiting for
		if err := req.ctx.Err(); err != nil {
			req.reply <- result{err: err}
			return
		}
		summary, err := r.querySummary(req.ctx, req.runID)
		req.reply <- result{summary: summary, err: err}

	case requestSplits:
		if err := req.ctx.Err(); err != nil {
			req.reply <- result{err: err}
			return
		}
		splits, err := r.querySplits(req.ctx, req.runID)
		req.reply <- result{splits: splits, err: err}
	}
}

// write replaces the stored laps of a run with the request's snapshot.
func (r *Recorder) write(ctx context.Context, req request) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteRunLaps, req.runID); err != nil {
		return fmt.Errorf("failed to delete laps: %w", err)
	}

	if len(req.entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertLap)
		if err != nil {
			return fmt.Errorf("failed to prepare lap insert: %w", err)
		}
		defer stmt.Close()

		for _, entry := range req.entries {
			if _, err := stmt.ExecContext(ctx, req.runID, entry.Label, int64(entry.Elapsed)); err != nil {
				return fmt.Errorf("failed to insert lap %d: %w", entry.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit laps: %w", err)
	}

	r.logger.Debug("lap log synced", "run", req.runID, "laps", len(req.entries))
	return nil
}

func (r *Recorder) querySummary(ctx context.Context, runID string) (models.LapSummary, error) {
	summary := models.LapSummary{RunID: runID}
	var count, fastestLabel, slowestLabel, fastest, slowest, average int64

	err := r.db.QueryRowContext(ctx, summaryQuery, runID).Scan(
		&count, &fastestLabel, &fastest, &slowestLabel, &slowest, &average,
	)
	if err != nil {
		return summary, fmt.Errorf("failed to execute summary query: %w", err)
	}

	summary.Count = int(count)
	summary.FastestLabel = int(fastestLabel)
	summary.Fastest = time.Duration(fastest)
	summary.SlowestLabel = int(slowestLabel)
	summary.Slowest = time.Duration(slowest)
	summary.Average = time.Duration(average)
	return summary, nil
}

func (r *Recorder) querySplits(ctx context.Context, runID string) ([]models.Split, error) {
	rows, err := r.db.QueryContext(ctx, splitsQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute splits query: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var label, split int64
		if err := rows.Scan(&label, &split); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, models.Split{Label: int(label), Split: time.Duration(split)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read splits: %w", err)
	}
	return splits, nil
}
