//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package state tracks which batch dates the pipeline has processed,
// enabling idempotent incremental runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rampworks/rampgen/internal/logging"
)

const dateLayout = "2006-01-02"

// record is the on-disk state document.
type record struct {
	LastRunDate      string `json:"last_run_date"`
	LastRunTimestamp string `json:"last_run_timestamp"`
}

// Tracker persists and computes the pipeline's batch-date state.
//
// A missing, unreadable, or malformed state file is treated as "never
// run" rather than an error. The pipeline is designed to be re-run by an
// operator, so corrupt state self-heals by reprocessing from the start
// of the history window instead of wedging the pipeline.
type Tracker struct {
	path        string
	historyDays int

	// now is the clock; overridable in tests.
	now func() time.Time
}

// New creates a Tracker persisting to path. historyDays is how far back
// the first batch starts when no prior state exists.
func New(path string, historyDays int) *Tracker {
	return &Tracker{
		path:        path,
		historyDays: historyDays,
		now:         time.Now,
	}
}

// LastProcessedDate returns the most recently committed batch date.
// The second return value is false if no batch has ever been committed
// (including when the state file is corrupt).
func (t *Tracker) LastProcessedDate() (time.Time, bool) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return time.Time{}, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.Warn().
			Str("path", t.path).
			Err(err).
			Msg("State file unreadable, treating as first run")
		return time.Time{}, false
	}

	date, err := time.ParseInLocation(dateLayout, rec.LastRunDate, time.UTC)
	if err != nil {
		logging.Warn().
			Str("path", t.path).
			Str("last_run_date", rec.LastRunDate).
			Msg("State file has malformed date, treating as first run")
		return time.Time{}, false
	}

	return date, true
}

// NextBatchDate returns the calendar day the next batch should
// materialize. The second return value is false when the pipeline is
// caught up (the next day would be in the future). "Today" is
// re-evaluated on every call, so a run crossing midnight neither skips
// a day nor reprocesses one.
func (t *Tracker) NextBatchDate() (time.Time, bool) {
	today := dateOf(t.now())

	last, ok := t.LastProcessedDate()
	if !ok {
		return today.AddDate(0, 0, -t.historyDays), true
	}

	next := last.AddDate(0, 0, 1)
	if next.After(today) {
		return time.Time{}, false
	}
	return next, true
}

// Commit durably records date as the last processed batch date together
// with a wall-clock audit timestamp. Callers must invoke Commit only
// after the batch has been written to the warehouse; state advances
// strictly after the write succeeds.
func (t *Tracker) Commit(date time.Time) error {
	rec := record{
		LastRunDate:      date.Format(dateLayout),
		LastRunTimestamp: t.now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write-then-rename so a crash mid-write cannot leave a truncated
	// state file behind.
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	logging.Debug().
		Str("path", t.path).
		Str("last_run_date", rec.LastRunDate).
		Msg("Committed batch state")

	return nil
}

// dateOf truncates an instant to its calendar day in UTC.
func dateOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
