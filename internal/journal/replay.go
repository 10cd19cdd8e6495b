// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
)

// Sink applies a journaled entry to durable storage. Apply must be
// idempotent: an entry can be replayed after a crash that happened between
// the database commit and the journal confirmation.
type Sink interface {
	Apply(ctx context.Context, entry *Entry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, entry *Entry) error

// Apply calls f(ctx, entry).
func (f SinkFunc) Apply(ctx context.Context, entry *Entry) error {
	return f(ctx, entry)
}

const applyTimeout = 10 * time.Second

// ReplayLoop drains pending journal entries in the background.
//
// Each sweep gives every due entry one replay attempt; the sweep interval is
// the effective backoff. Entries younger than one interval are skipped
// because the synchronous feedback path is usually still working on them.
type ReplayLoop struct {
	journal *BadgerJournal
	sink    Sink
	cfg     config.JournalConfig

	ctx    context.Context
	cancel context.CancelFunc

	// State - all protected by mu
	mu       sync.Mutex
	running  bool
	stopping bool          // true while Stop() is waiting for the goroutine
	stopDone chan struct{} // closed when the goroutine exits
}

// NewReplayLoop creates a replay loop over the given journal and sink.
// Zero-valued intervals fall back to safe defaults so the tickers cannot
// be armed with a non-positive duration.
func NewReplayLoop(j *BadgerJournal, sink Sink) *ReplayLoop {
	cfg := j.Config()
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 5 * time.Minute
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 5
	}
	return &ReplayLoop{
		journal: j,
		sink:    sink,
		cfg:     cfg,
	}
}

// Start begins the background replay loop. It drains once immediately so a
// crash backlog is applied before the first tick, then runs until Stop is
// called or the context is canceled.
func (r *ReplayLoop) Start(ctx context.Context) error {
	r.mu.Lock()

	// Wait for any in-progress Stop() to complete
	for r.stopping {
		stopDone := r.stopDone
		r.mu.Unlock()
		<-stopDone
		r.mu.Lock()
	}

	if r.running {
		r.mu.Unlock()
		return nil
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.stopDone = make(chan struct{})

	// Capture context and done channel to avoid races with Stop
	loopCtx := r.ctx
	done := r.stopDone

	r.mu.Unlock()

	go r.run(loopCtx, done)

	logging.Info().
		Dur("interval", r.cfg.RetryInterval).
		Int("max_retries", r.cfg.MaxRetries).
		Msg("Journal replay loop started")
	return nil
}

// Stop gracefully stops the replay loop.
func (r *ReplayLoop) Stop() {
	r.mu.Lock()
	if !r.running || r.stopping {
		r.mu.Unlock()
		return
	}

	r.cancel()
	r.running = false
	r.stopping = true
	stopDone := r.stopDone
	r.mu.Unlock()

	<-stopDone

	r.mu.Lock()
	r.stopping = false
	r.mu.Unlock()

	logging.Info().Msg("Journal replay loop stopped")
}

// IsRunning returns whether the replay loop is active.
func (r *ReplayLoop) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *ReplayLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	r.Drain(ctx)

	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	gcTicker := time.NewTicker(r.cfg.GCInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		case <-gcTicker.C:
			if err := r.journal.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Journal GC failed")
			}
		}
	}
}

// replayResult tracks the outcome of processing a single entry.
type replayResult int

const (
	replayApplied replayResult = iota
	replayFailed
	replayParked
	replaySkipped
)

// Drain gives every due pending entry one replay attempt. Exported so
// startup recovery and tests can trigger a sweep directly.
func (r *ReplayLoop) Drain(ctx context.Context) {
	entries, err := r.journal.Pending(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Journal replay: failed to list pending entries")
		return
	}
	if len(entries) == 0 {
		return
	}

	logging.Info().Int("pending_entries", len(entries)).Msg("Journal replay: processing pending entries")

	var applied, failed, parked int
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch r.processEntry(ctx, entry) {
		case replayApplied:
			applied++
		case replayFailed:
			failed++
		case replayParked:
			parked++
		}
	}

	if applied > 0 || failed > 0 || parked > 0 {
		logging.Info().
			Int("applied", applied).
			Int("failed", failed).
			Int("parked", parked).
			Msg("Journal replay sweep complete")
	}

	// Refreshes the backlog gauge.
	r.journal.Stats()
}

func (r *ReplayLoop) processEntry(ctx context.Context, entry *Entry) replayResult {
	if !r.journal.TryClaim(entry.ID) {
		return replaySkipped
	}
	defer r.journal.Release(entry.ID)

	// The synchronous path confirms fresh entries itself; one interval of
	// grace avoids double-applying an insert that is still in flight.
	if time.Since(entry.CreatedAt) < r.cfg.RetryInterval {
		return replaySkipped
	}

	if entry.Attempts >= r.cfg.MaxRetries {
		return r.parkEntry(ctx, entry)
	}

	return r.attemptApply(ctx, entry)
}

func (r *ReplayLoop) parkEntry(ctx context.Context, entry *Entry) replayResult {
	logging.Warn().
		Str("entry_id", entry.ID).
		Int("attempts", entry.Attempts).
		Str("last_error", entry.LastError).
		Msg("Journal replay: entry exceeded retry budget, parking")
	if err := r.journal.Park(ctx, entry.ID); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Journal replay: failed to park entry")
		return replayFailed
	}
	metrics.RecordJournalReplay("parked")
	return replayParked
}

func (r *ReplayLoop) attemptApply(ctx context.Context, entry *Entry) replayResult {
	applyCtx, cancel := context.WithTimeout(ctx, applyTimeout)
	err := r.sink.Apply(applyCtx, entry)
	cancel()

	if err != nil {
		logging.Error().
			Err(err).
			Str("entry_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("Journal replay: failed to apply entry")
		if updateErr := r.journal.RecordAttempt(ctx, entry.ID, err.Error()); updateErr != nil {
			logging.Error().Err(updateErr).Str("entry_id", entry.ID).Msg("Journal replay: failed to record attempt")
		}
		metrics.RecordJournalReplay("failed")
		return replayFailed
	}

	// The apply committed; a missing entry here means the synchronous path
	// confirmed concurrently, which is the same outcome.
	if err := r.journal.Confirm(ctx, entry.ID); err != nil && !errors.Is(err, ErrEntryNotFound) {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Journal replay: failed to confirm entry")
		return replayFailed
	}
	metrics.RecordJournalReplay("applied")
	return replayApplied
}
