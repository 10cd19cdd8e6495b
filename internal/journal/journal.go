// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package journal provides a durable feedback journal backed by BadgerDB.
//
// Feedback submissions are appended to the journal before the DuckDB insert
// and confirmed after it commits, so a database hiccup or process crash never
// loses a training signal. Pending (unconfirmed) entries are replayed by a
// supervised background loop; entries that keep failing are parked for
// operator attention instead of being discarded.
//
// The journal stores payloads as raw JSON bytes, making it agnostic to the
// event type. Replay must be idempotent on the consumer side: feedback
// payloads carry their interaction ID, and the interactions table ignores
// duplicate IDs, so applying the same entry twice is harmless.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
)

// Journal is the durable write-ahead journal for feedback signals.
type Journal interface {
	// Write persists an event before the database insert. The event is
	// serialized to JSON and stored. Returns an entry ID for later
	// confirmation.
	Write(ctx context.Context, event any) (entryID string, err error)

	// Confirm marks an entry as applied to the database and removes it.
	// Confirming an entry that no longer exists returns ErrEntryNotFound;
	// callers racing the replay loop should treat that as already applied.
	Confirm(ctx context.Context, entryID string) error

	// Pending returns all unconfirmed entries, used on startup recovery
	// and by the replay loop.
	Pending(ctx context.Context) ([]*Entry, error)

	// Stats returns journal counters for monitoring.
	Stats() Stats

	// Close shuts the journal down.
	Close() error
}

// Entry is a single journaled event with its retry metadata.
type Entry struct {
	// ID is the unique identifier for this journal entry.
	ID string `json:"id"`

	// Payload is the serialized event (JSON). Use UnmarshalPayload to
	// deserialize into a concrete type.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`

	// Attempts is the number of replay attempts so far.
	Attempts int `json:"attempts"`

	// LastAttemptAt is the time of the last replay attempt.
	LastAttemptAt time.Time `json:"last_attempt_at,omitempty"`

	// LastError is the error message from the last failed attempt.
	LastError string `json:"last_error,omitempty"`

	// ParkedAt is set when the entry exceeded its retry budget and was
	// moved aside for operator attention.
	ParkedAt *time.Time `json:"parked_at,omitempty"`
}

// UnmarshalPayload deserializes the payload into the given type.
func (e *Entry) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Stats contains journal counters for monitoring.
type Stats struct {
	// PendingCount is the number of unconfirmed entries.
	PendingCount int64

	// ParkedCount is the number of entries that exceeded their retry
	// budget and await operator attention.
	ParkedCount int64

	// TotalWrites is the total number of Write operations.
	TotalWrites int64

	// TotalConfirms is the total number of Confirm operations.
	TotalConfirms int64

	// TotalReplays is the total number of replay attempts recorded.
	TotalReplays int64

	// DBSizeBytes is the estimated on-disk size.
	DBSizeBytes int64
}

// Key prefixes for the two entry states.
const (
	prefixPending = "pending:"
	prefixParked  = "parked:"
)

const (
	closeTimeout = 30 * time.Second
	gcRatio      = 0.5
)

// Errors returned by journal operations.
var (
	// ErrJournalClosed is returned after Close.
	ErrJournalClosed = errors.New("journal is closed")

	// ErrNilEvent is returned when a nil event is passed to Write.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrEmptyEntryID is returned when an empty entry ID is provided.
	ErrEmptyEntryID = errors.New("entry ID cannot be empty")

	// ErrEntryNotFound is returned when an entry does not exist.
	ErrEntryNotFound = errors.New("journal entry not found")
)

// BadgerJournal implements Journal on BadgerDB.
//
// The processing map prevents the replay loop and the synchronous feedback
// path from working on the same entry at once. The claim is in-memory only:
// the service runs a single process, and a crash releases all claims by
// definition.
type BadgerJournal struct {
	db  *badger.DB
	cfg config.JournalConfig

	totalWrites   atomic.Int64
	totalConfirms atomic.Int64
	totalReplays  atomic.Int64

	mu     sync.RWMutex
	closed bool

	processing sync.Map
}

// Open creates or reopens the journal at the configured path.
func Open(cfg *config.JournalConfig) (*BadgerJournal, error) {
	if cfg.Path == "" {
		return nil, errors.New("journal path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	j := &BadgerJournal{
		db:  db,
		cfg: *cfg,
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Feedback journal opened")
	return j, nil
}

// Write persists an event to the journal before the database insert.
// The event can be any JSON-serializable type.
func (j *BadgerJournal) Write(ctx context.Context, event any) (_ string, err error) {
	defer func() { metrics.RecordJournalWrite(err) }()

	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return "", ErrJournalClosed
	}
	j.mu.RUnlock()

	if event == nil {
		return "", ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	entry := &Entry{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	key := []byte(prefixPending + entry.ID)
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("write to badger: %w", err)
	}

	j.totalWrites.Add(1)
	return entry.ID, nil
}

// Confirm removes a pending entry after its database insert committed.
// The database row is the durable record from that point on, so the journal
// does not keep an applied copy.
func (j *BadgerJournal) Confirm(ctx context.Context, entryID string) error {
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return ErrJournalClosed
	}
	j.mu.RUnlock()

	if entryID == "" {
		return ErrEmptyEntryID
	}

	key := []byte(prefixPending + entryID)
	err := j.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		} else if err != nil {
			return fmt.Errorf("get pending entry: %w", err)
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	j.totalConfirms.Add(1)
	return nil
}

// Pending returns all unconfirmed entries.
//
// Badger's View transaction gives snapshot isolation, so the returned slice
// is a consistent point-in-time view even under concurrent writes.
func (j *BadgerJournal) Pending(ctx context.Context) ([]*Entry, error) {
	return j.listPrefix(ctx, prefixPending)
}

// Parked returns entries that exceeded their retry budget.
func (j *BadgerJournal) Parked(ctx context.Context) ([]*Entry, error) {
	return j.listPrefix(ctx, prefixParked)
}

func (j *BadgerJournal) listPrefix(ctx context.Context, prefix string) ([]*Entry, error) {
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return nil, ErrJournalClosed
	}
	j.mu.RUnlock()

	var entries []*Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Journal failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate %s entries: %w", prefix, err)
	}
	return entries, nil
}

// RecordAttempt updates an entry's attempt count and last error after a
// failed replay.
func (j *BadgerJournal) RecordAttempt(ctx context.Context, entryID, cause string) error {
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return ErrJournalClosed
	}
	j.mu.RUnlock()

	key := []byte(prefixPending + entryID)
	err := j.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		entry.LastError = cause

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	j.totalReplays.Add(1)
	return nil
}

// Park moves an entry out of the retry path after it exhausted its retry
// budget. The payload is kept under the parked prefix so an operator can
// inspect or re-submit it.
func (j *BadgerJournal) Park(ctx context.Context, entryID string) error {
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return ErrJournalClosed
	}
	j.mu.RUnlock()

	pendingKey := []byte(prefixPending + entryID)
	parkedKey := []byte(prefixParked + entryID)

	return j.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pendingKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get pending entry: %w", err)
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		now := time.Now().UTC()
		entry.ParkedAt = &now

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal parked entry: %w", err)
		}
		if err := txn.Set(parkedKey, data); err != nil {
			return fmt.Errorf("set parked entry: %w", err)
		}
		return txn.Delete(pendingKey)
	})
}

// TryClaim attempts to claim exclusive processing rights for an entry.
// Returns false if another goroutine is already working on it. The caller
// must call Release when done, typically via defer.
func (j *BadgerJournal) TryClaim(entryID string) bool {
	_, alreadyClaimed := j.processing.LoadOrStore(entryID, time.Now())
	return !alreadyClaimed
}

// Release releases the processing claim on an entry.
func (j *BadgerJournal) Release(entryID string) {
	j.processing.Delete(entryID)
}

// Stats returns current journal counters and refreshes the backlog gauge.
func (j *BadgerJournal) Stats() Stats {
	j.mu.RLock()
	closed := j.closed
	j.mu.RUnlock()
	if closed {
		return Stats{}
	}

	var pendingCount, parkedCount int64
	if err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		pendingPrefix := []byte(prefixPending)
		for it.Seek(pendingPrefix); it.ValidForPrefix(pendingPrefix); it.Next() {
			pendingCount++
		}
		parkedPrefix := []byte(prefixParked)
		for it.Seek(parkedPrefix); it.ValidForPrefix(parkedPrefix); it.Next() {
			parkedCount++
		}
		return nil
	}); err != nil {
		logging.Warn().Err(err).Msg("Journal stats failed to count entries")
	}

	lsm, vlog := j.db.Size()

	metrics.SetJournalPending(int(pendingCount))

	return Stats{
		PendingCount:  pendingCount,
		ParkedCount:   parkedCount,
		TotalWrites:   j.totalWrites.Load(),
		TotalConfirms: j.totalConfirms.Load(),
		TotalReplays:  j.totalReplays.Load(),
		DBSizeBytes:   lsm + vlog,
	}
}

// RunGC triggers Badger value-log garbage collection, looping until no
// further rewrite is possible.
func (j *BadgerJournal) RunGC() error {
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return ErrJournalClosed
	}
	j.mu.RUnlock()

	for {
		err := j.db.RunValueLogGC(gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close shuts the journal down, bounding the Badger close so shutdown can
// never hang indefinitely.
func (j *BadgerJournal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- j.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close badger: %w", err)
		}
		logging.Info().Msg("Feedback journal closed")
		return nil
	case <-time.After(closeTimeout):
		logging.Warn().Dur("timeout", closeTimeout).Msg("Badger close timed out")
		return fmt.Errorf("badger close timeout after %v", closeTimeout)
	}
}

// Config returns the journal configuration.
func (j *BadgerJournal) Config() config.JournalConfig {
	return j.cfg
}

// Ensure interface compliance.
var _ Journal = (*BadgerJournal)(nil)
