// Package queue is a durable priority retry queue: a persistent table
// indexed by (priority DESC, next_retry_at ASC), with exponential
// backoff on failure and two-phase (drain, then periodic) background
// processing.
package queue

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pure2p/internal/model"
)

// Queue owns its own sqlite file, independent of the main store,
// opened the same way store.Store opens its file.
type Queue struct {
	db *sqlx.DB
}

func Open(path string) (*Queue, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, model.NewError(model.KindQueue, "opening queue store", err)
	}
	q := &Queue{db: db}
	if err := q.init(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func OpenInMemory() (*Queue, error) {
	db, err := sqlx.Connect("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		return nil, model.NewError(model.KindQueue, "opening in-memory queue store", err)
	}
	q := &Queue{db: db}
	if err := q.init(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}

func (q *Queue) init() error {
	_, err := q.db.Exec(`CREATE TABLE IF NOT EXISTS queue_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_uid TEXT NOT NULL,
		message_type TEXT NOT NULL,
		payload BLOB NOT NULL DEFAULT '',
		priority INTEGER NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_retry_at INTEGER NOT NULL,
		last_attempt_at INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return model.NewError(model.KindQueue, "creating queue schema", err)
	}

	_, err = q.db.Exec(`CREATE INDEX IF NOT EXISTS idx_queue_priority_retry
		ON queue_entries(priority DESC, next_retry_at ASC)`)
	if err != nil {
		return model.NewError(model.KindQueue, "creating queue index", err)
	}
	return nil
}

// Enqueue inserts a new durable entry due immediately and returns its id.
func (q *Queue) Enqueue(targetUID string, msgType model.MessageType, payload []byte, priority model.Priority) (int64, error) {
	now := model.NowMillis()
	res, err := q.db.Exec(`INSERT INTO queue_entries
		(target_uid, message_type, payload, priority, attempts, next_retry_at, last_attempt_at, created_at)
		VALUES (?, ?, ?, ?, 0, ?, 0, ?)`,
		targetUID, msgType, payload, priority, now, now)
	if err != nil {
		return 0, model.NewError(model.KindQueue, "enqueueing entry", err)
	}
	return res.LastInsertId()
}

// FetchDue returns entries whose next_retry_at has arrived, ordered by
// priority (highest first) then next_retry_at.
func (q *Queue) FetchDue(nowMillis int64) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := q.db.Select(&entries, `SELECT id, target_uid, message_type, payload, priority,
		attempts, next_retry_at, last_attempt_at, created_at
		FROM queue_entries WHERE next_retry_at <= ?
		ORDER BY priority DESC, next_retry_at ASC`, nowMillis)
	if err != nil {
		return nil, model.NewError(model.KindQueue, "fetching due entries", err)
	}
	return entries, nil
}

// FetchAllPending returns every row irrespective of due time; used by
// the retry worker's startup drain phase.
func (q *Queue) FetchAllPending() ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := q.db.Select(&entries, `SELECT id, target_uid, message_type, payload, priority,
		attempts, next_retry_at, last_attempt_at, created_at
		FROM queue_entries ORDER BY priority DESC, next_retry_at ASC`)
	if err != nil {
		return nil, model.NewError(model.KindQueue, "fetching pending entries", err)
	}
	return entries, nil
}

func (q *Queue) MarkDelivered(id int64) error {
	_, err := q.db.Exec(`DELETE FROM queue_entries WHERE id = ?`, id)
	if err != nil {
		return model.NewError(model.KindQueue, "marking entry delivered", err)
	}
	return nil
}

// MarkFailed increments attempts; once attempts exceeds maxRetries the
// row is deleted, otherwise next_retry_at is pushed out by
// base_delay_ms * 2^(attempts-1).
func (q *Queue) MarkFailed(id int64, maxRetries int, baseDelayMillis int) error {
	var entry model.QueueEntry
	err := q.db.Get(&entry, `SELECT id, target_uid, message_type, payload, priority,
		attempts, next_retry_at, last_attempt_at, created_at FROM queue_entries WHERE id = ?`, id)
	if err != nil {
		return model.NewError(model.KindQueue, "loading entry to mark failed", err)
	}

	now := model.NowMillis()
	attempts := entry.Attempts + 1

	if attempts > maxRetries {
		_, err := q.db.Exec(`DELETE FROM queue_entries WHERE id = ?`, id)
		if err != nil {
			return model.NewError(model.KindQueue, "dropping exhausted entry", err)
		}
		return nil
	}

	nextRetryAt := now + model.NextRetryDelayMillis(baseDelayMillis, attempts)

	_, err = q.db.Exec(`UPDATE queue_entries SET attempts = ?, next_retry_at = ?, last_attempt_at = ? WHERE id = ?`,
		attempts, nextRetryAt, now, id)
	if err != nil {
		return model.NewError(model.KindQueue, "rescheduling entry", err)
	}
	return nil
}

// PendingContactUIDs returns the distinct target UIDs with any pending
// row, driving the chat has_pending_messages invariant.
func (q *Queue) PendingContactUIDs() ([]string, error) {
	var uids []string
	err := q.db.Select(&uids, `SELECT DISTINCT target_uid FROM queue_entries`)
	if err != nil {
		return nil, model.NewError(model.KindQueue, "listing pending contact uids", err)
	}
	return uids, nil
}

// HasPending reports whether targetUID has any queued entry, the
// predicate behind chat.has_pending_messages.
func (q *Queue) HasPending(targetUID string) (bool, error) {
	var count int
	err := q.db.Get(&count, `SELECT COUNT(*) FROM queue_entries WHERE target_uid = ?`, targetUID)
	if err != nil {
		return false, model.NewError(model.KindQueue, "checking pending entries", err)
	}
	return count > 0, nil
}
