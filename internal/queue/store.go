// Package queue provides the durable priority queue of pending actions.
//
// Every state transition happens here, as a guarded UPDATE that names the
// expected current status, so no two workers can finish the same claim and
// a crash mid-execution leaves a row that startup recovery can see.
//
// Storage is backed by a SQLite database at ~/.config/occ/occ.db
// (or the platform-equivalent path returned by os.UserConfigDir).
package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/database"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"
)

// schemaVersion is written to PRAGMA user_version on migrate and stamped
// into exported snapshots.
const schemaVersion = 1

// claimBatch bounds how many pending candidates a single ClaimNext scans
// before giving up the round.
const claimBatch = 8

// Store defines the persistence interface for queued actions.
type Store interface {
	// Enqueue persists a new pending action. The insert is committed
	// before Enqueue returns; the returned record carries the assigned ID.
	Enqueue(res domain.ReasoningResult, priority int) (*Action, error)

	// ClaimNext atomically moves the most urgent eligible pending action
	// to executing and returns it. Eligible means status pending and
	// target not in excluded. Order is priority ascending, then arrival.
	// Returns (nil, nil) when nothing is eligible. No two concurrent
	// calls return the same action.
	ClaimNext(excluded []string) (*Action, error)

	// Release returns a claimed action to pending without charging an
	// attempt. Used when the rate-limit gate closed between claim and
	// dispatch.
	Release(id string) error

	// MarkCompleted finishes a claimed action successfully: status
	// completed, attempts incremented, ExecutedAt set.
	MarkCompleted(id string) error

	// Requeue returns a claimed action to pending after a failed
	// attempt: attempts incremented, LastError set, priority untouched.
	Requeue(id string, errMsg string) error

	// MarkFailed finishes a claimed action as failed: attempts
	// incremented, ExecutedAt set, LastError set.
	MarkFailed(id string, errMsg string) error

	// MarkFailedFatal finishes a claimed action as failed without
	// charging an attempt. Used for unmapped or invalid actions where
	// no executor was ever invoked.
	MarkFailedFatal(id string, errMsg string) error

	// RecoverInterrupted returns every executing action to pending with
	// attempts untouched. Run once at daemon startup; rows still marked
	// executing at that point belong to a previous crashed run.
	RecoverInterrupted() (int64, error)

	// Get retrieves a single action by ID. A missing ID wraps
	// domain.ErrNotFound.
	Get(id string) (*Action, error)

	// List returns actions filtered by status ("" for all), newest
	// first, at most limit rows (0 for no cap).
	List(status string, limit int) ([]Action, error)

	// Remove deletes a pending action. Claimed or finished actions
	// cannot be removed; a missing ID wraps domain.ErrNotFound.
	Remove(id string) error

	// DeleteTerminalOlderThan removes completed/failed records whose
	// terminal time is older than d. Returns the number removed.
	DeleteTerminalOlderThan(d time.Duration) (int64, error)

	// Stats summarizes the queue.
	Stats() (*Stats, error)

	// Export returns a snapshot of every action for backup.
	Export() (*Snapshot, error)

	// Arrivals signals after each successful Enqueue from this process.
	// Cross-process enqueues are picked up by the orchestrator's poll
	// interval instead.
	Arrivals() <-chan struct{}

	// Close releases database resources.
	Close() error
}

// SQLiteStore implements Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// mu serializes claims within this process so the candidate scan and
	// the guarded UPDATE act as one step. Cross-process claimers are
	// handled by the UPDATE's status guard alone.
	mu sync.Mutex

	arrivals chan struct{}
}

// Open creates or opens the queue store at the default database path.
func Open() (*SQLiteStore, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens the queue store at the given path. The database
// integrity check runs before migration; a corrupt store is fatal.
func OpenAt(path string) (*SQLiteStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}

	if err := database.Verify(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("queue: %w", err)
	}

	s := &SQLiteStore{db: db, arrivals: make(chan struct{}, 1)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the actions table if it doesn't exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS actions (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT    NOT NULL UNIQUE,
			action          TEXT    NOT NULL,
			target          TEXT    NOT NULL,
			params          TEXT    NOT NULL DEFAULT '{}',
			confidence      REAL    NOT NULL DEFAULT 0,
			correlation_id  TEXT    NOT NULL DEFAULT '',
			metadata        TEXT    NOT NULL DEFAULT '{}',
			priority        INTEGER NOT NULL DEFAULT 3,
			status          TEXT    NOT NULL DEFAULT 'pending',
			attempts        INTEGER NOT NULL DEFAULT 0,
			last_error      TEXT    NOT NULL DEFAULT '',
			created_at      TEXT    NOT NULL,
			last_attempt_at TEXT    NOT NULL DEFAULT '',
			executed_at     TEXT    NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_actions_claim ON actions(status, priority, seq);
		CREATE INDEX IF NOT EXISTS idx_actions_target ON actions(target);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("queue: migration failed: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("queue: migration failed: %w", err)
	}
	return nil
}

const actionColumns = `seq, id, action, target, params, confidence, correlation_id,
	       metadata, priority, status, attempts, last_error, created_at,
	       last_attempt_at, executed_at`

// Enqueue persists a new pending action and signals arrival.
func (s *SQLiteStore) Enqueue(res domain.ReasoningResult, priority int) (*Action, error) {
	// Stored action/target values are compared literally against the rate
	// limiter's normalized keys in ClaimNext, so the store owns the
	// normalization rather than trusting every caller to do it.
	res.Action = util.NormalizeKey(res.Action)
	res.Target = util.NormalizeKey(res.Target)

	params, err := json.Marshal(orEmptyParams(res.Params))
	if err != nil {
		return nil, fmt.Errorf("queue: encode params failed: %w", err)
	}
	metadata, err := json.Marshal(orEmptyMeta(res.Metadata))
	if err != nil {
		return nil, fmt.Errorf("queue: encode metadata failed: %w", err)
	}

	act := &Action{
		ID:        uuid.NewString(),
		Result:    res,
		Priority:  ClampPriority(priority),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.db.Exec(`
		INSERT INTO actions (id, action, target, params, confidence, correlation_id, metadata, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		act.ID, res.Action, res.Target, string(params), res.Confidence, res.CorrelationID,
		string(metadata), act.Priority, act.Status, act.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("queue: insert failed: %w", err)
	}
	act.seq, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("queue: failed to get insert sequence: %w", err)
	}

	select {
	case s.arrivals <- struct{}{}:
	default:
	}
	return act, nil
}

// ClaimNext atomically claims the most urgent eligible pending action.
func (s *SQLiteStore) ClaimNext(excluded []string) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + actionColumns + ` FROM actions WHERE status = 'pending'`
	args := make([]any, 0, len(excluded)+1)
	if len(excluded) > 0 {
		query += ` AND target NOT IN (` + placeholders(len(excluded)) + `)`
		for _, t := range excluded {
			args = append(args, t)
		}
	}
	query += ` ORDER BY priority ASC, seq ASC LIMIT ?`
	args = append(args, claimBatch)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("queue: claim query failed: %w", err)
	}
	candidates, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range candidates {
		act := &candidates[i]
		result, err := s.db.Exec(`
			UPDATE actions SET status = ?, last_attempt_at = ?
			WHERE id = ? AND status = ?`,
			StatusExecuting, now.Format(time.RFC3339Nano), act.ID, StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("queue: claim update failed: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("queue: claim update failed: %w", err)
		}
		if n == 0 {
			// Another claimer won this row; try the next candidate.
			continue
		}
		act.Status = StatusExecuting
		act.LastAttemptAt = &now
		return act, nil
	}
	return nil, nil
}

// Release returns a claimed action to pending without charging an attempt.
func (s *SQLiteStore) Release(id string) error {
	return s.transition(id, "release", `
		UPDATE actions SET status = ? WHERE id = ? AND status = ?`,
		StatusPending, id, StatusExecuting)
}

// MarkCompleted finishes a claimed action successfully.
func (s *SQLiteStore) MarkCompleted(id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(id, "complete", `
		UPDATE actions SET status = ?, attempts = attempts + 1, executed_at = ?, last_error = ''
		WHERE id = ? AND status = ?`,
		StatusCompleted, now, id, StatusExecuting)
}

// Requeue returns a claimed action to pending after a failed attempt.
func (s *SQLiteStore) Requeue(id string, errMsg string) error {
	return s.transition(id, "requeue", `
		UPDATE actions SET status = ?, attempts = attempts + 1, last_error = ?
		WHERE id = ? AND status = ?`,
		StatusPending, errMsg, id, StatusExecuting)
}

// MarkFailed finishes a claimed action as failed.
func (s *SQLiteStore) MarkFailed(id string, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(id, "fail", `
		UPDATE actions SET status = ?, attempts = attempts + 1, executed_at = ?, last_error = ?
		WHERE id = ? AND status = ?`,
		StatusFailed, now, errMsg, id, StatusExecuting)
}

// MarkFailedFatal finishes a claimed action as failed without charging an
// attempt. No executor ran, so nothing was attempted.
func (s *SQLiteStore) MarkFailedFatal(id string, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(id, "fail", `
		UPDATE actions SET status = ?, executed_at = ?, last_error = ?
		WHERE id = ? AND status = ?`,
		StatusFailed, now, errMsg, id, StatusExecuting)
}

// transition runs a guarded status UPDATE and reports a useful error when
// the guard did not match.
func (s *SQLiteStore) transition(id, verb, query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("queue: %s failed: %w", verb, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue: %s failed: %w", verb, err)
	}
	if n == 0 {
		return fmt.Errorf("queue: %s failed: action %s is not executing", verb, id)
	}
	return nil
}

// RecoverInterrupted returns every executing action to pending. Attempts
// stay untouched; an interrupted dispatch never finished.
func (s *SQLiteStore) RecoverInterrupted() (int64, error) {
	result, err := s.db.Exec(`
		UPDATE actions SET status = ? WHERE status = ?`,
		StatusPending, StatusExecuting)
	if err != nil {
		return 0, fmt.Errorf("queue: recover failed: %w", err)
	}
	return result.RowsAffected()
}

// Get retrieves a single action by ID.
func (s *SQLiteStore) Get(id string) (*Action, error) {
	row := s.db.QueryRow(`
		SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)

	act, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("queue: action %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("queue: query failed: %w", err)
	}
	return act, nil
}

// List returns actions filtered by status, newest first.
func (s *SQLiteStore) List(status string, limit int) ([]Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("queue: query failed: %w", err)
	}
	return scanRows(rows)
}

// Remove deletes a pending action.
func (s *SQLiteStore) Remove(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM actions WHERE id = ? AND status = ?`, id, StatusPending)
	if err != nil {
		return fmt.Errorf("queue: remove failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue: remove failed: %w", err)
	}
	if n == 0 {
		act, getErr := s.Get(id)
		if getErr != nil {
			return getErr
		}
		if Terminal(act.Status) {
			return fmt.Errorf("queue: action %s already finished (%s)", id, act.Status)
		}
		return fmt.Errorf("queue: action %s is executing; wait for it to finish", id)
	}
	return nil
}

// DeleteTerminalOlderThan removes completed/failed records older than d.
func (s *SQLiteStore) DeleteTerminalOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := s.db.Exec(`
		DELETE FROM actions WHERE status IN (?, ?) AND executed_at != '' AND executed_at < ?`,
		StatusCompleted, StatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("queue: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Stats summarizes the queue.
func (s *SQLiteStore) Stats() (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM actions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue: stats query failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("queue: stats scan failed: %w", err)
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusExecuting:
			stats.Executing = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue: stats query failed: %w", err)
	}

	wait, err := s.avgWaitMs()
	if err != nil {
		return nil, err
	}
	stats.AvgWaitMs = wait

	oldest, err := s.oldestPending()
	if err != nil {
		return nil, err
	}
	if !oldest.IsZero() {
		stats.OldestPendingMs = time.Since(oldest).Milliseconds()
	}
	return stats, nil
}

func (s *SQLiteStore) avgWaitMs() (float64, error) {
	rows, err := s.db.Query(`
		SELECT created_at, executed_at FROM actions
		WHERE status IN (?, ?) AND executed_at != ''`,
		StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("queue: stats query failed: %w", err)
	}
	defer rows.Close()

	var total time.Duration
	var n int
	for rows.Next() {
		var createdStr, executedStr string
		if err := rows.Scan(&createdStr, &executedStr); err != nil {
			return 0, fmt.Errorf("queue: stats scan failed: %w", err)
		}
		created, err1 := time.Parse(time.RFC3339Nano, createdStr)
		executed, err2 := time.Parse(time.RFC3339Nano, executedStr)
		if err1 != nil || err2 != nil {
			continue
		}
		total += executed.Sub(created)
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("queue: stats query failed: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	return float64(total.Milliseconds()) / float64(n), nil
}

func (s *SQLiteStore) oldestPending() (time.Time, error) {
	row := s.db.QueryRow(`
		SELECT created_at FROM actions WHERE status = ? ORDER BY seq ASC LIMIT 1`,
		StatusPending)
	var createdStr string
	err := row.Scan(&createdStr)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("queue: stats query failed: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return time.Time{}, nil
	}
	return created, nil
}

// Arrivals signals after each successful Enqueue from this process.
func (s *SQLiteStore) Arrivals() <-chan struct{} {
	return s.arrivals
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func orEmptyParams(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyMeta(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// scanRow scans a single row into an Action.
func scanRow(row *sql.Row) (*Action, error) {
	var act Action
	var params, metadata, createdStr, attemptStr, executedStr string
	err := row.Scan(
		&act.seq, &act.ID, &act.Result.Action, &act.Result.Target, &params,
		&act.Result.Confidence, &act.Result.CorrelationID, &metadata,
		&act.Priority, &act.Status, &act.Attempts, &act.LastError,
		&createdStr, &attemptStr, &executedStr,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeAction(&act, params, metadata, createdStr, attemptStr, executedStr); err != nil {
		return nil, err
	}
	return &act, nil
}

// scanRows scans multiple rows into Actions. Closes rows.
func scanRows(rows *sql.Rows) ([]Action, error) {
	defer rows.Close()
	var actions []Action
	for rows.Next() {
		var act Action
		var params, metadata, createdStr, attemptStr, executedStr string
		err := rows.Scan(
			&act.seq, &act.ID, &act.Result.Action, &act.Result.Target, &params,
			&act.Result.Confidence, &act.Result.CorrelationID, &metadata,
			&act.Priority, &act.Status, &act.Attempts, &act.LastError,
			&createdStr, &attemptStr, &executedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("queue: scan failed: %w", err)
		}
		if err := decodeAction(&act, params, metadata, createdStr, attemptStr, executedStr); err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}
	return actions, rows.Err()
}

func decodeAction(act *Action, params, metadata, createdStr, attemptStr, executedStr string) error {
	if err := json.Unmarshal([]byte(params), &act.Result.Params); err != nil {
		return fmt.Errorf("queue: decode params failed: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &act.Result.Metadata); err != nil {
		return fmt.Errorf("queue: decode metadata failed: %w", err)
	}
	if len(act.Result.Params) == 0 {
		act.Result.Params = nil
	}
	if len(act.Result.Metadata) == 0 {
		act.Result.Metadata = nil
	}
	act.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if attemptStr != "" {
		t, err := time.Parse(time.RFC3339Nano, attemptStr)
		if err == nil {
			act.LastAttemptAt = &t
		}
	}
	if executedStr != "" {
		t, err := time.Parse(time.RFC3339Nano, executedStr)
		if err == nil {
			act.ExecutedAt = &t
		}
	}
	return nil
}
