// Package execlog provides the append-only execution log: one row per
// dispatch event, filtered queries for the CLI, daily summaries recomputed
// from raw rows, and a live feed for in-process observers.
package execlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/database"
)

// defaultQueryLimit caps Query results when the filter does not set one.
const defaultQueryLimit = 100

// Repository defines the persistence interface for execution log entries.
type Repository interface {
	// RecordStart appends a started row for a dispatched attempt.
	RecordStart(entry *Entry) error

	// RecordSuccess appends a success row.
	RecordSuccess(entry *Entry) error

	// RecordFailure appends a failed row.
	RecordFailure(entry *Entry) error

	// Query returns entries matching the filter, newest first.
	Query(f Filter) ([]Entry, error)

	// DailySummary recomputes the aggregate view of one UTC day
	// (YYYY-MM-DD) from that day's terminal rows.
	DailySummary(date string) (*DailySummary, error)

	// CountAttempts returns the number of terminal rows with
	// AttemptNumber >= 1 for an action, which equals the action's
	// finished attempt count.
	CountAttempts(actionID string) (int, error)

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	hub *Hub
}

// Open creates or opens the execution log at the default database path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("execlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens the execution log at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("execlog: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS execution_log (
            id             INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp      TEXT    NOT NULL,
            day            TEXT    NOT NULL,
            action_id      TEXT    NOT NULL,
            correlation_id TEXT    NOT NULL DEFAULT '',
            action         TEXT    NOT NULL,
            target         TEXT    NOT NULL,
            params         TEXT    NOT NULL DEFAULT '{}',
            status         TEXT    NOT NULL,
            result         TEXT    NOT NULL DEFAULT '',
            error          TEXT    NOT NULL DEFAULT '',
            duration_ms    INTEGER NOT NULL DEFAULT 0,
            attempt_number INTEGER NOT NULL DEFAULT 0,
            retried_from   TEXT    NOT NULL DEFAULT ''
        );
        CREATE INDEX IF NOT EXISTS idx_execution_log_day ON execution_log(day);
        CREATE INDEX IF NOT EXISTS idx_execution_log_action_id ON execution_log(action_id);
        CREATE INDEX IF NOT EXISTS idx_execution_log_correlation ON execution_log(correlation_id);
        CREATE INDEX IF NOT EXISTS idx_execution_log_status ON execution_log(status);
        CREATE INDEX IF NOT EXISTS idx_execution_log_target ON execution_log(target);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("execlog: migration failed: %w", err)
	}
	return nil
}

// AttachFeed wires the live feed hub and the stats provider consulted when
// publishing. Called by the daemon before workers start.
func (r *SQLiteRepository) AttachFeed(hub *Hub) {
	r.hub = hub
}

// RecordStart appends a started row for a dispatched attempt.
func (r *SQLiteRepository) RecordStart(entry *Entry) error {
	return r.record(entry, StatusStarted)
}

// RecordSuccess appends a success row.
func (r *SQLiteRepository) RecordSuccess(entry *Entry) error {
	return r.record(entry, StatusSuccess)
}

// RecordFailure appends a failed row.
func (r *SQLiteRepository) RecordFailure(entry *Entry) error {
	return r.record(entry, StatusFailed)
}

func (r *SQLiteRepository) record(entry *Entry, status string) error {
	entry.Status = status
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	day := entry.Timestamp.UTC().Format(dayLayout)

	params, err := json.Marshal(orEmpty(entry.Params))
	if err != nil {
		return fmt.Errorf("execlog: encode params failed: %w", err)
	}
	resultJSON := ""
	if entry.Result != nil {
		data, err := json.Marshal(entry.Result)
		if err != nil {
			return fmt.Errorf("execlog: encode result failed: %w", err)
		}
		resultJSON = string(data)
	}

	result, err := r.db.Exec(`
        INSERT INTO execution_log (timestamp, day, action_id, correlation_id, action, target, params, status, result, error, duration_ms, attempt_number, retried_from)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Format(time.RFC3339Nano), day, entry.ActionID, entry.CorrelationID,
		entry.Action, entry.Target, string(params), entry.Status, resultJSON,
		entry.Error, entry.DurationMs, entry.AttemptNumber, entry.RetriedFrom,
	)
	if err != nil {
		return fmt.Errorf("execlog: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("execlog: failed to get last insert ID: %w", err)
	}
	entry.ID = id

	if r.hub != nil {
		r.hub.Publish(*entry)
	}
	return nil
}

const entryColumns = `id, timestamp, action_id, correlation_id, action, target, params,
               status, result, error, duration_ms, attempt_number, retried_from`

// Query returns entries matching the filter, newest first.
func (r *SQLiteRepository) Query(f Filter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM execution_log`
	var where []string
	var args []any

	if f.ActionID != "" {
		where = append(where, "action_id = ?")
		args = append(args, f.ActionID)
	}
	if f.CorrelationID != "" {
		where = append(where, "correlation_id = ?")
		args = append(args, f.CorrelationID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Target != "" {
		where = append(where, "target = ?")
		args = append(args, f.Target)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if !f.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339Nano))
	}
	if !f.To.IsZero() {
		where = append(where, "timestamp < ?")
		args = append(args, f.To.UTC().Format(time.RFC3339Nano))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)
	if f.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("execlog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// LatestID returns the highest entry ID, 0 when the log is empty. A tailing
// reader starts here so it only observes entries appended after it looked.
func (r *SQLiteRepository) LatestID() (int64, error) {
	row := r.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM execution_log`)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("execlog: latest id failed: %w", err)
	}
	return id, nil
}

// Tail returns entries with ID greater than afterID in append order. Used by
// out-of-process observers that cannot share the daemon's feed hub.
func (r *SQLiteRepository) Tail(afterID int64) ([]Entry, error) {
	rows, err := r.db.Query(`
        SELECT `+entryColumns+` FROM execution_log
        WHERE id > ? ORDER BY id ASC`, afterID)
	if err != nil {
		return nil, fmt.Errorf("execlog: tail failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// CountAttempts returns the finished attempt count recorded for an action.
func (r *SQLiteRepository) CountAttempts(actionID string) (int, error) {
	row := r.db.QueryRow(`
        SELECT COUNT(*) FROM execution_log
        WHERE action_id = ? AND status IN (?, ?) AND attempt_number >= 1`,
		actionID, StatusSuccess, StatusFailed)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("execlog: count failed: %w", err)
	}
	return n, nil
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var timestampStr, params, result string
		err := rows.Scan(
			&entry.ID, &timestampStr, &entry.ActionID, &entry.CorrelationID,
			&entry.Action, &entry.Target, &params, &entry.Status, &result,
			&entry.Error, &entry.DurationMs, &entry.AttemptNumber, &entry.RetriedFrom,
		)
		if err != nil {
			return nil, fmt.Errorf("execlog: scan failed: %w", err)
		}
		entry.Timestamp, _ = time.Parse(time.RFC3339Nano, timestampStr)
		if err := json.Unmarshal([]byte(params), &entry.Params); err != nil {
			return nil, fmt.Errorf("execlog: decode params failed: %w", err)
		}
		if len(entry.Params) == 0 {
			entry.Params = nil
		}
		if result != "" {
			if err := json.Unmarshal([]byte(result), &entry.Result); err != nil {
				return nil, fmt.Errorf("execlog: decode result failed: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
