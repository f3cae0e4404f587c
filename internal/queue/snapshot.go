package queue

import (
	"fmt"
	"time"
)

// Snapshot is the exportable view of the whole queue, ordered by arrival.
// The database stays the operational source of truth; snapshots exist for
// backup and for feeding other tooling.
type Snapshot struct {
	Actions   []Action  `json:"actions"`
	LastSaved time.Time `json:"last_saved"`
	Version   int       `json:"version"`
}

// Export returns a snapshot of every action.
func (s *SQLiteStore) Export() (*Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT ` + actionColumns + ` FROM actions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("queue: export query failed: %w", err)
	}
	actions, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []Action{}
	}
	return &Snapshot{
		Actions:   actions,
		LastSaved: time.Now().UTC(),
		Version:   schemaVersion,
	}, nil
}
