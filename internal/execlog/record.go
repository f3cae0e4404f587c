package execlog

import "time"

// Entry status values. A dispatched attempt writes one started row before
// the executor call and exactly one terminal row after it. Fatal rejections
// (unmapped action, invalid params) write only the terminal row, with
// AttemptNumber 0.
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is a persisted execution event. Rows are append-only: nothing
// updates or deletes them once written.
type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// ActionID is the queue action this entry belongs to.
	ActionID string `json:"action_id"`

	// CorrelationID ties the entry back to the upstream reasoning run.
	CorrelationID string `json:"correlation_id,omitempty"`

	Action string         `json:"action"`
	Target string         `json:"target"`
	Params map[string]any `json:"params,omitempty"`

	Status string `json:"status"`

	// Result carries the executor response for success entries.
	Result map[string]any `json:"result,omitempty"`

	// Error is the failure message for failed entries.
	Error string `json:"error,omitempty"`

	// DurationMs is the dispatch wall time. Zero on started rows.
	DurationMs int64 `json:"duration_ms"`

	// AttemptNumber is 1 for the first dispatched attempt, counting up
	// on retries. 0 marks a fatal rejection where nothing was dispatched.
	AttemptNumber int `json:"attempt_number"`

	// RetriedFrom names the action whose earlier attempt failed, set on
	// entries with AttemptNumber > 1.
	RetriedFrom string `json:"retried_from,omitempty"`
}

// Filter narrows a Query. Zero values mean "any".
type Filter struct {
	ActionID      string
	CorrelationID string
	Status        string
	Target        string
	Action        string

	// From is inclusive, To exclusive.
	From time.Time
	To   time.Time

	// Limit caps returned rows; 0 applies the default cap.
	Limit  int
	Offset int
}

// dayLayout is the derived day column format, always UTC.
const dayLayout = "2006-01-02"
