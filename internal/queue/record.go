package queue

import (
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
)

// Status values for a queued action's lifecycle. Transitions are owned by
// the store: pending→executing (claim), executing→completed,
// executing→failed, executing→pending (requeue, release, crash recovery).
const (
	StatusPending   = "pending"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Priority bounds. 1 is most urgent, 5 least. Values outside the range are
// clamped at enqueue time rather than rejected.
const (
	PriorityHighest = 1
	PriorityDefault = 3
	PriorityLowest  = 5
)

// Action is a persisted queued action. It wraps the upstream reasoning
// decision with the scheduling state the orchestrator needs.
type Action struct {
	// seq is the insertion sequence number (assigned on insert). Claim
	// order within a priority band follows seq, which is exact arrival
	// order; it never leaves the package.
	seq int64

	// ID is the public action identifier, assigned at enqueue.
	ID string `json:"id"`

	// Result is the reasoning decision this action will execute.
	Result domain.ReasoningResult `json:"result"`

	// Priority is 1 (highest) through 5 (lowest).
	Priority int `json:"priority"`

	// Status is the current lifecycle state.
	Status string `json:"status"`

	// Attempts counts finished execution attempts. A claim that is
	// released before dispatch (rate-limit deferral, crash recovery)
	// does not count.
	Attempts int `json:"attempts"`

	// CreatedAt is when the action was enqueued.
	CreatedAt time.Time `json:"created_at"`

	// LastAttemptAt is when the action was last claimed for execution.
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`

	// ExecutedAt is when the action reached a terminal state.
	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	// LastError is the most recent failure message, kept across requeues.
	LastError string `json:"last_error,omitempty"`
}

// Terminal reports whether status is an end state.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// ClampPriority forces p into the valid range, returning the default for
// the zero value.
func ClampPriority(p int) int {
	switch {
	case p == 0:
		return PriorityDefault
	case p < PriorityHighest:
		return PriorityHighest
	case p > PriorityLowest:
		return PriorityLowest
	}
	return p
}

// Stats is a live summary of the queue.
type Stats struct {
	Pending   int `json:"pending"`
	Executing int `json:"executing"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`

	// AvgWaitMs is the mean enqueue-to-terminal latency in milliseconds
	// over completed and failed actions.
	AvgWaitMs float64 `json:"avg_wait_ms"`

	// OldestPendingMs is the age of the oldest pending action in
	// milliseconds, 0 when nothing is pending.
	OldestPendingMs int64 `json:"oldest_pending_ms"`
}
