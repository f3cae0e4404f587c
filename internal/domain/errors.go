package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for cross-component error classification. Components wrap
// these so callers can branch on error categories without importing the
// packages that produced them.
//
//	return fmt.Errorf("queue: claim failed: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or rejected platform credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the per-platform gate is closed. It is a
	// scheduling signal, not an execution outcome: the action stays
	// pending, no attempt is charged and nothing is logged.
	ErrRateLimited = errors.New("rate limited")

	// ErrStoreCorrupt indicates the on-disk store failed its integrity
	// check. Fatal at startup; the daemon must halt rather than run
	// against a store that may silently drop actions.
	ErrStoreCorrupt = errors.New("store corrupt")
)

// UnmappedActionError reports an (action, target) pair with no entry in the
// routing table. It is a configuration error: retrying cannot fix it, so the
// action fails on first sight without charging an attempt.
type UnmappedActionError struct {
	Action string
	Target string
}

func (e *UnmappedActionError) Error() string {
	return fmt.Sprintf("no mapping for action %q on target %q", e.Action, e.Target)
}

// FieldError describes a single parameter that failed validation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports missing or malformed params for a mapped action.
// Like UnmappedActionError it is fatal on first sight: the executor is never
// invoked and no attempt is charged.
type ValidationError struct {
	Action string
	Target string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return fmt.Sprintf("invalid params for %s/%s: %s", e.Action, e.Target, strings.Join(parts, "; "))
}

// Fatal reports whether err is a configuration or validation failure that
// no amount of retrying can fix.
func Fatal(err error) bool {
	var unmapped *UnmappedActionError
	var invalid *ValidationError
	return errors.As(err, &unmapped) || errors.As(err, &invalid)
}
