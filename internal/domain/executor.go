package domain

import (
	"context"
	"time"
)

// Capability is the narrow surface an executor exposes to the core. The
// router resolves a method by name and invokes it; nothing in the core ever
// touches a platform SDK directly.
type Capability interface {
	// Platform returns the platform name this capability serves,
	// e.g. "trello".
	Platform() string

	// Method looks up a callable method by name. ok is false when the
	// platform does not implement the method.
	Method(name string) (Method, bool)
}

// Method is a single invokable operation on a platform.
type Method struct {
	// Name is the executor-side method name, e.g. "create_card".
	Name string

	// Required lists the param keys that must be present (and non-empty
	// for strings) before the method may run. Checked by the router;
	// a Run implementation can assume they exist.
	Required []string

	// Run performs the operation. Implementations must honor ctx
	// cancellation and return either a result or an error, never both
	// meaningful at once.
	Run func(ctx context.Context, params map[string]any) (*ExecutionResult, error)
}

// ExecutionResult is what an executor method reports back.
type ExecutionResult struct {
	// Success mirrors whether the platform accepted the operation.
	Success bool `json:"success"`

	// Data holds platform response fields worth keeping, e.g. the id of
	// a created card.
	Data map[string]any `json:"data,omitempty"`

	// Error is the platform-reported failure message when Success is false.
	Error string `json:"error,omitempty"`

	// Duration is the wall time of the platform call as measured by the
	// executor. The router measures its own dispatch time independently.
	Duration time.Duration `json:"duration,omitempty"`
}
