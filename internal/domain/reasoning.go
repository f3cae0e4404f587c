package domain

// ReasoningResult is the decision payload emitted by the upstream reasoning
// engine. The orchestration core treats it as opaque input: it is validated
// for shape at enqueue time and routed by (Action, Target), but its meaning
// belongs to whoever produced it.
type ReasoningResult struct {
	// Action names the operation to perform, e.g. "create_task",
	// "send_notification".
	Action string `json:"action"`

	// Target is the platform the action runs against, e.g. "trello",
	// "slack". Routing and rate limiting key off this value.
	Target string `json:"target"`

	// Params carries the operation arguments. Required keys are declared
	// per executor method and checked before dispatch.
	Params map[string]any `json:"params,omitempty"`

	// Confidence is the engine's self-reported confidence in the decision,
	// 0 when unknown. The core records it but never acts on it.
	Confidence float64 `json:"confidence,omitempty"`

	// CorrelationID ties the action back to the upstream reasoning run so
	// execution log entries can be joined across systems.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Metadata holds engine-specific annotations that travel with the
	// action but are never interpreted here.
	Metadata map[string]string `json:"metadata,omitempty"`
}
