// Package router turns a reasoning decision into exactly one executor
// method call: resolve the mapping, resolve the capability, validate the
// params, invoke. It never retries and never touches the queue; failed
// dispatches are the orchestrator's problem.
package router

import (
	"context"
	"strings"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/executors"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"
)

// Router dispatches reasoning decisions to executor capabilities.
type Router struct {
	tokens  auth.Store
	timeout time.Duration
}

// New constructs a router. timeout bounds each executor invocation; zero
// means no bound beyond the caller's context.
func New(tokens auth.Store, timeout time.Duration) *Router {
	return &Router{tokens: tokens, timeout: timeout}
}

// Invocation is a resolved dispatch: one executor method bound to the
// validated params of one reasoning decision.
type Invocation struct {
	method  domain.Method
	params  map[string]any
	timeout time.Duration
}

// Resolve maps a decision to its executor method and validates the params,
// without touching the executor. Failures are the fatal taxonomy:
// *domain.UnmappedActionError when the (action, target) pair has no
// mapping, registered executor, or method; *domain.ValidationError when
// required params are missing or blank.
func (r *Router) Resolve(res domain.ReasoningResult) (*Invocation, error) {
	action := util.NormalizeKey(res.Action)
	target := util.NormalizeKey(res.Target)

	mapping, ok := Lookup(action, target)
	if !ok {
		return nil, &domain.UnmappedActionError{Action: action, Target: target}
	}

	capability, err := executors.Get(target, r.tokens)
	if err != nil {
		// A mapped pair without a registered executor is the same class
		// of configuration error as a missing mapping.
		return nil, &domain.UnmappedActionError{Action: action, Target: target}
	}

	method, ok := capability.Method(mapping.Method)
	if !ok {
		return nil, &domain.UnmappedActionError{Action: action, Target: target}
	}

	if err := validate(action, target, method.Required, res.Params); err != nil {
		return nil, err
	}

	return &Invocation{method: method, params: res.Params, timeout: r.timeout}, nil
}

// Invoke calls the resolved executor method, bounded by the router's
// timeout, and returns the executor's result verbatim. No retries here.
func (inv *Invocation) Invoke(ctx context.Context) (*domain.ExecutionResult, error) {
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := inv.method.Run(ctx, inv.params)
	if err != nil {
		return result, err
	}
	if result != nil && result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	return result, nil
}

// Dispatch resolves and invokes in one step.
func (r *Router) Dispatch(ctx context.Context, res domain.ReasoningResult) (*domain.ExecutionResult, error) {
	inv, err := r.Resolve(res)
	if err != nil {
		return nil, err
	}
	return inv.Invoke(ctx)
}

// validate checks that every required param is present, non-nil, and not a
// blank string. All problems are reported at once.
func validate(action, target string, required []string, params map[string]any) error {
	var fields []domain.FieldError
	for _, key := range required {
		v, ok := params[key]
		if !ok || v == nil {
			fields = append(fields, domain.FieldError{Field: key, Reason: "required"})
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			fields = append(fields, domain.FieldError{Field: key, Reason: "must not be empty"})
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Action: action, Target: target, Fields: fields}
	}
	return nil
}
