package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/executors"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"
)

func simulatedRouter(t *testing.T, opts executors.SimulatedOptions) *Router {
	t.Helper()
	executors.Reset()
	t.Cleanup(executors.Reset)
	executors.RegisterSimulated(opts)
	return New(auth.NewMockStore(), 5*time.Second)
}

func TestDispatch_Success(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	result, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
		Params: map[string]any{"channel": "#ops", "text": "deploy done"},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.Success {
		t.Error("expected successful result")
	}
	if result.Data["method"] != "post_message" {
		t.Errorf("expected post_message invocation, got %v", result.Data["method"])
	}
	if result.Duration <= 0 {
		t.Error("expected measured duration")
	}
}

func TestDispatch_NormalizesActionAndTarget(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: " Send_Notification ",
		Target: "SLACK",
		Params: map[string]any{"channel": "#ops", "text": "hi"},
	})
	if err != nil {
		t.Fatalf("expected normalized dispatch to succeed: %v", err)
	}
}

func TestDispatch_UnmappedPair(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "create_task",
		Target: "jira",
		Params: map[string]any{"title": "x"},
	})

	var unmapped *domain.UnmappedActionError
	if !errors.As(err, &unmapped) {
		t.Fatalf("expected UnmappedActionError, got %v", err)
	}
	if unmapped.Target != "jira" {
		t.Errorf("expected target jira in error, got %q", unmapped.Target)
	}
	if !domain.Fatal(err) {
		t.Error("expected unmapped pair to classify as fatal")
	}
}

func TestDispatch_MappedButNoExecutor(t *testing.T) {
	executors.Reset()
	t.Cleanup(executors.Reset)
	// Mapping exists for slack but nothing registered it.
	r := New(auth.NewMockStore(), time.Second)

	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
		Params: map[string]any{"channel": "#ops", "text": "hi"},
	})

	var unmapped *domain.UnmappedActionError
	if !errors.As(err, &unmapped) {
		t.Fatalf("expected UnmappedActionError, got %v", err)
	}
}

func TestDispatch_MissingParams(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "create_task",
		Target: "trello",
		Params: map[string]any{"board": "ops", "title": "   "},
	})

	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// Every problem is reported at once: list missing, title blank.
	got := map[string]string{}
	for _, f := range invalid.Fields {
		got[f.Field] = f.Reason
	}
	if diff := cmp.Diff(map[string]string{
		"list":  "required",
		"title": "must not be empty",
	}, got); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
	if !domain.Fatal(err) {
		t.Error("expected validation failure to classify as fatal")
	}
}

func TestDispatch_NilParams(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
	})

	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(invalid.Fields) != 2 {
		t.Errorf("expected both required fields reported, got %+v", invalid.Fields)
	}
}

func TestDispatch_ExecutorFailurePassesThrough(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{FailWith: "rate limit from platform"})

	result, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
		Params: map[string]any{"channel": "#ops", "text": "hi"},
	})
	if err == nil {
		t.Fatal("expected executor failure")
	}
	if domain.Fatal(err) {
		t.Error("executor failures must not classify as fatal")
	}
	if result == nil || result.Error != "rate limit from platform" {
		t.Errorf("expected result to carry the platform error, got %+v", result)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	executors.Reset()
	t.Cleanup(executors.Reset)
	executors.RegisterSimulated(executors.SimulatedOptions{Latency: time.Minute})
	r := New(auth.NewMockStore(), 20*time.Millisecond)

	start := time.Now()
	_, err := r.Dispatch(context.Background(), domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
		Params: map[string]any{"channel": "#ops", "text": "hi"},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("expected dispatch to abort at the timeout")
	}
}

func TestResolve_SeparatesRejectionFromInvocation(t *testing.T) {
	r := simulatedRouter(t, executors.SimulatedOptions{})

	if _, err := r.Resolve(domain.ReasoningResult{
		Action: "create_task",
		Target: "jira",
	}); !domain.Fatal(err) {
		t.Errorf("expected fatal resolve error, got %v", err)
	}

	inv, err := r.Resolve(domain.ReasoningResult{
		Action: "send_notification",
		Target: "slack",
		Params: map[string]any{"channel": "#ops", "text": "hi"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	result, err := inv.Invoke(context.Background())
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Success {
		t.Error("expected successful invocation")
	}
}

func TestLookup_Table(t *testing.T) {
	m, ok := Lookup("create_task", "trello")
	if !ok || m.Method != "create_card" {
		t.Errorf("Lookup(create_task, trello) = %+v, %v", m, ok)
	}
	if _, ok := Lookup("create_task", "jira"); ok {
		t.Error("expected no mapping for jira")
	}
	if _, ok := Lookup("", ""); ok {
		t.Error("expected no mapping for empty pair")
	}
}

// Every mapping must resolve against the executor catalog, with required
// params declared, so a routed action can always be validated and invoked.
func TestMappings_ResolveAgainstCatalog(t *testing.T) {
	executors.Reset()
	t.Cleanup(executors.Reset)
	executors.RegisterSimulated(executors.SimulatedOptions{})

	for _, m := range Mappings() {
		capability, err := executors.Get(m.Target, auth.NewMockStore())
		if err != nil {
			t.Errorf("%s/%s: no executor: %v", m.Action, m.Target, err)
			continue
		}
		method, ok := capability.Method(m.Method)
		if !ok {
			t.Errorf("%s/%s: method %q not implemented", m.Action, m.Target, m.Method)
			continue
		}
		if len(method.Required) == 0 {
			t.Errorf("%s/%s: method %q declares no required params", m.Action, m.Target, m.Method)
		}
	}
}
