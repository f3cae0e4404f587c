package queue

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
)

func tempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "occ.db")
	s, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func result(action, target string) domain.ReasoningResult {
	return domain.ReasoningResult{
		Action: action,
		Target: target,
		Params: map[string]any{"title": "review PR"},
	}
}

func TestEnqueue_AssignsIDAndDefaults(t *testing.T) {
	s := tempStore(t)

	act, err := s.Enqueue(result("create_task", "trello"), 0)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if act.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if act.Status != StatusPending {
		t.Errorf("expected status %q, got %q", StatusPending, act.Status)
	}
	if act.Priority != PriorityDefault {
		t.Errorf("expected default priority %d, got %d", PriorityDefault, act.Priority)
	}
	if act.Attempts != 0 {
		t.Errorf("expected 0 attempts, got %d", act.Attempts)
	}
	if act.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestEnqueue_ClampsPriority(t *testing.T) {
	s := tempStore(t)

	tests := []struct {
		in   int
		want int
	}{
		{-3, PriorityHighest},
		{0, PriorityDefault},
		{1, 1},
		{5, 5},
		{9, PriorityLowest},
	}
	for _, tt := range tests {
		act, err := s.Enqueue(result("create_task", "trello"), tt.in)
		if err != nil {
			t.Fatalf("Enqueue(%d) failed: %v", tt.in, err)
		}
		if act.Priority != tt.want {
			t.Errorf("Enqueue(%d): priority = %d, want %d", tt.in, act.Priority, tt.want)
		}
	}
}

func TestEnqueue_DurableBeforeReturn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "occ.db")

	s1, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	act, err := s1.Enqueue(result("create_task", "trello"), 2)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	s1.Close()

	// A new store instance must see the action.
	s2, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(act.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected persisted action, got nil")
	}
	if got.Priority != 2 {
		t.Errorf("expected priority 2, got %d", got.Priority)
	}
}

func TestEnqueue_SignalsArrival(t *testing.T) {
	s := tempStore(t)

	if _, err := s.Enqueue(result("create_task", "trello"), 0); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case <-s.Arrivals():
	case <-time.After(time.Second):
		t.Fatal("expected arrival signal after Enqueue")
	}
}

func TestGet_RoundTripsResult(t *testing.T) {
	s := tempStore(t)

	res := domain.ReasoningResult{
		Action:        "append_row",
		Target:        "sheets",
		Params:        map[string]any{"sheet": "Q3", "values": []any{"a", float64(2)}},
		Confidence:    0.87,
		CorrelationID: "run-42",
		Metadata:      map[string]string{"source": "daily-digest"},
	}
	act, err := s.Enqueue(res, 1)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := s.Get(act.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected action, got nil")
	}
	if diff := cmp.Diff(res, got.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := tempStore(t)

	got, err := s.Get("no-such-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing action, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing action, got %+v", got)
	}
}

func TestEnqueue_NormalizesActionTarget(t *testing.T) {
	s := tempStore(t)

	act, err := s.Enqueue(result("Create_Task", " TRELLO "), 3)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if act.Result.Action != "create_task" || act.Result.Target != "trello" {
		t.Errorf("expected normalized action/target, got %s/%s", act.Result.Action, act.Result.Target)
	}

	// The stored target must match the limiter's normalized exclusion key.
	claimed, err := s.ClaimNext([]string{"trello"})
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if claimed != nil {
		t.Errorf("expected throttled platform to be skipped, claimed %+v", claimed)
	}

	claimed, err = s.ClaimNext(nil)
	if err != nil || claimed == nil {
		t.Fatalf("expected claim with open gate, got %+v, %v", claimed, err)
	}
	if claimed.Result.Target != "trello" {
		t.Errorf("expected normalized target on claim, got %q", claimed.Result.Target)
	}
}

func TestClaimNext_PriorityThenArrival(t *testing.T) {
	s := tempStore(t)

	low, _ := s.Enqueue(result("create_task", "trello"), 3)
	urgent, _ := s.Enqueue(result("send_notification", "slack"), 1)
	second, _ := s.Enqueue(result("create_task", "trello"), 3)
	mid, _ := s.Enqueue(result("update_page", "notion"), 2)

	want := []string{urgent.ID, mid.ID, low.ID, second.ID}
	for i, wantID := range want {
		act, err := s.ClaimNext(nil)
		if err != nil {
			t.Fatalf("ClaimNext #%d failed: %v", i, err)
		}
		if act == nil {
			t.Fatalf("ClaimNext #%d returned nil, want %s", i, wantID)
		}
		if act.ID != wantID {
			t.Errorf("ClaimNext #%d = %s, want %s", i, act.ID, wantID)
		}
		if act.Status != StatusExecuting {
			t.Errorf("claimed action status = %q, want %q", act.Status, StatusExecuting)
		}
		if act.LastAttemptAt == nil {
			t.Error("expected LastAttemptAt to be set on claim")
		}
	}
}

func TestClaimNext_FIFOWithinPriority(t *testing.T) {
	s := tempStore(t)

	var ids []string
	for range 5 {
		act, err := s.Enqueue(result("create_task", "trello"), 3)
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, act.ID)
	}

	for i, wantID := range ids {
		act, err := s.ClaimNext(nil)
		if err != nil {
			t.Fatalf("ClaimNext #%d failed: %v", i, err)
		}
		if act == nil || act.ID != wantID {
			t.Fatalf("ClaimNext #%d did not follow arrival order", i)
		}
	}
}

func TestClaimNext_ExcludesTargets(t *testing.T) {
	s := tempStore(t)

	s.Enqueue(result("send_notification", "slack"), 1)
	trello, _ := s.Enqueue(result("create_task", "trello"), 3)

	act, err := s.ClaimNext([]string{"slack"})
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if act == nil {
		t.Fatal("expected a claim, got nil")
	}
	if act.ID != trello.ID {
		t.Errorf("expected the trello action despite lower priority slack, got %s on %s",
			act.ID, act.Result.Target)
	}

	// With both platforms excluded nothing is eligible.
	act, err = s.ClaimNext([]string{"slack", "trello"})
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if act != nil {
		t.Errorf("expected nil with all targets excluded, got %+v", act)
	}
}

func TestClaimNext_EmptyQueue(t *testing.T) {
	s := tempStore(t)

	act, err := s.ClaimNext(nil)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if act != nil {
		t.Errorf("expected nil on empty queue, got %+v", act)
	}
}

func TestClaimNext_NeverDoubleClaims(t *testing.T) {
	s := tempStore(t)

	const n = 20
	for range n {
		if _, err := s.Enqueue(result("create_task", "trello"), 3); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				act, err := s.ClaimNext(nil)
				if err != nil {
					t.Errorf("ClaimNext failed: %v", err)
					return
				}
				if act == nil {
					return
				}
				mu.Lock()
				seen[act.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("expected %d distinct claims, got %d", n, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("action %s claimed %d times", id, count)
		}
	}
}

func TestRelease_NoAttemptCharged(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 2)
	claimed, err := s.ClaimNext(nil)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}

	if err := s.Release(claimed.ID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	got, _ := s.Get(act.ID)
	if got.Status != StatusPending {
		t.Errorf("expected status %q after release, got %q", StatusPending, got.Status)
	}
	if got.Attempts != 0 {
		t.Errorf("release must not charge an attempt, got %d", got.Attempts)
	}
	if got.Priority != 2 {
		t.Errorf("release must preserve priority, got %d", got.Priority)
	}

	// The action is claimable again.
	again, err := s.ClaimNext(nil)
	if err != nil || again == nil || again.ID != act.ID {
		t.Fatalf("expected released action to be claimable again")
	}
}

func TestMarkCompleted(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)

	if err := s.MarkCompleted(act.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, _ := s.Get(act.ID)
	if got.Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", got.Attempts)
	}
	if got.ExecutedAt == nil {
		t.Error("expected ExecutedAt to be set")
	}
}

func TestRequeue_ChargesAttemptKeepsPriority(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 1)
	s.ClaimNext(nil)

	if err := s.Requeue(act.ID, "trello: 502 bad gateway"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}

	got, _ := s.Get(act.ID)
	if got.Status != StatusPending {
		t.Errorf("expected status %q, got %q", StatusPending, got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("expected 1 attempt after requeue, got %d", got.Attempts)
	}
	if got.Priority != 1 {
		t.Errorf("requeue must preserve priority, got %d", got.Priority)
	}
	if got.LastError != "trello: 502 bad gateway" {
		t.Errorf("expected LastError to be set, got %q", got.LastError)
	}
	if got.ExecutedAt != nil {
		t.Error("requeued action must not have a terminal time")
	}
}

func TestMarkFailed(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)

	if err := s.MarkFailed(act.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	got, _ := s.Get(act.ID)
	if got.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", got.Attempts)
	}
	if got.ExecutedAt == nil {
		t.Error("expected ExecutedAt to be set")
	}
	if got.LastError != "boom" {
		t.Errorf("expected LastError %q, got %q", "boom", got.LastError)
	}
}

func TestMarkFailedFatal_NoAttemptCharged(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)

	if err := s.MarkFailedFatal(act.ID, "no mapping for action"); err != nil {
		t.Fatalf("MarkFailedFatal failed: %v", err)
	}

	got, _ := s.Get(act.ID)
	if got.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, got.Status)
	}
	if got.Attempts != 0 {
		t.Errorf("fatal failure must not charge an attempt, got %d", got.Attempts)
	}
	if got.ExecutedAt == nil {
		t.Error("expected ExecutedAt to be set")
	}
}

func TestTransitions_RequireExecuting(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 3)

	// All executing-guarded transitions must fail on a pending action.
	if err := s.Release(act.ID); err == nil {
		t.Error("expected Release on pending action to fail")
	}
	if err := s.MarkCompleted(act.ID); err == nil {
		t.Error("expected MarkCompleted on pending action to fail")
	}
	if err := s.Requeue(act.ID, "x"); err == nil {
		t.Error("expected Requeue on pending action to fail")
	}
	if err := s.MarkFailed(act.ID, "x"); err == nil {
		t.Error("expected MarkFailed on pending action to fail")
	}

	// Completed is terminal: no transition may leave it.
	s.ClaimNext(nil)
	s.MarkCompleted(act.ID)
	if err := s.Requeue(act.ID, "x"); err == nil {
		t.Error("expected Requeue on completed action to fail")
	}
	got, _ := s.Get(act.ID)
	if got.Status != StatusCompleted || got.Attempts != 1 {
		t.Errorf("completed action mutated: status %q attempts %d", got.Status, got.Attempts)
	}
}

func TestRecoverInterrupted(t *testing.T) {
	s := tempStore(t)

	a1, _ := s.Enqueue(result("create_task", "trello"), 3)
	a2, _ := s.Enqueue(result("send_notification", "slack"), 3)
	s.Enqueue(result("update_page", "notion"), 3)

	s.ClaimNext(nil)
	s.ClaimNext(nil)

	n, err := s.RecoverInterrupted()
	if err != nil {
		t.Fatalf("RecoverInterrupted failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 recovered actions, got %d", n)
	}

	for _, id := range []string{a1.ID, a2.ID} {
		got, _ := s.Get(id)
		if got.Status != StatusPending {
			t.Errorf("action %s status = %q, want %q", id, got.Status, StatusPending)
		}
		if got.Attempts != 0 {
			t.Errorf("recovery must not charge attempts, got %d", got.Attempts)
		}
	}
}

func TestList_FilterAndLimit(t *testing.T) {
	s := tempStore(t)

	for range 3 {
		s.Enqueue(result("create_task", "trello"), 3)
	}
	act, _ := s.Enqueue(result("send_notification", "slack"), 1)
	s.ClaimNext(nil)
	s.MarkCompleted(act.ID)

	pending, err := s.List(StatusPending, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}

	all, err := s.List("", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 total, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != act.ID {
		t.Errorf("expected newest action first, got %s", all[0].ID)
	}

	limited, err := s.List("", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 with limit, got %d", len(limited))
	}
}

func TestRemove_PendingOnly(t *testing.T) {
	s := tempStore(t)

	act, _ := s.Enqueue(result("create_task", "trello"), 3)
	if err := s.Remove(act.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Get(act.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected removed action to be gone, got %v", err)
	}

	claimed, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)
	if err := s.Remove(claimed.ID); err == nil {
		t.Error("expected Remove on executing action to fail")
	}

	done, _ := s.Enqueue(result("post_message", "slack"), 3)
	s.ClaimNext(nil)
	s.MarkCompleted(done.ID)
	err := s.Remove(done.ID)
	if err == nil || !strings.Contains(err.Error(), "already finished") {
		t.Errorf("expected finished-action error, got %v", err)
	}

	if err := s.Remove("no-such-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing action, got %v", err)
	}
}

func TestDeleteTerminalOlderThan_SparesActiveRows(t *testing.T) {
	s := tempStore(t)

	done, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)
	s.MarkCompleted(done.ID)

	pending, _ := s.Enqueue(result("send_notification", "slack"), 3)
	executing, _ := s.Enqueue(result("update_page", "notion"), 3)
	s.ClaimNext(nil) // claims the slack action (earlier arrival)
	_ = executing

	// Cutoff in the future relative to every row: only terminal rows go.
	removed, err := s.DeleteTerminalOlderThan(-time.Hour)
	if err != nil {
		t.Fatalf("DeleteTerminalOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	if got, _ := s.Get(pending.ID); got == nil {
		t.Error("prune must never touch non-terminal rows")
	}

	// Nothing recent enough to delete.
	removed, err = s.DeleteTerminalOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteTerminalOlderThan failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
}

func TestStats(t *testing.T) {
	s := tempStore(t)

	ok, _ := s.Enqueue(result("create_task", "trello"), 3)
	s.ClaimNext(nil)
	s.MarkCompleted(ok.ID)

	bad, _ := s.Enqueue(result("send_notification", "slack"), 3)
	s.ClaimNext(nil)
	s.MarkFailed(bad.ID, "boom")

	s.Enqueue(result("update_page", "notion"), 3)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Pending != 1 || stats.Executing != 0 || stats.Completed != 1 || stats.Failed != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 1/0/1/1",
			stats.Pending, stats.Executing, stats.Completed, stats.Failed)
	}
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.AvgWaitMs < 0 {
		t.Errorf("expected non-negative avg wait, got %f", stats.AvgWaitMs)
	}
	if stats.OldestPendingMs < 0 {
		t.Errorf("expected non-negative oldest pending age, got %d", stats.OldestPendingMs)
	}
}

func TestStats_EmptyQueue(t *testing.T) {
	s := tempStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 || stats.AvgWaitMs != 0 || stats.OldestPendingMs != 0 {
		t.Errorf("expected zero stats on empty queue, got %+v", stats)
	}
}

func TestExport_Snapshot(t *testing.T) {
	s := tempStore(t)

	first, _ := s.Enqueue(result("create_task", "trello"), 2)
	second, _ := s.Enqueue(result("send_notification", "slack"), 1)

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if snap.Version != schemaVersion {
		t.Errorf("expected version %d, got %d", schemaVersion, snap.Version)
	}
	if snap.LastSaved.IsZero() {
		t.Error("expected LastSaved to be set")
	}
	if len(snap.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(snap.Actions))
	}
	// Arrival order, not priority order.
	if snap.Actions[0].ID != first.ID || snap.Actions[1].ID != second.ID {
		t.Error("expected snapshot in arrival order")
	}

	// The snapshot round-trips through JSON.
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(snap, &decoded, cmpopts.IgnoreUnexported(Action{})); diff != "" {
		t.Errorf("snapshot round-trip mismatch (-want +got):\n%s", diff)
	}
	for _, key := range []string{"actions", "last_saved", "version"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("expected snapshot JSON to contain %q", key)
		}
	}
}

func TestExport_EmptyQueue(t *testing.T) {
	s := tempStore(t)

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if snap.Actions == nil {
		t.Error("expected empty slice, not nil, so JSON exports [] not null")
	}
}
