package execlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
)

func recv(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events:
		if !ok {
			t.Fatal("feed channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for feed event")
	}
	return Event{}
}

func TestHub_DeliversToSubscribers(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish(Entry{ActionID: "act-1", Status: StatusSuccess})

	ev := recv(t, sub)
	if ev.Entry.ActionID != "act-1" {
		t.Errorf("expected act-1, got %q", ev.Entry.ActionID)
	}
}

func TestHub_LateSubscriberSeesOnlyNewEvents(t *testing.T) {
	h := NewHub()

	early := h.Subscribe()
	defer early.Close()

	h.Publish(Entry{ActionID: "before", Status: StatusSuccess})

	late := h.Subscribe()
	defer late.Close()

	h.Publish(Entry{ActionID: "after", Status: StatusSuccess})

	// The early subscriber sees both, the late one only the second.
	if ev := recv(t, early); ev.Entry.ActionID != "before" {
		t.Errorf("early subscriber: expected 'before', got %q", ev.Entry.ActionID)
	}
	if ev := recv(t, early); ev.Entry.ActionID != "after" {
		t.Errorf("early subscriber: expected 'after', got %q", ev.Entry.ActionID)
	}
	if ev := recv(t, late); ev.Entry.ActionID != "after" {
		t.Errorf("late subscriber: expected 'after', got %q", ev.Entry.ActionID)
	}
	select {
	case ev := <-late.Events:
		t.Errorf("late subscriber received backlog event %q", ev.Entry.ActionID)
	default:
	}
}

func TestHub_SlowSubscriberDropsOldest(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()
	defer sub.Close()

	total := defaultFeedCapacity + 6
	for i := range total {
		h.Publish(Entry{ActionID: fmt.Sprintf("ev-%d", i)})
	}

	var received []string
	for {
		select {
		case ev := <-sub.Events:
			received = append(received, ev.Entry.ActionID)
			continue
		default:
		}
		break
	}

	if len(received) != defaultFeedCapacity {
		t.Fatalf("expected %d buffered events, got %d", defaultFeedCapacity, len(received))
	}
	if got, want := received[0], fmt.Sprintf("ev-%d", 6); got != want {
		t.Errorf("expected oldest events dropped: first = %q, want %q", got, want)
	}
	if got, want := received[len(received)-1], fmt.Sprintf("ev-%d", total-1); got != want {
		t.Errorf("expected newest event kept: last = %q, want %q", got, want)
	}
}

func TestHub_CloseStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()

	sub.Close()

	// Publishing after close must not panic, and the channel is closed.
	h.Publish(Entry{ActionID: "after-close"})

	if _, ok := <-sub.Events; ok {
		t.Error("expected closed channel after Close")
	}
}

func TestHub_AttachesStats(t *testing.T) {
	h := NewHub()
	h.SetStats(func() *queue.Stats {
		return &queue.Stats{Pending: 7, Total: 9}
	})
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish(Entry{ActionID: "act-1"})

	ev := recv(t, sub)
	if ev.Stats == nil {
		t.Fatal("expected stats on event")
	}
	if ev.Stats.Pending != 7 || ev.Stats.Total != 9 {
		t.Errorf("unexpected stats %+v", ev.Stats)
	}
}

func TestRepository_PublishesToFeed(t *testing.T) {
	r := tempRepo(t)
	h := NewHub()
	r.AttachFeed(h)

	sub := h.Subscribe()
	defer sub.Close()

	e := entry("act-1", "create_task", "trello")
	e.AttemptNumber = 1
	if err := r.RecordSuccess(e); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	ev := recv(t, sub)
	if ev.Entry.ActionID != "act-1" {
		t.Errorf("expected published entry for act-1, got %q", ev.Entry.ActionID)
	}
	if ev.Entry.ID == 0 {
		t.Error("expected published entry to carry its assigned ID")
	}
	if ev.Entry.Status != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, ev.Entry.Status)
	}
}
