package execlog

import (
	"sync"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
)

const defaultFeedCapacity = 64

// Event is one live feed item: the appended entry plus a queue snapshot
// taken at publish time when a stats provider is attached.
type Event struct {
	Entry Entry        `json:"entry"`
	Stats *queue.Stats `json:"stats,omitempty"`
}

// StatsFunc supplies the queue stats attached to published events.
type StatsFunc func() *queue.Stats

// Subscription is an active feed registration.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription. The Events channel is closed.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Hub fans appended log entries out to live subscribers. A subscriber only
// sees events published after it subscribed; there is no backlog. Slow
// readers lose their oldest buffered events rather than stalling the
// publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	stats       StatsFunc
	channelSize int
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: map[*subscriber]struct{}{},
		channelSize: defaultFeedCapacity,
	}
}

// SetStats wires the provider consulted at publish time. Pass nil to stop
// attaching stats.
func (h *Hub) SetStats(fn StatsFunc) {
	h.mu.Lock()
	h.stats = fn
	h.mu.Unlock()
}

// Subscribe registers a new feed consumer.
func (h *Hub) Subscribe() Subscription {
	sub := newSubscriber(h.channelSize)
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return Subscription{
		Events: sub.ch,
		cancel: func() { h.remove(sub) },
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	sub.close()
}

// Publish delivers the entry to every live subscriber without blocking.
func (h *Hub) Publish(entry Entry) {
	h.mu.RLock()
	stats := h.stats
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	ev := Event{Entry: entry}
	if stats != nil {
		ev.Stats = stats()
	}
	for _, sub := range subs {
		sub.deliver(ev)
	}
}

type subscriber struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

func newSubscriber(capacity int) *subscriber {
	if capacity <= 0 {
		capacity = defaultFeedCapacity
	}
	return &subscriber{ch: make(chan Event, capacity)}
}

// deliver never blocks: on overflow the oldest buffered event is dropped to
// make room. All sends happen under the mutex so close is safe.
func (s *subscriber) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
