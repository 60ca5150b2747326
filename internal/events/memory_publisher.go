package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/NomadCrew/tripsync-backend/types"
)

// defaultHistoryLimit is how many events per trip Published can return.
const defaultHistoryLimit = 256

// MemoryPublisher is a single-process change feed. It backs local runs
// without Redis and tests that need to observe published events.
type MemoryPublisher struct {
	mu           sync.RWMutex
	bufferSize   int
	historyLimit int
	published    map[string][]types.Event // key: tripID
	subs         map[string]*memorySub    // key: tripID:subscriberID
	closed       bool
}

// MemoryOption tunes a MemoryPublisher.
type MemoryOption func(*MemoryPublisher)

// WithHistoryLimit keeps at most n recent events per trip for Published.
// Zero turns history off, which is what a long-running process wants.
func WithHistoryLimit(n int) MemoryOption {
	return func(m *MemoryPublisher) {
		if n < 0 {
			n = 0
		}
		m.historyLimit = n
	}
}

type memorySub struct {
	tripID  string
	ch      chan types.Event
	filters []types.EventType
}

var _ types.EventPublisher = (*MemoryPublisher)(nil)

func NewMemoryPublisher(bufferSize int, opts ...MemoryOption) *MemoryPublisher {
	if bufferSize <= 0 {
		bufferSize = DefaultConfig().EventBufferSize
	}
	m := &MemoryPublisher{
		bufferSize:   bufferSize,
		historyLimit: defaultHistoryLimit,
		published:    make(map[string][]types.Event),
		subs:         make(map[string]*memorySub),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryPublisher) Publish(ctx context.Context, tripID string, event types.Event) error {
	return m.PublishBatch(ctx, tripID, []types.Event{event})
}

func (m *MemoryPublisher) PublishBatch(_ context.Context, tripID string, events []types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("publisher is closed")
	}

	m.record(tripID, events)
	for _, sub := range m.subs {
		if sub.tripID != tripID {
			continue
		}
		for _, event := range events {
			if !matchesFilters(event.Type, sub.filters) {
				continue
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
	return nil
}

// record appends to the trip's history and trims it to historyLimit. Callers
// hold m.mu.
func (m *MemoryPublisher) record(tripID string, events []types.Event) {
	if m.historyLimit == 0 {
		return
	}
	history := append(m.published[tripID], events...)
	if over := len(history) - m.historyLimit; over > 0 {
		history = append([]types.Event(nil), history[over:]...)
	}
	m.published[tripID] = history
}

func (m *MemoryPublisher) Subscribe(_ context.Context, tripID string, subscriberID string, filters ...types.EventType) (<-chan types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("publisher is closed")
	}
	key := subKey(tripID, subscriberID)
	if _, exists := m.subs[key]; exists {
		return nil, fmt.Errorf("subscription already exists for trip %s and subscriber %s", tripID, subscriberID)
	}
	sub := &memorySub{tripID: tripID, ch: make(chan types.Event, m.bufferSize), filters: filters}
	m.subs[key] = sub
	return sub.ch, nil
}

func (m *MemoryPublisher) Unsubscribe(_ context.Context, tripID string, subscriberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := subKey(tripID, subscriberID)
	sub, exists := m.subs[key]
	if !exists {
		return fmt.Errorf("no subscription found for trip %s and subscriber %s", tripID, subscriberID)
	}
	close(sub.ch)
	delete(m.subs, key)
	return nil
}

// Published returns a copy of the retained events for tripID, oldest first.
func (m *MemoryPublisher) Published(tripID string) []types.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Event(nil), m.published[tripID]...)
}

// PublishedTypes lists the event types published for tripID, in order.
func (m *MemoryPublisher) PublishedTypes(tripID string) []types.EventType {
	events := m.Published(tripID)
	out := make([]types.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

// SubscriberCount reports open subscriptions across all trips.
func (m *MemoryPublisher) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *MemoryPublisher) Shutdown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for key, sub := range m.subs {
		close(sub.ch)
		delete(m.subs, key)
	}
	return nil
}
