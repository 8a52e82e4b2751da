// Package notification fans queue updates out to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osa030/cuebox/internal/domain/cue"
)

// sendTimeout bounds how long a broadcast waits on one subscriber.
const sendTimeout = 500 * time.Millisecond

// QueueUpdate is one broadcast queue snapshot. SequenceNo increases by
// one per broadcast so subscribers can detect missed updates.
type QueueUpdate struct {
	SequenceNo uint64
	Requests   []cue.Request
}

// Stream receives updates for one subscriber.
type Stream interface {
	Send(QueueUpdate) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages subscriptions and broadcasting. It implements the
// scheduler's QueueObserver, so registering it as the observer fans every
// queue change out to all subscribers.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// OnQueueChanged broadcasts the snapshot to every subscriber.
func (m *Manager) OnQueueChanged(snapshot []cue.Request) {
	m.Broadcast(snapshot)
}

// Broadcast sends a queue update to all subscribers. Each stream send is
// done in a goroutine with a timeout to prevent a slow subscriber from
// blocking the scheduler.
func (m *Manager) Broadcast(requests []cue.Request) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	update := QueueUpdate{
		SequenceNo: m.sequenceNo,
		Requests:   requests,
	}
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding the lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(update)
			}()

			select {
			case <-done:
				// Send errors are ignored; a broken subscriber is
				// removed by its own consumer via Unsubscribe.
			case <-ctx.Done():
				// Timeout - continue with the other subscribers
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

// ChannelStream adapts a buffered channel to the Stream interface. Send
// drops the update when the channel is full instead of blocking.
type ChannelStream struct {
	C chan QueueUpdate
}

// NewChannelStream creates a channel-backed stream with the given buffer.
func NewChannelStream(buffer int) *ChannelStream {
	return &ChannelStream{C: make(chan QueueUpdate, buffer)}
}

// Send implements Stream.
func (s *ChannelStream) Send(u QueueUpdate) error {
	select {
	case s.C <- u:
	default:
		// Buffer full, drop the update; the next one carries the
		// current snapshot anyway.
	}
	return nil
}
