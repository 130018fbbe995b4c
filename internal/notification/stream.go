package notification

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Subscription is a live feed of one recipient's notifications. Callers must
// invoke Cancel when done; an abandoned subscription leaks a listener.
type Subscription struct {
	C      <-chan Notification
	cancel func()
	once   sync.Once
}

// Cancel releases the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type subscriber struct {
	recipientID uuid.UUID
	ch          chan Notification
}

// Stream fans live notification records out to per-recipient subscribers.
// Delivery is best-effort: a subscriber that falls behind its buffer misses
// events rather than blocking publishers. The persisted records remain the
// source of truth.
type Stream struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID][]*subscriber
}

func NewStream() *Stream {
	return &Stream{
		subscribers: make(map[uuid.UUID][]*subscriber),
	}
}

// Subscribe registers a live feed for the recipient.
func (s *Stream) Subscribe(recipientID uuid.UUID) *Subscription {
	sub := &subscriber{
		recipientID: recipientID,
		ch:          make(chan Notification, subscriberBuffer),
	}

	s.mu.Lock()
	s.subscribers[recipientID] = append(s.subscribers[recipientID], sub)
	s.mu.Unlock()

	return &Subscription{
		C:      sub.ch,
		cancel: func() { s.remove(sub) },
	}
}

func (s *Stream) remove(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[sub.recipientID]
	for i, candidate := range subs {
		if candidate == sub {
			s.subscribers[sub.recipientID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subscribers[sub.recipientID]) == 0 {
		delete(s.subscribers, sub.recipientID)
	}

	close(sub.ch)
}

// Push delivers a notification to the recipient's live subscribers.
// The read lock is held across the sends: remove closes channels under the
// write lock, so no send can land on a closed channel.
func (s *Stream) Push(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers[n.RecipientID] {
		select {
		case sub.ch <- n:
		default:
			// Subscriber buffer full; drop rather than block.
		}
	}
}
