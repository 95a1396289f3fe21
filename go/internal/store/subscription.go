package store

import (
	"encoding/json"
	"sync"
)

// Event is one delivery on a subscription: either the full value at Path
// (nil when absent) or a transport error.
type Event struct {
	Path  string
	Value json.RawMessage
	Err   error
}

// Subscription is a single-consumer stream of ordered snapshot events.
// Only the newest undelivered snapshot is kept: a slow consumer may skip
// intermediate values but never sees them out of order.
type Subscription struct {
	path    string
	events  chan Event
	onClose func()

	mu     sync.Mutex
	closed bool
}

// NewSubscription creates a subscription for path. onClose, if set, runs
// once when the subscription is closed. Backends and tests feed it with
// Deliver.
func NewSubscription(path string, onClose func()) *Subscription {
	return &Subscription{
		path:    path,
		events:  make(chan Event, 1),
		onClose: onClose,
	}
}

// Path returns the subscribed path.
func (s *Subscription) Path() string {
	return s.path
}

// Events returns the channel of snapshot events. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Deliver queues ev, replacing a queued event the consumer has not read
// yet. It never blocks and reports false once the subscription is closed.
func (s *Subscription) Deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if ev.Path == "" {
		ev.Path = s.path
	}

	select {
	case s.events <- ev:
		return true
	default:
	}

	// drop the stale snapshot, the newest one supersedes it
	select {
	case <-s.events:
	default:
	}
	s.events <- ev
	return true
}

// Close ends the subscription and closes the events channel.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose()
	}
	return nil
}
