// Package blockwatch owns the process-wide current-block value as an
// explicit observable: one writer (the head watcher), many subscribers.
package blockwatch

import (
	"sync"
)

// Subject holds the latest observed block number and notifies subscribers
// when it changes. Setting an unchanged value never re-fires.
type Subject struct {
	mu      sync.Mutex
	current uint64
	seeded  bool
	subs    map[int]chan uint64
	nextID  int
}

// NewSubject creates an empty subject; Current reports no value until the
// first Set.
func NewSubject() *Subject {
	return &Subject{subs: make(map[int]chan uint64)}
}

// Current returns the latest block and whether one has been observed yet.
func (s *Subject) Current() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.seeded
}

// Set publishes a new block value. Subscriber channels hold only the most
// recent value: a subscriber that lags sees the latest block, not a backlog.
// Ordering between distinct values it does consume is preserved.
func (s *Subject) Set(block uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded && block == s.current {
		return
	}
	s.current = block
	s.seeded = true

	for _, ch := range s.subs {
		select {
		case ch <- block:
		default:
			// Channel full: replace the stale value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- block:
			default:
			}
		}
	}
}

// Subscription is one subscriber's handle on the subject. C is closed on
// Unsubscribe.
type Subscription struct {
	C <-chan uint64

	subject *Subject
	id      int
	once    sync.Once
}

// Subscribe registers a new subscriber. If a block has already been
// observed, it is delivered immediately on the subscription channel.
func (s *Subject) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan uint64, 1)
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	if s.seeded {
		ch <- s.current
	}

	return &Subscription{C: ch, subject: s, id: id}
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.subject.mu.Lock()
		defer sub.subject.mu.Unlock()
		if ch, ok := sub.subject.subs[sub.id]; ok {
			delete(sub.subject.subs, sub.id)
			close(ch)
		}
	})
}
