package consensus

import (
	"context"
	"errors"
	"sync"
)

// ErrStreamClosed is returned by Next once a closed stream is drained.
var ErrStreamClosed = errors.New("event stream closed")

// EventStream is an unbounded FIFO of events with a single consumer.
// Producers never block.
type EventStream struct {
	mu     sync.Mutex
	queue  []Event
	seq    uint64
	closed bool
	notify chan struct{}
}

// NewEventStream ...
func NewEventStream() *EventStream {
	return &EventStream{
		notify: make(chan struct{}, 1),
	}
}

// push appends ev and stamps its sequence number. It reports false if the
// stream is closed.
func (s *EventStream) push(ev Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	ev.Seq = s.seq
	s.seq++
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	s.wake()
	return true
}

func (s *EventStream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the stream is closed and drained,
// or ctx is done.
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return Event{}, ErrStreamClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Len returns the number of undelivered events.
func (s *EventStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close ends the stream. Queued events remain readable.
func (s *EventStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wake()
}

// Broadcaster fans events out to every subscribed stream. Engines embed one.
type Broadcaster struct {
	mu      sync.Mutex
	streams []*EventStream
	closed  bool
}

// Subscribe returns a stream receiving every event published from now on.
// After Close it returns a closed stream.
func (b *Broadcaster) Subscribe() *EventStream {
	s := NewEventStream()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		s.Close()
		return s
	}
	b.streams = append(b.streams, s)
	return s
}

// Publish delivers ev to all streams.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.streams {
		s.push(ev)
	}
}

// Close closes every stream. It is idempotent.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.streams {
		s.Close()
	}
}
