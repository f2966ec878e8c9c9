package relay

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO buffer of outbound messages.
//
// Push never blocks, so it is safe to call while the registry lock is
// held. PopWait is a bounded wait used by the session writer to drain
// the queue while still noticing session termination.
type Queue struct {
	mu     sync.Mutex
	items  []Message
	signal chan struct{}
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Push appends a message to the tail of the queue.
func (q *Queue) Push(msg Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// PopWait removes and returns the head of the queue, waiting up to
// timeout for a message to arrive. Returns false if the queue stayed
// empty for the whole wait.
func (q *Queue) PopWait(timeout time.Duration) (Message, bool) {
	if msg, ok := q.pop(); ok {
		return msg, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// A wakeup token can be stale: the fast-path pop does not drain the
	// signal channel. Keep waiting until a message really arrives or
	// the deadline passes.
	for {
		select {
		case <-q.signal:
			if msg, ok := q.pop(); ok {
				return msg, true
			}
		case <-timer.C:
			return Message{}, false
		}
	}
}

// Len reports the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Message{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}
