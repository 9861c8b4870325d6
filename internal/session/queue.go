package session

import (
	"sync"
)

// intentQueue is a thread-safe FIFO queue of intents.
//
// The queue is unbounded so UI callbacks never block, including callbacks
// that fire from inside the Run loop and enqueue follow-up intents.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type intentQueue struct {
	mu      sync.Mutex
	intents []Intent
	closed  bool
	signal  chan struct{} // buffered, size 1
}

func newIntentQueue() *intentQueue {
	return &intentQueue{
		intents: make([]Intent, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an intent to the back of the queue.
// Returns false if the queue is closed.
func (q *intentQueue) Enqueue(in Intent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.intents = append(q.intents, in)

	// Non-blocking; a buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front intent without blocking.
func (q *intentQueue) TryDequeue() (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.intents) == 0 {
		return Intent{}, false
	}

	in := q.intents[0]
	// Clear the slot so the closure can be collected
	q.intents[0] = Intent{}

	if len(q.intents) == 1 {
		q.intents = q.intents[:0]
	} else {
		q.intents = q.intents[1:]
	}

	return in, true
}

// Wait returns a channel that signals when intents may be available. It is
// closed by Close.
func (q *intentQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *intentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.intents)
}

// Closed reports whether Close has been called.
func (q *intentQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes any waiter.
func (q *intentQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
