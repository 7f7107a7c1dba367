package fetcher

import (
	"context"
	"sync"
)

// txQueue is an unbounded FIFO of transaction IDs shared by all workers.
// Each pushed ID is handed to exactly one Pop caller.
type txQueue struct {
	mu     sync.Mutex
	items  []string
	closed bool

	ready chan struct{} // capacity 1, wakes one waiter
	done  chan struct{} // closed by Close
}

func newTxQueue() *txQueue {
	return &txQueue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends an ID. It never blocks and returns false once the queue is closed.
func (q *txQueue) Push(txID string) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, txID)
	q.mu.Unlock()

	q.signal()
	return true
}

// Pop blocks until an ID is available. It returns false when ctx is done,
// or when the queue is closed and fully drained.
func (q *txQueue) Pop(ctx context.Context) (string, bool) {
	for {
		if ctx.Err() != nil {
			return "", false
		}

		q.mu.Lock()
		if len(q.items) > 0 {
			txID := q.items[0]
			q.items[0] = ""
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()

			// Pass the wake-up on so other idle workers see the remaining items
			if more {
				q.signal()
			}
			return txID, true
		}
		if q.closed {
			q.mu.Unlock()
			return "", false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-q.ready:
		case <-q.done:
		}
	}
}

// Close stops admission. Waiters keep receiving queued IDs until the queue is empty.
func (q *txQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Drain removes and returns every queued ID.
func (q *txQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Closed reports whether admission has stopped.
func (q *txQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued IDs.
func (q *txQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *txQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
