// Package queue provides the FIFO submission queue for transcription
// jobs together with submission-order position reporting.
package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned when enqueueing after Close.
var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO of job ids.
//
// Enqueue never blocks the caller regardless of backlog: it only
// appends under the lock, so position lookups stay responsive even
// with no consumer running. Alongside the backlog the queue keeps an
// ordered position list: an id appears there from Enqueue until
// Remove, which the worker calls only after processing finishes.
// Position lookups therefore count jobs that are already running, not
// only jobs still waiting.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	order   []string
	backlog []string
	closed  bool
}

func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends id to both the backlog and the position list. The
// two are mutated under the same lock so positions stay consistent
// with actual queue contents.
func (q *Queue) Enqueue(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.order = append(q.order, id)
	q.backlog = append(q.backlog, id)
	q.cond.Signal()
	return nil
}

// Dequeue blocks until an id is available. ok is false once the queue
// has been closed and drained.
func (q *Queue) Dequeue() (id string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.backlog) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.backlog) == 0 {
		return "", false
	}
	id = q.backlog[0]
	q.backlog = q.backlog[1:]
	return id, true
}

// PositionOf returns the zero-based rank of id in submission order, or
// -1 when the id is not tracked (unknown, or processing finished).
func (q *Queue) PositionOf(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, v := range q.order {
		if v == id {
			return i
		}
	}
	return -1
}

// Remove drops id from the position list. It does not touch the
// backlog; workers call it after the id has already been dequeued and
// processed.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of ids currently in the position list.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Close stops accepting submissions. Queued ids still drain to
// workers; Dequeue reports ok=false once the backlog is empty.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
