// Package checkedqueue provides an unbounded FIFO queue built on a
// sentinel-headed singly linked list, with every mutation serialised by one
// mutex and bracketed by a structural invariant check.
//
// The check walks the chain from the sentinel and requires the reached nodes
// to be exactly the nodes the arena considers live: no node reached twice, no
// linked node that was released, no live node left unlinked. A violation is a
// bug in the queue and the operation panics with an *InvariantViolation.
//
// Dequeue on an empty queue returns ErrEmptyQueue immediately; it never
// waits for a producer.
package checkedqueue

import (
	"errors"
	"sync"

	"github.com/i5heu/GoCheckedQueue/pkg/tracker"
)

// ErrEmptyQueue is returned by Dequeue when there is no element to remove.
var ErrEmptyQueue = errors.New("checkedqueue: cannot dequeue from empty queue")

// Stats counts completed operations. Values are read under the queue lock.
type Stats struct {
	Enqueues      uint64
	Dequeues      uint64
	EmptyDequeues uint64
	Checks        uint64
}

// Queue is a mutex-protected linked FIFO queue. The zero value is not usable;
// create queues with New.
type Queue[T any] struct {
	mu       sync.Mutex
	arena    *tracker.Arena[T]
	sentinel tracker.Handle
	stats    Stats
	opts     options
}

// New creates an empty queue. The sentinel is allocated here, before the
// queue can be shared.
func New[T any](opts ...Option) *Queue[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	q := &Queue[T]{
		arena: tracker.New[T](),
		opts:  o,
	}
	var zero T
	q.sentinel = q.arena.Create(zero)
	return q
}

// Enqueue appends v as the last element.
func (q *Queue[T]) Enqueue(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.assertInvariants("enqueue", PhasePre)

	tail := q.sentinel
	for next := q.arena.Next(tail); !next.IsNil(); next = q.arena.Next(tail) {
		tail = next
	}
	q.arena.SetNext(tail, q.arena.Create(v))
	q.stats.Enqueues++

	q.assertInvariants("enqueue", PhasePost)
}

// Dequeue removes and returns the oldest element. It returns ErrEmptyQueue,
// leaving the queue untouched, when there is none.
func (q *Queue[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.assertInvariants("dequeue", PhasePre)

	victim := q.arena.Next(q.sentinel)
	if victim.IsNil() {
		q.stats.EmptyDequeues++
		var zero T
		return zero, ErrEmptyQueue
	}

	q.arena.SetNext(q.sentinel, q.arena.Next(victim))
	v := q.arena.Value(victim)
	q.arena.Destroy(victim)
	q.stats.Dequeues++

	q.assertInvariants("dequeue", PhasePost)
	return v, nil
}

// TryDequeue is Dequeue in comma-ok form: ok is false exactly when the
// queue was empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	v, err := q.Dequeue()
	return v, err == nil
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.arena.Len() - 1
}

// Validate runs the structural check regardless of WithInvariantChecks and
// returns the violation instead of panicking.
func (q *Queue[T]) Validate() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.checkInvariants("validate", PhaseSample)
}

// Stats returns a copy of the operation counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
