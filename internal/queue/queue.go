package queue

// QueueValidationInterface is a *type constraint* that ensures any type Q has
// these methods. The bench harness and the integrity tests drive queues only
// through it.
type QueueValidationInterface[T any] interface {
	// Enqueue adds an element at the tail. Unbounded queues never block here
	// except on their own lock.
	Enqueue(T)

	// TryDequeue removes and returns the oldest element.
	// If the queue is empty it returns an empty T and false without waiting.
	TryDequeue() (T, bool)

	// Len returns how many elements are currently queued.
	Len() int
}

// Validator is implemented by queues that can verify their own structure.
// Validate must be safe to call concurrently with Enqueue and TryDequeue.
type Validator interface {
	Validate() error
}
