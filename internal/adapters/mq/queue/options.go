package queue

// Option applies a configuration option to the MemoryQueue.
type Option func(*MemoryQueue)

// WithCapacity sets the maximum number of buffered submissions.
func WithCapacity(capacity int) Option {
	return func(q *MemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
