package ports

import "context"

// Flusher is the bulk operation of a wrapped target.
// It receives every item taken from the pending queue, in enqueue order.
// A non-nil error returns the whole batch to the head of the queue.
type Flusher[T any] interface {
	Flush(ctx context.Context, items []T) error
}

// Closer is the optional close operation of a wrapped target.
// It runs once, after the final drain has completed.
type Closer interface {
	Close(ctx context.Context) error
}

// CloserFunc adapts an ordinary function to the Closer interface.
type CloserFunc func(ctx context.Context) error

// Close calls f(ctx).
func (f CloserFunc) Close(ctx context.Context) error {
	return f(ctx)
}
