package app

import "sync"

// Buffer is the pending queue of an aggregator.
//
// A single mutex serializes Add against Take, Requeue and TakeAndSeal.
// Take swaps the backing slice instead of copying it, so every item added
// concurrently with a swap lands in exactly one batch.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []T
	sealed bool
}

// NewBuffer creates an empty buffer.
func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Add appends item to the queue.
// Returns false if the buffer was sealed by the final drain; the item is
// not stored in that case.
func (b *Buffer[T]) Add(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return false
	}
	b.items = append(b.items, item)
	return true
}

// Take hands the current contents to the caller and leaves an empty queue.
// Returns nil if there is nothing pending.
func (b *Buffer[T]) Take() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.takeLocked()
}

// TakeAndSeal is Take for the final drain: once it returns, Add rejects
// every further item.
func (b *Buffer[T]) TakeAndSeal() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sealed = true
	return b.takeLocked()
}

func (b *Buffer[T]) takeLocked() []T {
	if len(b.items) == 0 {
		return nil
	}
	batch := b.items
	b.items = nil
	return batch
}

// Requeue puts a batch that failed to flush back at the head of the queue.
// Items added since the batch was taken stay behind it, in their order.
// Requeue is allowed on a sealed buffer.
func (b *Buffer[T]) Requeue(batch []T) {
	if len(batch) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	merged := make([]T, 0, len(batch)+len(b.items))
	merged = append(merged, batch...)
	merged = append(merged, b.items...)
	b.items = merged
}

// Len returns the number of pending items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Sealed reports whether TakeAndSeal has been called.
func (b *Buffer[T]) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}
