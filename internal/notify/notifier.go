package notify

import (
	"context"
	"sync"
)

// Notifier is a single-slot signal with overwrite semantics.
//
// Any number of producers may call Notify; a value written before the
// previous one was consumed replaces it. A single consumer takes the value
// with Wait, which clears the slot.
type Notifier[T any] struct {
	mu   sync.Mutex
	slot chan T
}

// New creates an empty notifier.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{slot: make(chan T, 1)}
}

// Notify stores v, replacing any unread value. It never blocks.
func (n *Notifier[T]) Notify(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()

	select {
	case <-n.slot:
	default:
	}
	n.slot <- v
}

// Wait blocks until a value is available or ctx is done.
// The returned value is removed from the slot.
func (n *Notifier[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-n.slot:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Clear discards a pending value, if any.
func (n *Notifier[T]) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	select {
	case <-n.slot:
	default:
	}
}

// Pending reports whether an unread value is stored.
func (n *Notifier[T]) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.slot) == 1
}
