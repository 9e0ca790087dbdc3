package bus

import (
	"fmt"
	"sync/atomic"

	"github.com/muurk/netclock/internal/logging"
)

// DefaultDepth is the capacity used for both manager queues.
const DefaultDepth = 10

// Queue is a bounded FIFO with non-blocking send.
//
// Producers may run in contexts that must never stall, so a send to a full
// queue drops the item instead of waiting. Dropped items that implement
// Releaser are released immediately.
type Queue[T any] struct {
	name    string
	ch      chan T
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most depth items.
// A depth below 1 uses DefaultDepth.
func NewQueue[T any](name string, depth int) *Queue[T] {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Queue[T]{
		name: name,
		ch:   make(chan T, depth),
	}
}

// Name returns the queue name used in logs.
func (q *Queue[T]) Name() string {
	return q.name
}

// TrySend enqueues v without blocking. It returns false when the queue is
// full; in that case v has been released (if it owns a payload).
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
	}

	q.dropped.Add(1)
	logging.LogQueueDrop(q.name, describe(v))
	if r, ok := any(v).(Releaser); ok {
		r.Release()
	}
	return false
}

// TryReceive dequeues one item without blocking.
func (q *Queue[T]) TryReceive() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// C exposes the receive side for use in select statements.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue depth.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many sends were rejected because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
