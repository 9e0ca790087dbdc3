package sim

import (
	"sync"
)

// Loop is a single-goroutine event loop shared by the simulated radio and
// enrollee, in the manner of a platform default event loop. Posted
// functions run in FIFO order; posting never blocks, so handlers running on
// the loop may post further events.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewLoop starts an event loop.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post schedules fn on the loop goroutine. It returns false once the loop
// is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Flush blocks until everything posted before the call has run.
// It must not be called from the loop goroutine.
func (l *Loop) Flush() {
	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		return
	}
	select {
	case <-ran:
	case <-l.done:
	}
}

// Close stops the loop. Pending functions are discarded.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	l.cond.Signal()
	l.mu.Unlock()

	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// registry holds event subscriptions in registration order.
type registry[E any] struct {
	mu      sync.Mutex
	nextID  int
	entries []entry[E]
}

type entry[E any] struct {
	id int
	fn func(E)
}

func (r *registry[E]) add(fn func(E)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[E]{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.entries {
			if e.id == id {
				r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
				return
			}
		}
	}
}

func (r *registry[E]) snapshot() []func(E) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fns := make([]func(E), len(r.entries))
	for i, e := range r.entries {
		fns[i] = e.fn
	}
	return fns
}

func (r *registry[E]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// dispatch posts ev to the handlers subscribed when it is delivered.
func dispatch[E any](l *Loop, r *registry[E], ev E) {
	l.Post(func() {
		for _, fn := range r.snapshot() {
			fn(ev)
		}
	})
}
