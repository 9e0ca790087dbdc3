package sim

import (
	"sync"
	"testing"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	l.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d functions, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestLoop_PostFromLoop(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})
	<-done
}

func TestLoop_Close(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()

	if l.Post(func() {}) {
		t.Error("Post() after Close should return false")
	}
	l.Flush()
}

func TestRegistry_Unsubscribe(t *testing.T) {
	var r registry[int]
	var a, b int

	unsubA := r.add(func(v int) { a += v })
	r.add(func(v int) { b += v })

	if r.count() != 2 {
		t.Fatalf("count() = %d, want 2", r.count())
	}

	unsubA()
	unsubA()
	for _, fn := range r.snapshot() {
		fn(5)
	}

	if a != 0 || b != 5 {
		t.Errorf("a = %d, b = %d; want 0 and 5", a, b)
	}
	if r.count() != 1 {
		t.Errorf("count() = %d, want 1", r.count())
	}
}
