package bus

import (
	"sync"
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[Command]("commands", 3)

	q.TrySend(CommandSyncTime)
	q.TrySend(CommandInitWifi)

	first, ok := q.TryReceive()
	if !ok || first != CommandSyncTime {
		t.Fatalf("first = %v, %v; want sync_time, true", first, ok)
	}
	second, ok := q.TryReceive()
	if !ok || second != CommandInitWifi {
		t.Fatalf("second = %v, %v; want init_wifi, true", second, ok)
	}
	if _, ok := q.TryReceive(); ok {
		t.Error("TryReceive() on empty queue should return false")
	}
}

func TestQueue_DefaultDepth(t *testing.T) {
	q := NewQueue[Command]("commands", 0)
	if q.Cap() != DefaultDepth {
		t.Errorf("Cap() = %d, want %d", q.Cap(), DefaultDepth)
	}
}

func TestQueue_DropOnFull(t *testing.T) {
	q := NewQueue[Command]("commands", 2)

	for i := 0; i < 2; i++ {
		if !q.TrySend(CommandSyncTime) {
			t.Fatalf("send %d should succeed", i)
		}
	}
	if q.TrySend(CommandInitWifi) {
		t.Fatal("send to full queue should fail")
	}
	if q.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", q.Dropped())
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueue_DroppedPayloadIsReleased(t *testing.T) {
	tracker := NewTracker()
	q := NewQueue[PresentationEvent]("presentation", 1)

	if !q.TrySend(HideQR()) {
		t.Fatal("first send should succeed")
	}

	uri := tracker.NewPayload("DPP:C:81/6;I:netclock;K:abc;;")
	if q.TrySend(ShowQR(uri)) {
		t.Fatal("send to full queue should fail")
	}

	if !uri.Released() {
		t.Error("dropped ShowQR payload should be released")
	}
	if tracker.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", tracker.Outstanding())
	}
}

func TestQueue_ConsumerReleases(t *testing.T) {
	tracker := NewTracker()
	q := NewQueue[PresentationEvent]("presentation", 4)

	q.TrySend(ShowQR(tracker.NewPayload("DPP:one;;")))
	q.TrySend(ShowQR(tracker.NewPayload("DPP:two;;")))

	if tracker.Outstanding() != 2 {
		t.Fatalf("Outstanding() = %d, want 2", tracker.Outstanding())
	}

	for {
		ev, ok := q.TryReceive()
		if !ok {
			break
		}
		if ev.URI.String() == "" {
			t.Error("received payload should carry text")
		}
		ev.Release()
	}

	if tracker.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", tracker.Outstanding())
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue[Command]("commands", 10)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.TrySend(CommandSyncTime)
		}()
	}
	wg.Wait()

	if q.Len() != 10 {
		t.Errorf("Len() = %d, want 10", q.Len())
	}
	if q.Dropped() != 15 {
		t.Errorf("Dropped() = %d, want 15", q.Dropped())
	}
}
