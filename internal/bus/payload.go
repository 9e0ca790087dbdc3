package bus

import (
	"sync/atomic"
)

// Releaser is implemented by queue items that own a payload. The bus calls
// Release on items it drops; consumers call it after using a received item.
type Releaser interface {
	Release()
}

// Tracker counts payload allocations and releases so tests (and the status
// endpoint) can verify that nothing handed across a queue is leaked.
// A nil *Tracker is valid and tracks nothing.
type Tracker struct {
	allocated atomic.Int64
	released  atomic.Int64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Allocated returns the number of payloads created through t.
func (t *Tracker) Allocated() int64 {
	if t == nil {
		return 0
	}
	return t.allocated.Load()
}

// Released returns the number of payloads released.
func (t *Tracker) Released() int64 {
	if t == nil {
		return 0
	}
	return t.released.Load()
}

// Outstanding returns payloads allocated but not yet released.
func (t *Tracker) Outstanding() int64 {
	return t.Allocated() - t.Released()
}

// NewPayload allocates an owned text payload.
func (t *Tracker) NewPayload(text string) *Payload {
	if t != nil {
		t.allocated.Add(1)
	}
	return &Payload{text: text, tracker: t}
}

// Payload is an owned string handed from a producer to exactly one consumer.
type Payload struct {
	text     string
	tracker  *Tracker
	released atomic.Bool
}

// NewPayload allocates an untracked payload.
func NewPayload(text string) *Payload {
	return (*Tracker)(nil).NewPayload(text)
}

// String returns the payload text. It is empty after Release.
func (p *Payload) String() string {
	if p == nil || p.released.Load() {
		return ""
	}
	return p.text
}

// Release gives the payload back. Releasing twice is a no-op.
func (p *Payload) Release() {
	if p == nil || !p.released.CompareAndSwap(false, true) {
		return
	}
	if p.tracker != nil {
		p.tracker.released.Add(1)
	}
}

// Released reports whether Release has been called.
func (p *Payload) Released() bool {
	return p != nil && p.released.Load()
}
