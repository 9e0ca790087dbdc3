package sntp

import (
	"sync"
	"time"

	// Embedded zone data: the device image carries no /usr/share/zoneinfo.
	_ "time/tzdata"
)

// DefaultTimezone matches the POSIX rule EET-2EEST,M3.5.0/3,M10.5.0/4.
const DefaultTimezone = "Europe/Helsinki"

// Clock is the device wall clock. A successful sync stores the measured
// offset against the local system clock; the timezone is applied separately
// once a sync has succeeded.
type Clock struct {
	mu       sync.RWMutex
	offset   time.Duration
	loc      *time.Location
	lastSync time.Time
	now      func() time.Time
}

// NewClock creates a clock reporting UTC with no offset.
func NewClock() *Clock {
	return &Clock{loc: time.UTC, now: time.Now}
}

// Now returns the corrected time in the configured location.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset).In(c.loc)
}

// SetOffset records a new offset from a successful sync.
func (c *Clock) SetOffset(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
	c.lastSync = c.now()
}

// Offset returns the last applied offset.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// SetLocation sets the timezone used by Now. A nil location means UTC.
func (c *Clock) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loc = loc
}

// Location returns the timezone used by Now.
func (c *Clock) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

// LastSync returns the local time of the last successful sync, or the zero
// time if the clock was never synced.
func (c *Clock) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// Synced reports whether at least one sync succeeded.
func (c *Clock) Synced() bool {
	return !c.LastSync().IsZero()
}
