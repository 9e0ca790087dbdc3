// Package wifi defines the connectivity driver capability driven by the
// network manager, and the events the driver reports back.
package wifi

import (
	"fmt"
	"net"
)

// Credentials identify the access point to join.
type Credentials struct {
	SSID     string `yaml:"ssid" json:"ssid"`
	Password string `yaml:"password,omitempty" json:"-"`
}

// Empty reports whether no network is configured
func (c Credentials) Empty() bool {
	return c.SSID == ""
}

// String returns the SSID with the password masked
func (c Credentials) String() string {
	if c.Password == "" {
		return fmt.Sprintf("%s (open)", c.SSID)
	}
	return fmt.Sprintf("%s (password: ****)", c.SSID)
}

// EventKind identifies an interface-level event.
type EventKind int

const (
	// EventStarted is emitted once the interface is up after Start.
	EventStarted EventKind = iota
	// EventConnected is emitted when association with the AP succeeds.
	EventConnected
	// EventDisconnected is emitted when a connect attempt fails or a link drops.
	EventDisconnected
	// EventGotAddress is emitted when the interface acquires an IP address.
	EventGotAddress
)

// String returns a human-readable name for the event kind
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventGotAddress:
		return "got_address"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to subscribers on the driver's own goroutine.
type Event struct {
	Kind EventKind
	// SSID is set for EventConnected
	SSID string
	// Reason is set for EventDisconnected
	Reason string
	// IP is set for EventGotAddress
	IP net.IP
}

// EventHandler receives driver events. Handlers run on the driver's event
// goroutine and must not block.
type EventHandler func(Event)

// Driver controls a station-mode network interface.
//
// InitNetif prepares process-wide networking and is called once. The
// remaining calls follow the interface lifecycle: Init, Start, Connect...,
// Disconnect, Stop, Deinit. Implementations must be safe for use from
// multiple goroutines, since event handlers may call Connect.
type Driver interface {
	InitNetif() error
	Init() error
	Start() error
	Stop() error
	Deinit() error
	Connect() error
	Disconnect() error
	SetCredentials(Credentials) error
	Credentials() (Credentials, error)

	// Subscribe registers h for all events and returns a function that
	// removes the registration. Events queued for delivery after
	// unsubscribing are not passed to h.
	Subscribe(h EventHandler) (unsubscribe func())
}
