package dpp

import (
	"fmt"

	"github.com/muurk/netclock/internal/wifi"
)

// EventKind identifies a provisioning event.
type EventKind int

const (
	// EventURIReady carries the bootstrapping URI to show as a QR code.
	EventURIReady EventKind = iota
	// EventCredentialsReceived carries network credentials pushed by a configurator.
	EventCredentialsReceived
	// EventFailed reports a failed authentication or configuration exchange.
	EventFailed
)

// String returns a human-readable name for the event kind
func (k EventKind) String() string {
	switch k {
	case EventURIReady:
		return "uri_ready"
	case EventCredentialsReceived:
		return "credentials_received"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to subscribers on the provisioning service's event goroutine.
type Event struct {
	Kind        EventKind
	URI         string
	Credentials wifi.Credentials
	Reason      error
}

// EventHandler receives provisioning events and must not block.
type EventHandler func(Event)

// Enrollee is the device side of a DPP exchange. The protocol internals are
// opaque: Bootstrap leads to an EventURIReady, and a listening enrollee
// eventually reports EventCredentialsReceived or EventFailed.
type Enrollee interface {
	Init() error
	// Bootstrap generates bootstrapping information for the given channel
	// list (e.g. "6" or "1,6,11") and device description.
	Bootstrap(channels string, deviceInfo string) error
	StartListen() error
	StopListen() error
	Deinit() error
	Subscribe(h EventHandler) (unsubscribe func())
}
