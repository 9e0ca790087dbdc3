package bus

import "fmt"

// Command is a request consumed by the network manager.
// Commands carry no payload; every send is independent.
type Command int

const (
	// CommandSyncTime asks for a clock resync, starting the radio with
	// stored credentials if needed.
	CommandSyncTime Command = iota
	// CommandInitWifi forces a fresh provisioning session.
	CommandInitWifi
)

// String returns the wire name of the command
func (c Command) String() string {
	switch c {
	case CommandSyncTime:
		return "sync_time"
	case CommandInitWifi:
		return "init_wifi"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand converts a wire name back into a Command.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "sync_time":
		return CommandSyncTime, nil
	case "init_wifi":
		return CommandInitWifi, nil
	default:
		return 0, fmt.Errorf("unknown command %q", s)
	}
}

// EventType identifies a presentation event.
type EventType int

const (
	// EventShowQR asks the display to show a provisioning QR code.
	EventShowQR EventType = iota
	// EventHideQR asks the display to remove the QR code.
	EventHideQR
)

// String returns the wire name of the event type
func (t EventType) String() string {
	switch t {
	case EventShowQR:
		return "show_qr"
	case EventHideQR:
		return "hide_qr"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// PresentationEvent is produced by the network manager for a display consumer.
//
// A ShowQR event owns its URI payload. Whoever ends up holding the event,
// the consumer after use or the queue on drop, must call Release.
type PresentationEvent struct {
	Type EventType
	URI  *Payload
}

// ShowQR builds a ShowQR event that takes ownership of uri.
func ShowQR(uri *Payload) PresentationEvent {
	return PresentationEvent{Type: EventShowQR, URI: uri}
}

// HideQR builds a HideQR event.
func HideQR() PresentationEvent {
	return PresentationEvent{Type: EventHideQR}
}

// Release frees the URI payload, if any.
func (e PresentationEvent) Release() {
	e.URI.Release()
}

// String implements fmt.Stringer
func (e PresentationEvent) String() string {
	return e.Type.String()
}
