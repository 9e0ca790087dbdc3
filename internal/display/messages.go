package display

import (
	"time"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/netmgr"
)

// FrameType identifies a JSON frame on the display socket.
type FrameType string

const (
	FrameShowQR  FrameType = "show_qr"
	FrameHideQR  FrameType = "hide_qr"
	FrameStatus  FrameType = "status"
	FrameCommand FrameType = "command" // client to bridge
	FrameError   FrameType = "error"
)

// Frame is the single message shape exchanged with display clients.
//
//	{"type":"show_qr","uri":"DPP:C:81/6;K:...;;"}
//	{"type":"hide_qr"}
//	{"type":"status","status":{...},"time":"..."}
//	{"type":"command","command":"init_wifi"}
type Frame struct {
	Type    FrameType      `json:"type"`
	URI     string         `json:"uri,omitempty"`
	Command string         `json:"command,omitempty"`
	Status  *netmgr.Status `json:"status,omitempty"`
	Time    *time.Time     `json:"time,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// frameFor copies a presentation event into a frame. The event keeps
// ownership of its payload.
func frameFor(ev bus.PresentationEvent) (Frame, bool) {
	switch ev.Type {
	case bus.EventShowQR:
		return Frame{Type: FrameShowQR, URI: ev.URI.String()}, true
	case bus.EventHideQR:
		return Frame{Type: FrameHideQR}, true
	default:
		return Frame{}, false
	}
}

// StatusFrame wraps a manager snapshot taken at now.
func StatusFrame(s netmgr.Status, now time.Time) Frame {
	return Frame{Type: FrameStatus, Status: &s, Time: &now}
}

// CommandFrame builds a command request.
func CommandFrame(cmd bus.Command) Frame {
	return Frame{Type: FrameCommand, Command: cmd.String()}
}

func errorFrame(msg string) Frame {
	return Frame{Type: FrameError, Error: msg}
}
