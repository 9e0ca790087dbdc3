package display

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/logging"
)

// LogConsumer drains the presentation queue into the log. It stands in for
// the bridge when no display is configured, so QR payloads are still
// released.
func LogConsumer(ctx context.Context, q *bus.Queue[bus.PresentationEvent]) {
	for {
		select {
		case <-ctx.Done():
			drain(q)
			return
		case ev := <-q.C():
			switch ev.Type {
			case bus.EventShowQR:
				logging.Info("Scan to provision", zap.String("uri", ev.URI.String()))
			case bus.EventHideQR:
				logging.Info("Provisioning QR code hidden")
			}
			ev.Release()
		}
	}
}

func drain(q *bus.Queue[bus.PresentationEvent]) {
	for {
		ev, ok := q.TryReceive()
		if !ok {
			return
		}
		ev.Release()
	}
}
