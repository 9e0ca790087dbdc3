// Package bus provides the two bounded queues that connect the network
// manager to the rest of the device.
//
// The inbound command queue carries Command values (sync_time, init_wifi)
// from any caller to the manager. The outbound presentation queue carries
// PresentationEvent values (show_qr, hide_qr) from the manager to a display
// consumer.
//
// # Backpressure
//
// Sends never block. Producers include driver event handlers, which must not
// stall, so a full queue drops the item and logs a warning. Items that own a
// payload are released on drop.
//
// # Payload Ownership
//
// The URI carried by a ShowQR event is a *Payload. Ownership transfers with
// the event: the consumer must call Release once it has displayed the URI.
// A Tracker counts allocations and releases for leak checks:
//
//	tracker := bus.NewTracker()
//	q := bus.NewQueue[bus.PresentationEvent]("presentation", bus.DefaultDepth)
//	q.TrySend(bus.ShowQR(tracker.NewPayload(uri)))
//	...
//	ev, _ := q.TryReceive()
//	show(ev.URI.String())
//	ev.Release()
package bus
