// Package display connects QR-capable displays to the network manager.
//
// The Server consumes the presentation queue and fans each event out to
// websocket clients as JSON frames, then releases the event's payload.
// Clients may send command frames, which are forwarded to the command queue
// without waiting for the result. A client that connects while a QR code is
// shown receives it immediately.
//
// When a token secret is configured, clients authenticate with an HS256
// bearer token. Viewers only receive frames; controllers may also send
// commands.
package display
