// Package dpp describes the provisioning service used when the device has no
// network credentials.
//
// The device acts as a DPP (Wi-Fi Easy Connect) enrollee. It publishes a
// bootstrapping URI, shown to the user as a QR code, and waits for a
// configurator (typically a phone) to push credentials. The cryptographic
// exchange is handled by the Enrollee implementation; this package only
// defines its capability set, its events and the URI format.
//
// # Bootstrapping URI
//
//	DPP:C:81/6;M:c4be84748637;I:netclock;K:<base64 DER public key>;;
//
//   - C: listen channels as operating-class/channel pairs
//   - M: MAC address (optional)
//   - I: free-form device information
//   - K: the enrollee's public bootstrapping key (required)
package dpp
