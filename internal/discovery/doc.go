// Package discovery advertises and finds netclock display bridges over mDNS.
//
// A bridge registers itself as a "_netclock._tcp" service. Its TXT records
// carry the websocket path, whether a token is required, and the device name:
//
//	path=/ws
//	auth=jwt
//	device=netclock
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	d, err := scanner.WaitForDisplay(ctx, "")
//	if err != nil {
//	    return err
//	}
//	client, err := display.Dial(ctx, d.URL(), token)
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridge and client must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
