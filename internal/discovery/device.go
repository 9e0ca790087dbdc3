package discovery

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TXT record keys published by a display bridge.
const (
	TXTPath    = "path"
	TXTAuth    = "auth"
	TXTVersion = "version"
	TXTDevice  = "device"

	// AuthToken marks a bridge that requires a bearer token.
	AuthToken = "jwt"
	// AuthNone marks an open bridge.
	AuthNone = "none"

	defaultPath = "/ws"
)

// Display represents a display bridge advertised on the local network
type Display struct {
	// Instance is the mDNS instance name (e.g., "netclock-kitchen")
	Instance string

	// Hostname is the mDNS hostname (e.g., "kitchen.local.")
	Hostname string

	// IP is the bridge address, IPv4 when the bridge has one
	IP string

	// Port is the bridge TCP port
	Port int

	// Metadata contains the TXT record data
	// Common fields: "path=/ws", "auth=jwt", "device=netclock"
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (d *Display) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Instance, d.Hostname, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// URL returns the websocket URL of the bridge.
func (d *Display) URL() string {
	path := d.GetMetadata(TXTPath)
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(d.IP, strconv.Itoa(d.Port)),
		Path:   path,
	}
	return u.String()
}

// RequiresAuth reports whether the bridge asks for a token.
func (d *Display) RequiresAuth() bool {
	return d.GetMetadata(TXTAuth) == AuthToken
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Display) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// TXT builds the TXT records a bridge advertises.
func TXT(device, version string, authRequired bool) []string {
	auth := AuthNone
	if authRequired {
		auth = AuthToken
	}
	txt := []string{
		TXTPath + "=" + defaultPath,
		TXTAuth + "=" + auth,
	}
	if device != "" {
		txt = append(txt, TXTDevice+"="+device)
	}
	if version != "" {
		txt = append(txt, TXTVersion+"="+version)
	}
	return txt
}

// parseTXT splits "key=value" records. A key without "=" maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}
