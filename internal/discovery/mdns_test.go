package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "IPv4 bridge",
			entry:    entry("kitchen", "kitchen.local.", 8787, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/ws"),
			wantIP:   "192.168.4.16",
			wantPort: 8787,
		},
		{
			name:     "IPv6 only bridge",
			entry:    entry("hall", "hall.local.", 8787, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 8787,
		},
		{
			name: "prefers IPv4",
			entry: entry("desk", "desk.local.", 9000,
				[]net.IP{net.ParseIP("10.0.0.5")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name:    "no address",
			entry:   entry("ghost", "ghost.local.", 8787, nil, nil),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   entry("portless", "portless.local.", 0, []net.IP{net.ParseIP("10.0.0.9")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if d != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", d)
				}
				return
			}
			if d == nil {
				t.Fatal("parseServiceEntry() = nil, want display")
			}

			if d.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", d.IP, tt.wantIP)
			}
			if d.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", d.Port, tt.wantPort)
			}
			if d.Instance != tt.entry.Instance {
				t.Errorf("Instance = %v, want %v", d.Instance, tt.entry.Instance)
			}
			if d.Hostname != tt.entry.HostName {
				t.Errorf("Hostname = %v, want %v", d.Hostname, tt.entry.HostName)
			}
			if time.Since(d.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", d.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	e := entry("kitchen", "kitchen.local.", 8787, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		"path=/ws", "auth=jwt", "flag", "=orphan", "note=a=b")

	d := parseServiceEntry(e)
	if d == nil {
		t.Fatal("parseServiceEntry() = nil, want display")
	}

	want := map[string]string{
		"path": "/ws",
		"auth": "jwt",
		"flag": "",
		"note": "a=b",
	}
	if len(d.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d: %v", len(d.Metadata), len(want), d.Metadata)
	}
	for key, value := range want {
		if got, ok := d.Metadata[key]; !ok {
			t.Errorf("Metadata missing key %q", key)
		} else if got != value {
			t.Errorf("Metadata[%q] = %q, want %q", key, got, value)
		}
	}
	if !d.RequiresAuth() {
		t.Error("RequiresAuth() = false, want true")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
