package discovery

import (
	"testing"
)

func TestDisplay_String(t *testing.T) {
	d := &Display{
		Instance: "kitchen",
		Hostname: "kitchen.local.",
		IP:       "192.168.4.16",
		Port:     8787,
	}

	expected := "kitchen (kitchen.local.) at 192.168.4.16:8787"
	if d.String() != expected {
		t.Errorf("Display.String() = %v, want %v", d.String(), expected)
	}
}

func TestDisplay_URL(t *testing.T) {
	tests := []struct {
		name     string
		display  *Display
		expected string
	}{
		{
			name:     "default path",
			display:  &Display{IP: "192.168.4.16", Port: 8787},
			expected: "ws://192.168.4.16:8787/ws",
		},
		{
			name: "advertised path",
			display: &Display{
				IP:       "10.0.0.5",
				Port:     9000,
				Metadata: map[string]string{TXTPath: "clock"},
			},
			expected: "ws://10.0.0.5:9000/clock",
		},
		{
			name:     "IPv6",
			display:  &Display{IP: "fe80::1", Port: 8787},
			expected: "ws://[fe80::1]:8787/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.display.URL(); got != tt.expected {
				t.Errorf("Display.URL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDisplay_GetMetadata(t *testing.T) {
	d := &Display{Metadata: map[string]string{TXTDevice: "netclock"}}

	if got := d.GetMetadata(TXTDevice); got != "netclock" {
		t.Errorf("GetMetadata(device) = %q, want netclock", got)
	}
	if got := d.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	var empty Display
	if got := empty.GetMetadata(TXTDevice); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q, want empty", got)
	}
	if empty.RequiresAuth() {
		t.Error("RequiresAuth() without metadata should be false")
	}
}

func TestTXT(t *testing.T) {
	tests := []struct {
		name    string
		device  string
		version string
		auth    bool
		want    map[string]string
	}{
		{
			name:    "open bridge",
			device:  "netclock",
			version: "v1.0.0",
			want:    map[string]string{"path": "/ws", "auth": "none", "device": "netclock", "version": "v1.0.0"},
		},
		{
			name: "token bridge without extras",
			auth: true,
			want: map[string]string{"path": "/ws", "auth": "jwt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTXT(TXT(tt.device, tt.version, tt.auth))
			if len(got) != len(tt.want) {
				t.Fatalf("TXT() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("TXT()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
