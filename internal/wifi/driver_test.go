package wifi

import (
	"strings"
	"testing"
)

func TestCredentials_String(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  string
	}{
		{"open network", Credentials{SSID: "cafe"}, "cafe (open)"},
		{"secured network", Credentials{SSID: "home", Password: "hunter22"}, "home (password: ****)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.creds.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if tt.creds.Password != "" && strings.Contains(got, tt.creds.Password) {
				t.Error("String() must not leak the password")
			}
		})
	}
}

func TestCredentials_Empty(t *testing.T) {
	if !(Credentials{}).Empty() {
		t.Error("zero credentials should be empty")
	}
	if (Credentials{SSID: "home"}).Empty() {
		t.Error("credentials with SSID should not be empty")
	}
}

func TestEventKind_String(t *testing.T) {
	kinds := map[EventKind]string{
		EventStarted:      "started",
		EventConnected:    "connected",
		EventDisconnected: "disconnected",
		EventGotAddress:   "got_address",
		EventKind(42):     "EventKind(42)",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
}
