package main

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/config"
	"github.com/muurk/netclock/internal/display"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { configForce, configGenerateSecret = false, false })

	if _, err := execute(t, "config", "init", "--config", path, "--generate-secret"); err != nil {
		t.Fatalf("config init error = %v", err)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(saved.Display.TokenSecret) != 64 {
		t.Errorf("token secret = %q, want 64 hex chars", saved.Display.TokenSecret)
	}

	if _, err := execute(t, "config", "init", "--config", path); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"max_retries: 3", "timezone: Europe/Helsinki", "sync_interval: 4h0m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := config.Default()
	c.Display.TokenSecret = "s3cret"
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tokenRole, tokenTTL = display.RoleController, 24*time.Hour })

	out, err := execute(t, "token", "--config", path, "--role", "viewer")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}

	v, _ := display.NewVerifier("s3cret")
	claims, err := v.VerifyToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.Role != display.RoleViewer {
		t.Errorf("role = %q, want viewer", claims.Role)
	}

	if _, err := execute(t, "token", "--config", path, "--ttl", "-1h"); err == nil {
		t.Error("token should refuse a negative --ttl")
	}
}

func TestSendCommand(t *testing.T) {
	commands := bus.NewQueue[bus.Command]("commands", 1)
	presentation := bus.NewQueue[bus.PresentationEvent]("presentation", 1)
	srv := display.NewServer(display.ServerConfig{}, presentation, commands, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := display.URL(strings.TrimPrefix(ts.URL, "http://"))
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { bridgeURL = "" })

	out, err := execute(t, "send", "sync_time", "--config", cfgPath, "--url", url, "--wait", "100ms")
	if err != nil {
		t.Fatalf("send error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Command sent") {
		t.Errorf("output:\n%s", out)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if cmd, ok := commands.TryReceive(); ok {
			if cmd != bus.CommandSyncTime {
				t.Errorf("queued %v, want sync_time", cmd)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("command never reached the queue")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Fill the queue: the next send is refused.
	commands.TrySend(bus.CommandInitWifi)
	if _, err := execute(t, "send", "init_wifi", "--config", cfgPath, "--url", url, "--wait", "2s"); err == nil {
		t.Error("send should fail when the bridge refuses the command")
	}

	if _, err := execute(t, "send", "reboot", "--config", cfgPath, "--url", url); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "netclock ") {
		t.Errorf("version output = %q", out)
	}
}

func TestListenPort(t *testing.T) {
	tests := []struct {
		name    string
		addr    net.Addr
		want    int
		wantErr bool
	}{
		{"tcp", &net.TCPAddr{IP: net.IPv4zero, Port: 8787}, 8787, false},
		{"ipv6", &net.TCPAddr{IP: net.IPv6loopback, Port: 9000}, 9000, false},
		{"zero port", &net.TCPAddr{IP: net.IPv4zero}, 0, true},
		{"unix", &net.UnixAddr{Name: "/tmp/bridge.sock", Net: "unix"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := listenPort(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("listenPort() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("listenPort() = %d, want %d", got, tt.want)
			}
		})
	}
}
