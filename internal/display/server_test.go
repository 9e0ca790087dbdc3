package display

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/netmgr"
)

type bridge struct {
	srv          *Server
	ts           *httptest.Server
	presentation *bus.Queue[bus.PresentationEvent]
	commands     *bus.Queue[bus.Command]
	payloads     *bus.Tracker
}

func newBridge(t *testing.T, cfg ServerConfig, status StatusFunc) *bridge {
	t.Helper()

	if cfg.StatusInterval == 0 {
		cfg.StatusInterval = time.Hour
	}
	b := &bridge{
		presentation: bus.NewQueue[bus.PresentationEvent]("presentation", bus.DefaultDepth),
		commands:     bus.NewQueue[bus.Command]("commands", 1),
		payloads:     bus.NewTracker(),
	}
	b.srv = NewServer(cfg, b.presentation, b.commands, status)
	b.ts = httptest.NewServer(b.srv.Handler())
	t.Cleanup(b.ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.srv.Pump(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		b.srv.closeClients()
	})
	return b
}

func (b *bridge) url() string {
	return URL(strings.TrimPrefix(b.ts.URL, "http://"))
}

func (b *bridge) dial(t *testing.T, token string) *Client {
	t.Helper()
	baseline := b.srv.Clients()
	want := baseline + 1

	c, err := Dial(context.Background(), b.url(), token)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	// Unregistration is asynchronous; wait for it so the next dial in
	// this bridge starts from a settled count.
	t.Cleanup(func() {
		_ = c.Close()
		eventually(t, "client unregistered", func() bool { return b.srv.Clients() <= baseline })
	})

	eventually(t, "client registered", func() bool { return b.srv.Clients() == want })
	return c
}

func (b *bridge) showQR(uri string) {
	b.presentation.TrySend(bus.ShowQR(b.payloads.NewPayload(uri)))
}

func next(t *testing.T, c *Client) Frame {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	f, err := c.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	return f
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestServer_BroadcastsPresentation(t *testing.T) {
	b := newBridge(t, ServerConfig{}, nil)
	first := b.dial(t, "")
	second := b.dial(t, "")

	b.showQR("DPP:C:81/6;K:abc;;")
	b.presentation.TrySend(bus.HideQR())

	for _, c := range []*Client{first, second} {
		f := next(t, c)
		if f.Type != FrameShowQR || f.URI != "DPP:C:81/6;K:abc;;" {
			t.Errorf("first frame = %+v, want show_qr", f)
		}
		if f := next(t, c); f.Type != FrameHideQR {
			t.Errorf("second frame = %+v, want hide_qr", f)
		}
	}

	eventually(t, "payload released", func() bool { return b.payloads.Outstanding() == 0 })
	if b.srv.CurrentQR() != "" {
		t.Errorf("CurrentQR() = %q after hide, want empty", b.srv.CurrentQR())
	}
}

func TestServer_LateJoinerGetsCurrentQR(t *testing.T) {
	b := newBridge(t, ServerConfig{}, nil)

	b.showQR("DPP:K:late;;")
	eventually(t, "qr recorded", func() bool { return b.srv.CurrentQR() != "" })

	c := b.dial(t, "")
	if f := next(t, c); f.Type != FrameShowQR || f.URI != "DPP:K:late;;" {
		t.Errorf("first frame = %+v, want current show_qr", f)
	}
	if got := b.payloads.Outstanding(); got != 0 {
		t.Errorf("outstanding payloads = %d, want 0", got)
	}
}

func TestServer_StatusFrames(t *testing.T) {
	status := func() netmgr.Status {
		return netmgr.Status{State: netmgr.StateConnected, RadioOn: true, SSID: "home"}
	}
	b := newBridge(t, ServerConfig{StatusInterval: 10 * time.Millisecond}, status)
	c := b.dial(t, "")

	// Only Pump runs here, so the one frame is the snapshot sent on connect.
	f := next(t, c)
	if f.Type != FrameStatus || f.Status == nil {
		t.Fatalf("first frame = %+v, want status", f)
	}
	if f.Status.State != netmgr.StateConnected || f.Status.SSID != "home" {
		t.Errorf("status = %+v", f.Status)
	}
	if f.Time == nil || f.Time.IsZero() {
		t.Error("status frame should carry a timestamp")
	}

	resp, err := http.Get(b.ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status error = %v", err)
	}
	defer resp.Body.Close()

	var got netmgr.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !got.RadioOn || got.State != netmgr.StateConnected {
		t.Errorf("GET /status = %+v", got)
	}
}

func TestServer_Commands(t *testing.T) {
	b := newBridge(t, ServerConfig{}, nil)
	c := b.dial(t, "")

	if err := c.SendCommand(bus.CommandInitWifi); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}

	var got bus.Command
	eventually(t, "command queued", func() bool {
		cmd, ok := b.commands.TryReceive()
		got = cmd
		return ok
	})
	if got != bus.CommandInitWifi {
		t.Errorf("queued command = %v, want init_wifi", got)
	}

	// The command queue holds one entry; the second send is dropped.
	b.commands.TrySend(bus.CommandSyncTime)
	if err := c.SendCommand(bus.CommandSyncTime); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if f := next(t, c); f.Type != FrameError || !strings.Contains(f.Error, "queue full") {
		t.Errorf("frame = %+v, want queue full error", f)
	}
	if b.commands.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.commands.Dropped())
	}
}

func TestServer_RejectsBadFrames(t *testing.T) {
	b := newBridge(t, ServerConfig{}, nil)
	c := b.dial(t, "")

	tests := []struct {
		name    string
		frame   Frame
		wantErr string
	}{
		{"unknown type", Frame{Type: "dance"}, "unsupported frame type"},
		{"unknown command", Frame{Type: FrameCommand, Command: "reboot"}, "reboot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.conn.WriteJSON(tt.frame); err != nil {
				t.Fatalf("WriteJSON() error = %v", err)
			}
			f := next(t, c)
			if f.Type != FrameError || !strings.Contains(f.Error, tt.wantErr) {
				t.Errorf("frame = %+v, want error mentioning %q", f, tt.wantErr)
			}
		})
	}

	if _, ok := b.commands.TryReceive(); ok {
		t.Error("no command should be queued")
	}
}

func TestServer_Authentication(t *testing.T) {
	v, _ := NewVerifier("s3cret")
	b := newBridge(t, ServerConfig{Verifier: v}, nil)

	t.Run("missing token", func(t *testing.T) {
		_, err := Dial(context.Background(), b.url(), "")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Dial() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("status requires token", func(t *testing.T) {
		resp, err := http.Get(b.ts.URL + "/status")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status code = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("viewer cannot command", func(t *testing.T) {
		token, _ := IssueToken("s3cret", "viewer", RoleViewer, time.Hour)
		c := b.dial(t, token)

		if err := c.SendCommand(bus.CommandInitWifi); err != nil {
			t.Fatalf("SendCommand() error = %v", err)
		}
		if f := next(t, c); f.Type != FrameError || !strings.Contains(f.Error, "viewer") {
			t.Errorf("frame = %+v, want role error", f)
		}
		if _, ok := b.commands.TryReceive(); ok {
			t.Error("viewer command should not be queued")
		}
	})

	eventually(t, "viewer unregistered", func() bool { return b.srv.Clients() == 0 })

	t.Run("controller can command", func(t *testing.T) {
		token, _ := IssueToken("s3cret", "panel", RoleController, time.Hour)
		c := b.dial(t, token)

		if err := c.SendCommand(bus.CommandSyncTime); err != nil {
			t.Fatalf("SendCommand() error = %v", err)
		}
		eventually(t, "command queued", func() bool {
			cmd, ok := b.commands.TryReceive()
			return ok && cmd == bus.CommandSyncTime
		})
	})
}

func TestServer_ServeShutdown(t *testing.T) {
	presentation := bus.NewQueue[bus.PresentationEvent]("presentation", 4)
	payloads := bus.NewTracker()
	srv := NewServer(ServerConfig{}, presentation, bus.NewQueue[bus.Command]("commands", 4), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	eventually(t, "bound address", func() bool { return srv.Addr() != nil })
	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	c, err := Dial(context.Background(), URL(srv.Addr().String()), "")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()
	eventually(t, "client registered", func() bool { return srv.Clients() == 1 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}

	// Events left behind at shutdown are still released.
	presentation.TrySend(bus.ShowQR(payloads.NewPayload("DPP:K:x;;")))
	drain(presentation)
	if payloads.Outstanding() != 0 {
		t.Errorf("outstanding payloads = %d, want 0", payloads.Outstanding())
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.Next(); err == nil {
		t.Error("client should be disconnected after shutdown")
	}
}

func TestLogConsumer_ReleasesPayloads(t *testing.T) {
	q := bus.NewQueue[bus.PresentationEvent]("presentation", 4)
	payloads := bus.NewTracker()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		LogConsumer(ctx, q)
		close(done)
	}()

	q.TrySend(bus.ShowQR(payloads.NewPayload("DPP:K:one;;")))
	q.TrySend(bus.HideQR())
	eventually(t, "queue drained", func() bool { return q.Len() == 0 && payloads.Outstanding() == 0 })

	cancel()
	<-done

	if payloads.Allocated() != 1 || payloads.Released() != 1 {
		t.Errorf("allocated = %d, released = %d; want 1 and 1", payloads.Allocated(), payloads.Released())
	}
}
