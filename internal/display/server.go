package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/logging"
	"github.com/muurk/netclock/internal/netmgr"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// DefaultSendBuffer is the number of frames queued per client before
	// frames for that client are dropped.
	DefaultSendBuffer = 16

	// DefaultStatusInterval is how often status frames are broadcast.
	DefaultStatusInterval = time.Second

	// Path is the websocket endpoint.
	Path = "/ws"
)

// StatusFunc returns the current manager snapshot.
type StatusFunc func() netmgr.Status

// ServerConfig holds the bridge configuration
type ServerConfig struct {
	Listen         string
	Verifier       *Verifier // nil disables authentication
	StatusInterval time.Duration
	SendBuffer     int
}

// Server bridges the presentation queue to websocket display clients and
// forwards their commands to the command queue.
type Server struct {
	cfg          ServerConfig
	presentation *bus.Queue[bus.PresentationEvent]
	commands     *bus.Queue[bus.Command]
	status       StatusFunc
	upgrader     websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	lastQR  string

	addrMu sync.Mutex
	addr   net.Addr
}

// NewServer creates a bridge. status may be nil, in which case no status
// frames are sent.
func NewServer(cfg ServerConfig, presentation *bus.Queue[bus.PresentationEvent], commands *bus.Queue[bus.Command], status StatusFunc) *Server {
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	return &Server{
		cfg:          cfg,
		presentation: presentation,
		commands:     commands,
		status:       status,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Display clients are local tools, not browsers on other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes of the bridge.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe binds cfg.Listen and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the bridge on ln until ctx is done: the HTTP server, the
// presentation pump and the status ticker.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Pump(ctx)
	}()
	go func() {
		defer wg.Done()
		s.statusLoop(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Display bridge listening", zap.String("addr", ln.Addr().String()))
		errCh <- httpServer.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
		<-errCh
	case err = <-errCh:
	}

	s.closeClients()
	wg.Wait()
	logging.Info("Display bridge stopped")

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Pump consumes the presentation queue until ctx is done. Every event is
// broadcast and then released; events still queued at shutdown are only
// released.
func (s *Server) Pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			drain(s.presentation)
			return
		case ev := <-s.presentation.C():
			s.present(ev)
		}
	}
}

func (s *Server) present(ev bus.PresentationEvent) {
	defer ev.Release()

	frame, ok := frameFor(ev)
	if !ok {
		logging.Warn("Unknown presentation event", zap.Stringer("event", ev))
		return
	}

	// Queue under the write lock so a joining client sees either the old
	// state and this frame, or only the new state.
	s.mu.Lock()
	defer s.mu.Unlock()
	if frame.Type == FrameShowQR {
		s.lastQR = frame.URI
	} else {
		s.lastQR = ""
	}
	for c := range s.clients {
		c.queue(frame)
	}
}

func (s *Server) statusLoop(ctx context.Context) {
	if s.status == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.broadcast(StatusFrame(s.status(), now))
		}
	}
}

// broadcast queues frame for every client without blocking.
func (s *Server) broadcast(frame Frame) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.queue(frame)
	}
}

// Clients returns the number of connected display clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// CurrentQR returns the URI on display, or "" when no QR code is shown.
func (s *Server) CurrentQR() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQR
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.status == nil {
		http.Error(w, "status unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		logging.Debug("Failed to write status", zap.Error(err))
	}
}

// authorize returns the caller's claims. Without a verifier every caller
// is a controller.
func (s *Server) authorize(r *http.Request) (*Claims, error) {
	if s.cfg.Verifier == nil {
		return &Claims{Role: RoleController}, nil
	}
	return s.cfg.Verifier.VerifyToken(tokenFromRequest(r))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authorize(r)
	if err != nil {
		logging.Warn("Rejected display client",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn:   conn,
		remote: r.RemoteAddr,
		claims: claims,
		send:   make(chan Frame, s.cfg.SendBuffer),
		done:   make(chan struct{}),
	}

	// Late joiners get the QR code currently on display.
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.lastQR != "" {
		c.queue(Frame{Type: FrameShowQR, URI: s.lastQR})
	}
	s.mu.Unlock()

	logging.LogConnection(c.remote, "display_connected")
	if s.status != nil {
		c.queue(StatusFrame(s.status(), time.Now()))
	}

	go c.writePump()
	s.readPump(c)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	logging.LogConnection(c.remote, "display_closed")
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// readPump serves frames from one client until it disconnects.
func (s *Server) readPump(c *client) {
	defer s.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Display connection closed with error",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}
		s.handleFrame(c, frame)
	}
}

func (s *Server) handleFrame(c *client, frame Frame) {
	if frame.Type != FrameCommand {
		c.queue(errorFrame(fmt.Sprintf("unsupported frame type %q", frame.Type)))
		return
	}
	if !c.claims.CanCommand() {
		c.queue(errorFrame("role " + c.claims.Role + " may not send commands"))
		return
	}

	cmd, err := bus.ParseCommand(frame.Command)
	if err != nil {
		c.queue(errorFrame(err.Error()))
		return
	}

	logging.Info("Display command received",
		zap.String("remote_addr", c.remote),
		zap.Stringer("command", cmd),
	)
	if !s.commands.TrySend(cmd) {
		c.queue(errorFrame("command queue full, " + cmd.String() + " dropped"))
	}
}

// client is one connected display.
type client struct {
	conn   *websocket.Conn
	remote string
	claims *Claims
	send   chan Frame

	closeOnce sync.Once
	done      chan struct{}
}

// queue hands a frame to the writer, dropping it when the client is slow.
func (c *client) queue(f Frame) {
	select {
	case <-c.done:
	case c.send <- f:
	default:
		logging.LogQueueDrop("display:"+c.remote, string(f.Type))
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				logging.Debug("Display write failed",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
