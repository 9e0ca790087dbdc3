package sim

import (
	"errors"
	"net"
	"sync"

	"github.com/muurk/netclock/internal/credstore"
	"github.com/muurk/netclock/internal/wifi"
)

var (
	// ErrNotInitialized is returned when the radio is used before Init.
	ErrNotInitialized = errors.New("radio not initialized")
	// ErrNotStarted is returned by Connect before Start.
	ErrNotStarted = errors.New("radio not started")
)

// Disconnect reasons reported by the simulated radio.
const (
	ReasonNoAPFound        = "no AP found"
	ReasonHandshakeTimeout = "4-way handshake timeout"
	ReasonInjected         = "beacon timeout"
	ReasonLeave            = "assoc leave"
)

// RadioConfig describes the simulated radio environment.
type RadioConfig struct {
	// AP is the only access point in range.
	AP wifi.Credentials
	// Address is assigned on a successful connect.
	Address net.IP
	// FailConnects makes the next N connect attempts fail regardless of
	// credentials.
	FailConnects int
}

// Radio is an in-process wifi.Driver. Events are delivered on a Loop.
type Radio struct {
	loop     *Loop
	store    credstore.Store
	handlers registry[wifi.Event]

	mu           sync.Mutex
	cfg          RadioConfig
	netifCalls   int
	initialized  bool
	started      bool
	linked       bool
	connectCalls int
	initErr      error
}

var _ wifi.Driver = (*Radio)(nil)

// NewRadio creates a radio that keeps its credentials in store.
func NewRadio(loop *Loop, store credstore.Store, cfg RadioConfig) *Radio {
	if cfg.Address == nil {
		cfg.Address = net.IPv4(192, 168, 4, 16)
	}
	return &Radio{loop: loop, store: store, cfg: cfg}
}

// InitNetif implements wifi.Driver
func (r *Radio) InitNetif() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.netifCalls++
	return nil
}

// Init implements wifi.Driver
func (r *Radio) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initErr != nil {
		return r.initErr
	}
	if r.initialized {
		return errors.New("radio already initialized")
	}
	r.initialized = true
	return nil
}

// Start implements wifi.Driver
func (r *Radio) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if r.started {
		return errors.New("radio already started")
	}
	r.started = true
	dispatch(r.loop, &r.handlers, wifi.Event{Kind: wifi.EventStarted})
	return nil
}

// Stop implements wifi.Driver
func (r *Radio) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	r.linked = false
	return nil
}

// Deinit implements wifi.Driver
func (r *Radio) Deinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	r.started = false
	r.linked = false
	return nil
}

// Connect implements wifi.Driver. The outcome is reported asynchronously.
func (r *Radio) Connect() error {
	creds, _, err := r.store.Load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return ErrNotStarted
	}
	r.connectCalls++

	switch {
	case r.cfg.FailConnects > 0:
		r.cfg.FailConnects--
		r.disconnected(ReasonInjected)
	case creds.Empty() || creds.SSID != r.cfg.AP.SSID:
		r.disconnected(ReasonNoAPFound)
	case creds.Password != r.cfg.AP.Password:
		r.disconnected(ReasonHandshakeTimeout)
	default:
		r.linked = true
		dispatch(r.loop, &r.handlers, wifi.Event{Kind: wifi.EventConnected, SSID: creds.SSID})
		dispatch(r.loop, &r.handlers, wifi.Event{Kind: wifi.EventGotAddress, IP: r.cfg.Address})
	}
	return nil
}

func (r *Radio) disconnected(reason string) {
	r.linked = false
	dispatch(r.loop, &r.handlers, wifi.Event{Kind: wifi.EventDisconnected, Reason: reason})
}

// Disconnect implements wifi.Driver
func (r *Radio) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.linked {
		r.disconnected(ReasonLeave)
	}
	return nil
}

// SetCredentials implements wifi.Driver
func (r *Radio) SetCredentials(creds wifi.Credentials) error {
	return r.store.Save(creds)
}

// Credentials implements wifi.Driver
func (r *Radio) Credentials() (wifi.Credentials, error) {
	creds, _, err := r.store.Load()
	return creds, err
}

// Subscribe implements wifi.Driver
func (r *Radio) Subscribe(h wifi.EventHandler) func() {
	return r.handlers.add(h)
}

// DropLink simulates the AP going away while connected.
func (r *Radio) DropLink() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.linked {
		r.disconnected(ReasonInjected)
	}
}

// SetFailConnects makes the next n connect attempts fail.
func (r *Radio) SetFailConnects(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.FailConnects = n
}

// FailInit makes Init return err until called again with nil.
func (r *Radio) FailInit(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initErr = err
}

// ConnectCalls returns the number of Connect calls made while started.
func (r *Radio) ConnectCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectCalls
}

// NetifCalls returns how many times InitNetif was called.
func (r *Radio) NetifCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.netifCalls
}

// Started reports whether the interface is up.
func (r *Radio) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Initialized reports whether Init was called without a matching Deinit.
func (r *Radio) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Subscribers returns the number of registered event handlers.
func (r *Radio) Subscribers() int {
	return r.handlers.count()
}
