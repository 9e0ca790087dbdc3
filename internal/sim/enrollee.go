package sim

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/netclock/internal/dpp"
	"github.com/muurk/netclock/internal/wifi"
)

// ErrAuthTimeout is the failure reason reported for injected listen failures.
var ErrAuthTimeout = errors.New("dpp authentication timed out")

// EnrolleeConfig describes the simulated configurator on the other side.
type EnrolleeConfig struct {
	// Configurator, when set, is pushed to the enrollee once it listens.
	// When nil, credentials only arrive through Offer.
	Configurator *wifi.Credentials
	// ConfigureDelay postpones the automatic push, giving a display time to
	// show the QR code.
	ConfigureDelay time.Duration
	// FailListens makes the next N listens end in an authentication failure.
	FailListens int
	// MAC is included in the bootstrapping URI when set.
	MAC string
}

// Enrollee is an in-process dpp.Enrollee.
type Enrollee struct {
	loop     *Loop
	handlers registry[dpp.Event]

	mu          sync.Mutex
	cfg         EnrolleeConfig
	initialized bool
	listening   bool
	uri         string
	listenCalls int
	pending     *time.Timer
}

var _ dpp.Enrollee = (*Enrollee)(nil)

// NewEnrollee creates a simulated enrollee delivering events on loop.
func NewEnrollee(loop *Loop, cfg EnrolleeConfig) *Enrollee {
	return &Enrollee{loop: loop, cfg: cfg}
}

// Init implements dpp.Enrollee
func (e *Enrollee) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return errors.New("enrollee already initialized")
	}
	e.initialized = true
	return nil
}

// Bootstrap implements dpp.Enrollee. A fresh P-256 bootstrapping key is
// generated and the resulting URI is reported with EventURIReady.
func (e *Enrollee) Bootstrap(channels string, deviceInfo string) error {
	chans, err := dpp.ParseChannelList(channels)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("bootstrap: generating key: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(key.PublicKey())
	if err != nil {
		return fmt.Errorf("bootstrap: encoding key: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return errors.New("bootstrap: enrollee not initialized")
	}

	uri := &dpp.URI{
		Channels: chans,
		MAC:      e.cfg.MAC,
		Info:     deviceInfo,
		Key:      base64.StdEncoding.EncodeToString(der),
	}
	e.uri = uri.String()
	dispatch(e.loop, &e.handlers, dpp.Event{Kind: dpp.EventURIReady, URI: e.uri})
	return nil
}

// StartListen implements dpp.Enrollee
func (e *Enrollee) StartListen() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.uri == "" {
		return errors.New("start listen: enrollee not bootstrapped")
	}
	e.listening = true
	e.listenCalls++

	if e.cfg.FailListens > 0 {
		e.cfg.FailListens--
		e.listening = false
		dispatch(e.loop, &e.handlers, dpp.Event{Kind: dpp.EventFailed, Reason: ErrAuthTimeout})
		return nil
	}

	if e.cfg.Configurator != nil {
		creds := *e.cfg.Configurator
		if e.cfg.ConfigureDelay <= 0 {
			e.deliverLocked(creds)
			return nil
		}
		e.pending = time.AfterFunc(e.cfg.ConfigureDelay, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.listening {
				e.deliverLocked(creds)
			}
		})
	}
	return nil
}

func (e *Enrollee) deliverLocked(creds wifi.Credentials) {
	e.listening = false
	dispatch(e.loop, &e.handlers, dpp.Event{Kind: dpp.EventCredentialsReceived, Credentials: creds})
}

// Offer pushes credentials as a configurator would after scanning the QR code.
func (e *Enrollee) Offer(creds wifi.Credentials) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.listening {
		return errors.New("enrollee is not listening")
	}
	e.deliverLocked(creds)
	return nil
}

// Reject ends the current listen with an authentication failure.
func (e *Enrollee) Reject(reason error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.listening {
		return errors.New("enrollee is not listening")
	}
	e.listening = false
	dispatch(e.loop, &e.handlers, dpp.Event{Kind: dpp.EventFailed, Reason: reason})
	return nil
}

// StopListen implements dpp.Enrollee
func (e *Enrollee) StopListen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *Enrollee) stopLocked() {
	e.listening = false
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

// Deinit implements dpp.Enrollee
func (e *Enrollee) Deinit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.initialized = false
	e.uri = ""
	return nil
}

// Subscribe implements dpp.Enrollee
func (e *Enrollee) Subscribe(h dpp.EventHandler) func() {
	return e.handlers.add(h)
}

// Listening reports whether the enrollee waits for a configurator.
func (e *Enrollee) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listening
}

// Initialized reports whether a session is open.
func (e *Enrollee) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// ListenCalls returns the number of StartListen calls.
func (e *Enrollee) ListenCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listenCalls
}

// URI returns the current bootstrapping URI.
func (e *Enrollee) URI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uri
}
