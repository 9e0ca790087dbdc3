package netmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/dpp"
	"github.com/muurk/netclock/internal/logging"
	"github.com/muurk/netclock/internal/notify"
	"github.com/muurk/netclock/internal/sntp"
	"github.com/muurk/netclock/internal/wifi"
)

// Deps are the collaborators a Manager drives.
type Deps struct {
	Driver     wifi.Driver
	Enrollee   dpp.Enrollee
	TimeClient sntp.Client
	Clock      *sntp.Clock

	// Commands is drained by Run. A queue of bus.DefaultDepth is created
	// when nil.
	Commands *bus.Queue[bus.Command]
	// Presentation receives QR show/hide events. A queue of
	// bus.DefaultDepth is created when nil.
	Presentation *bus.Queue[bus.PresentationEvent]
	// Payloads tracks URI payload ownership. Optional.
	Payloads *bus.Tracker
}

// Manager owns the radio lifecycle. StartWifi, StopWifi, SyncTime and Run
// belong to a single worker goroutine; driver and provisioning events
// arrive on whatever goroutine the collaborators use.
type Manager struct {
	cfg          Config
	driver       wifi.Driver
	enrollee     dpp.Enrollee
	timeClient   sntp.Client
	clock        *sntp.Clock
	commands     *bus.Queue[bus.Command]
	presentation *bus.Queue[bus.PresentationEvent]
	payloads     *bus.Tracker

	outcome *notify.Notifier[Outcome]
	state   managerState

	// attemptMu serializes event handling and reconnect timers against
	// teardown, so nothing from a finished attempt acts after it.
	attemptMu   sync.Mutex
	generation  atomic.Uint64
	unsubscribe []func()
	timers      []*time.Timer

	statusMu sync.RWMutex
	status   Status
}

// New creates a manager. The driver, enrollee, time client and clock are
// required.
func New(cfg Config, deps Deps) (*Manager, error) {
	if deps.Driver == nil {
		return nil, errors.New("netmgr: driver is required")
	}
	if deps.Enrollee == nil {
		return nil, errors.New("netmgr: enrollee is required")
	}
	if deps.TimeClient == nil {
		return nil, errors.New("netmgr: time client is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("netmgr: clock is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, newError(ErrTypeInit, "validate config", err)
	}
	if deps.Commands == nil {
		deps.Commands = bus.NewQueue[bus.Command]("commands", bus.DefaultDepth)
	}
	if deps.Presentation == nil {
		deps.Presentation = bus.NewQueue[bus.PresentationEvent]("presentation", bus.DefaultDepth)
	}
	if cfg.Channels == "" {
		cfg.Channels = DefaultChannels
	}

	return &Manager{
		cfg:          cfg,
		driver:       deps.Driver,
		enrollee:     deps.Enrollee,
		timeClient:   deps.TimeClient,
		clock:        deps.Clock,
		commands:     deps.Commands,
		presentation: deps.Presentation,
		payloads:     deps.Payloads,
		outcome:      notify.New[Outcome](),
		status: Status{
			State:       StateIdle,
			LastOutcome: OutcomeIdle.String(),
		},
	}, nil
}

// Commands returns the queue drained by Run.
func (m *Manager) Commands() *bus.Queue[bus.Command] {
	return m.commands
}

// Presentation returns the queue QR events are published on.
func (m *Manager) Presentation() *bus.Queue[bus.PresentationEvent] {
	return m.presentation
}

// Submit enqueues a command without blocking. It reports false when the
// command queue is full and the command was dropped.
func (m *Manager) Submit(cmd bus.Command) bool {
	return m.commands.TrySend(cmd)
}

// StartWifi brings the radio up and blocks until the attempt resolves.
// With useStored set and credentials present in the driver, those are used
// directly; otherwise the device is provisioned over DPP and a QR code is
// published. Any other result than OutcomeConnected leaves the radio off.
func (m *Manager) StartWifi(ctx context.Context, useStored bool) (Outcome, error) {
	if m.state.radioOn {
		logging.Warn("Wi-Fi is already on, restarting")
		m.StopWifi()
	}

	if err := m.initSystem(); err != nil {
		return OutcomeIdle, err
	}

	m.outcome.Clear()
	m.state.retryCount.Store(0)
	m.setState(StateStarting)

	m.attemptMu.Lock()
	gen := m.generation.Add(1)
	m.unsubscribe = []func(){
		m.driver.Subscribe(func(ev wifi.Event) { m.handleDriverEvent(gen, ev) }),
		m.enrollee.Subscribe(func(ev dpp.Event) { m.handleProvisioningEvent(gen, ev) }),
	}
	m.attemptMu.Unlock()

	if err := m.driver.Init(); err != nil {
		logging.Error("Wi-Fi init failed", zap.Error(err))
		m.abort()
		return OutcomeIdle, newError(ErrTypeInit, "wifi init", err)
	}

	stored, err := m.driver.Credentials()
	if err != nil {
		logging.Warn("Failed to read stored credentials", zap.Error(err))
		stored = wifi.Credentials{}
	}

	if useStored && !stored.Empty() {
		logging.Info("Stored Wi-Fi config found", zap.String("ssid", stored.SSID))
		m.state.setCredentials(stored)
		m.setState(StateConnecting)
	} else {
		if useStored {
			logging.Warn("No stored Wi-Fi config, starting provisioning")
		} else {
			logging.Info("Starting provisioning")
		}
		m.state.provisioningActive.Store(true)
		m.setState(StateProvisioning)

		if err := m.enrollee.Init(); err != nil {
			logging.Error("DPP init failed", zap.Error(err))
			m.abort()
			return OutcomeIdle, newError(ErrTypeInit, "dpp init", err)
		}
		if err := m.enrollee.Bootstrap(m.cfg.Channels, m.cfg.DeviceInfo); err != nil {
			logging.Error("DPP bootstrap failed", zap.Error(err))
			m.abort()
			return OutcomeIdle, newError(ErrTypeInit, "dpp bootstrap", err)
		}
	}

	if err := m.driver.Start(); err != nil {
		logging.Error("Wi-Fi start failed", zap.Error(err))
		m.abort()
		return OutcomeIdle, newError(ErrTypeInit, "wifi start", err)
	}
	m.state.radioOn = true
	m.refreshStatus()

	outcome, err := m.outcome.Wait(ctx)
	if err != nil {
		logging.Warn("Connection wait canceled", zap.Error(err))
		m.StopWifi()
		return OutcomeIdle, newError(ErrTypeCanceled, "wait for connection", err)
	}
	m.recordOutcome(outcome)

	if outcome == OutcomeConnected {
		logging.Info("Wi-Fi connected", zap.String("ssid", m.state.credentials().SSID))
		if m.state.provisioningActive.Load() {
			if err := m.enrollee.Deinit(); err != nil {
				logging.Warn("DPP deinit failed", zap.Error(err))
			}
			m.state.provisioningActive.Store(false)
			m.publish(bus.HideQR())
		}
		m.setState(StateConnected)
		return outcome, nil
	}

	logging.Error("Wi-Fi connection failed",
		zap.Stringer("outcome", outcome),
		zap.Uint32("retries", m.state.retryCount.Load()),
	)
	m.setState(StateFailed)
	m.StopWifi()
	return outcome, outcomeError(outcome)
}

// StopWifi tears the radio down. It is a no-op when the radio is off.
func (m *Manager) StopWifi() {
	if !m.state.radioOn {
		logging.Warn("Wi-Fi is already off")
		return
	}
	logging.Info("Stopping Wi-Fi")

	m.publish(bus.HideQR())
	m.invalidate()

	if m.state.provisioningActive.Load() {
		if err := m.enrollee.StopListen(); err != nil {
			logging.Debug("DPP stop listen failed", zap.Error(err))
		}
		if err := m.enrollee.Deinit(); err != nil {
			logging.Debug("DPP deinit failed", zap.Error(err))
		}
		m.state.provisioningActive.Store(false)
	}

	if err := m.driver.Disconnect(); err != nil {
		logging.Debug("Wi-Fi disconnect failed", zap.Error(err))
	}
	if err := m.driver.Stop(); err != nil {
		logging.Debug("Wi-Fi stop failed", zap.Error(err))
	}
	if err := m.driver.Deinit(); err != nil {
		logging.Debug("Wi-Fi deinit failed", zap.Error(err))
	}

	m.state.radioOn = false
	m.setState(StateIdle)
	logging.Info("Wi-Fi stopped")
}

// abort unwinds a StartWifi that failed before the radio came up.
func (m *Manager) abort() {
	m.invalidate()
	if m.state.provisioningActive.Load() {
		_ = m.enrollee.Deinit()
		m.state.provisioningActive.Store(false)
	}
	_ = m.driver.Deinit()
	m.state.radioOn = false
	m.setState(StateIdle)
}

// initSystem performs the one-time network interface setup.
func (m *Manager) initSystem() error {
	if m.state.systemInitialized {
		return nil
	}
	if err := m.driver.InitNetif(); err != nil {
		logging.Error("Network interface init failed", zap.Error(err))
		return newError(ErrTypeInit, "netif init", err)
	}
	m.state.systemInitialized = true
	logging.Debug("Network interface initialized")
	return nil
}

// invalidate ends the current attempt: handlers are unsubscribed, pending
// reconnects stopped and late events from the attempt ignored.
func (m *Manager) invalidate() {
	m.attemptMu.Lock()
	defer m.attemptMu.Unlock()

	m.generation.Add(1)
	for _, unsubscribe := range m.unsubscribe {
		unsubscribe()
	}
	m.unsubscribe = nil
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
}

// publish hands ev to the presentation queue. A full queue drops and
// releases the event.
func (m *Manager) publish(ev bus.PresentationEvent) {
	if m.presentation.TrySend(ev) {
		logging.Debug("Presentation event queued", zap.Stringer("event", ev))
	}
}

func (m *Manager) setState(s State) {
	m.statusMu.Lock()
	from := m.status.State
	m.status.State = s
	m.fillLocked()
	m.statusMu.Unlock()

	if from != s {
		logging.LogStateChange(string(from), string(s))
	}
}

func (m *Manager) refreshStatus() {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.fillLocked()
}

func (m *Manager) fillLocked() {
	m.status.RadioOn = m.state.radioOn
	m.status.Provisioning = m.state.provisioningActive.Load()
	m.status.SSID = m.state.credentials().SSID
}

func (m *Manager) recordOutcome(o Outcome) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.status.LastOutcome = o.String()
}

// Status returns a snapshot of the manager. Safe for concurrent use.
func (m *Manager) Status() Status {
	m.statusMu.RLock()
	s := m.status
	m.statusMu.RUnlock()

	s.RetryCount = m.state.retryCount.Load()
	s.MaxRetries = m.cfg.MaxRetries
	s.Provisioning = m.state.provisioningActive.Load()
	if s.RetryCount > 0 && (s.State == StateConnecting || s.State == StateProvisioning) {
		s.State = StateRetrying
	}
	if synced := m.clock.LastSync(); !synced.IsZero() {
		s.LastSync = synced
	}
	return s
}

// RadioOn reports whether the radio is up. Safe for concurrent use.
func (m *Manager) RadioOn() bool {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status.RadioOn
}

// RetryCount returns the retries spent in the current attempt.
func (m *Manager) RetryCount() uint32 {
	return m.state.retryCount.Load()
}

// Provisioning reports whether a DPP session is active.
func (m *Manager) Provisioning() bool {
	return m.state.provisioningActive.Load()
}

// Credentials returns the credentials of the latest attempt.
func (m *Manager) Credentials() wifi.Credentials {
	return m.state.credentials()
}
