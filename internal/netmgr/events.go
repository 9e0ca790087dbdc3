package netmgr

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/dpp"
	"github.com/muurk/netclock/internal/logging"
	"github.com/muurk/netclock/internal/wifi"
)

// Event handlers run in the collaborators' event context. They never block:
// reconnects are deferred with a timer and every terminal result goes
// through the outcome notifier.

func (m *Manager) handleDriverEvent(gen uint64, ev wifi.Event) {
	m.attemptMu.Lock()
	defer m.attemptMu.Unlock()

	if m.generation.Load() != gen {
		logging.Debug("Ignoring driver event from a finished attempt", zap.Stringer("event", ev.Kind))
		return
	}

	switch ev.Kind {
	case wifi.EventStarted:
		logging.LogDriverEvent("wifi", ev.Kind.String())
		if m.state.provisioningActive.Load() {
			if err := m.enrollee.StartListen(); err != nil {
				logging.Error("Failed to start DPP listen", zap.Error(err))
				m.outcome.Notify(OutcomeAuthFailed)
				return
			}
			logging.Info("Listening for DPP authentication")
			return
		}
		logging.Info("Connecting to access point", zap.String("ssid", m.state.credentials().SSID))
		if err := m.driver.Connect(); err != nil {
			logging.Error("Connect request failed", zap.Error(err))
			m.outcome.Notify(OutcomeConnectFailed)
		}

	case wifi.EventConnected:
		logging.LogDriverEvent("wifi", ev.Kind.String(), zap.String("ssid", ev.SSID))

	case wifi.EventDisconnected:
		logging.LogDriverEvent("wifi", ev.Kind.String(), zap.String("reason", ev.Reason))
		retries := m.state.retryCount.Load()
		if int(retries) < m.cfg.MaxRetries {
			m.state.retryCount.Add(1)
			logging.Info("Disconnected, retrying",
				zap.Uint32("attempt", retries+1),
				zap.Int("max_retries", m.cfg.MaxRetries),
				zap.Duration("delay", m.cfg.ReconnectDelay),
			)
			m.scheduleReconnectLocked(gen)
			return
		}
		logging.Warn("Reconnect limit reached", zap.Int("max_retries", m.cfg.MaxRetries))
		m.outcome.Notify(OutcomeConnectFailed)

	case wifi.EventGotAddress:
		logging.LogDriverEvent("wifi", ev.Kind.String(), zap.Stringer("ip", ev.IP))
		m.state.retryCount.Store(0)
		m.outcome.Notify(OutcomeConnected)

	default:
		logging.Debug("Unhandled driver event", zap.Stringer("event", ev.Kind))
	}
}

// scheduleReconnectLocked arms a one-shot reconnect. attemptMu must be held.
func (m *Manager) scheduleReconnectLocked(gen uint64) {
	t := time.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.attemptMu.Lock()
		defer m.attemptMu.Unlock()

		if m.generation.Load() != gen {
			return
		}
		if err := m.driver.Connect(); err != nil {
			logging.Error("Reconnect request failed", zap.Error(err))
			m.outcome.Notify(OutcomeConnectFailed)
		}
	})
	m.timers = append(m.timers, t)
}

func (m *Manager) handleProvisioningEvent(gen uint64, ev dpp.Event) {
	m.attemptMu.Lock()
	defer m.attemptMu.Unlock()

	if m.generation.Load() != gen {
		logging.Debug("Ignoring provisioning event from a finished attempt", zap.Stringer("event", ev.Kind))
		return
	}
	if !m.state.provisioningActive.Load() {
		logging.Debug("Ignoring provisioning event outside provisioning", zap.Stringer("event", ev.Kind))
		return
	}

	switch ev.Kind {
	case dpp.EventURIReady:
		logging.LogDriverEvent("dpp", ev.Kind.String())
		logging.Info("Scan the QR code to configure the device", zap.String("uri", ev.URI))
		m.publish(bus.ShowQR(m.payloads.NewPayload(ev.URI)))

	case dpp.EventCredentialsReceived:
		logging.LogDriverEvent("dpp", ev.Kind.String(), zap.String("ssid", ev.Credentials.SSID))
		m.state.setCredentials(ev.Credentials)
		m.state.retryCount.Store(0)
		if err := m.driver.SetCredentials(ev.Credentials); err != nil {
			logging.Error("Failed to store provisioned credentials", zap.Error(err))
			m.outcome.Notify(OutcomeAuthFailed)
			return
		}
		if err := m.driver.Connect(); err != nil {
			logging.Error("Connect request failed", zap.Error(err))
			m.outcome.Notify(OutcomeConnectFailed)
		}

	case dpp.EventFailed:
		logging.LogDriverEvent("dpp", ev.Kind.String(), zap.Error(ev.Reason))
		retries := m.state.retryCount.Load()
		if int(retries) < m.cfg.MaxRetries {
			logging.Info("DPP authentication failed, retrying",
				zap.Uint32("attempt", retries+1),
				zap.Int("max_retries", m.cfg.MaxRetries),
			)
			if err := m.enrollee.StartListen(); err != nil {
				logging.Error("Failed to restart DPP listen", zap.Error(err))
				m.outcome.Notify(OutcomeAuthFailed)
				return
			}
			m.state.retryCount.Add(1)
			return
		}
		logging.Warn("DPP retry limit reached", zap.Int("max_retries", m.cfg.MaxRetries))
		m.outcome.Notify(OutcomeAuthFailed)

	default:
		logging.Debug("Unhandled provisioning event", zap.Stringer("event", ev.Kind))
	}
}
