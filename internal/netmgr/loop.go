package netmgr

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/logging"
)

// Run is the manager's worker. It queues an initial time sync, then serves
// commands and the periodic sync schedule until ctx ends. A command runs to
// completion before the next is taken; a sync that falls due meanwhile is
// queued behind it. Run returns ctx.Err().
func (m *Manager) Run(ctx context.Context) error {
	if err := m.initSystem(); err != nil {
		// StartWifi retries the netif setup on the next command.
		logging.Error("Network subsystem init failed", zap.Error(err))
	}

	logging.Info("Network manager started", zap.Duration("sync_interval", m.cfg.SyncInterval))
	m.scheduleSync()

	timer := time.NewTimer(m.cfg.SyncInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.state.radioOn {
				m.StopWifi()
			}
			logging.Info("Network manager stopped")
			return ctx.Err()

		case <-timer.C:
			logging.Debug("Periodic time sync due")
			m.scheduleSync()
			timer.Reset(m.cfg.SyncInterval)

		case cmd := <-m.commands.C():
			m.handleCommand(ctx, cmd)
		}
	}
}

// scheduleSync queues a SyncTime command and records when the next one
// falls due.
func (m *Manager) scheduleSync() {
	if !m.Submit(bus.CommandSyncTime) {
		logging.Warn("Command queue full, periodic time sync skipped")
	}

	m.statusMu.Lock()
	m.status.NextSync = time.Now().Add(m.cfg.SyncInterval)
	m.statusMu.Unlock()
}

func (m *Manager) handleCommand(ctx context.Context, cmd bus.Command) {
	logging.Info("Received command", zap.Stringer("command", cmd))

	switch cmd {
	case bus.CommandInitWifi:
		if m.state.radioOn {
			m.StopWifi()
		}
		if _, err := m.StartWifi(ctx, false); err != nil {
			logging.Error("Provisioning did not complete", zap.Error(err))
			return
		}
		m.syncAndStop(ctx)

	case bus.CommandSyncTime:
		if m.state.radioOn {
			if err := m.SyncTime(ctx); err != nil {
				logging.Warn("Time sync failed", zap.Error(err))
			}
			return
		}
		logging.Info("Wi-Fi is off, enabling it for time sync")
		if _, err := m.StartWifi(ctx, true); err != nil {
			logging.Error("Could not connect for time sync", zap.Error(err))
			return
		}
		m.syncAndStop(ctx)

	default:
		logging.Warn("Unknown command", zap.Stringer("command", cmd))
	}
}

func (m *Manager) syncAndStop(ctx context.Context) {
	if err := m.SyncTime(ctx); err != nil {
		logging.Warn("Time sync failed", zap.Error(err))
	}
	m.StopWifi()
}
