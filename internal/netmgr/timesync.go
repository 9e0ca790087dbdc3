package netmgr

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/logging"
)

// SyncTime runs one time sync over the current link. Each attempt waits up
// to the configured sync timeout; after the first failure it is retried up
// to MaxRetries times. The time client is released whatever the result, and
// the configured timezone is applied to the clock on success.
func (m *Manager) SyncTime(ctx context.Context) error {
	logging.Info("Synchronizing time", zap.String("server", m.cfg.NTPServer))

	if err := m.timeClient.Init(m.cfg.NTPServer); err != nil {
		logging.Error("Time client init failed", zap.Error(err))
		return newError(ErrTypeTimeSync, "sntp init", err)
	}
	defer m.timeClient.Deinit()

	attempt := 0
	op := func() error {
		attempt++
		err := m.timeClient.WaitForSync(ctx, m.cfg.SyncTimeout)
		if err != nil {
			logging.Warn("Waiting for system time to be set",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", m.cfg.MaxRetries+1),
				zap.Error(err),
			)
		}
		return err
	}

	// WithMaxRetries treats zero as unlimited.
	var retries backoff.BackOff = &backoff.StopBackOff{}
	if m.cfg.MaxRetries > 0 {
		retries = backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(m.cfg.MaxRetries))
	}
	policy := backoff.WithContext(retries, ctx)
	if err := backoff.Retry(op, policy); err != nil {
		logging.Error("Failed to update system time", zap.Int("attempts", attempt), zap.Error(err))
		return newError(ErrTypeTimeSync, "sync time", fmt.Errorf("%w: %w", ErrSyncFailed, err))
	}

	m.clock.SetLocation(m.cfg.Location)
	m.refreshStatus()

	now := m.clock.Now()
	logging.Info("Time synchronized",
		zap.String("local_time", now.Format("2006-01-02 15:04:05")),
		zap.String("timezone", m.clock.Location().String()),
		zap.Duration("offset", m.clock.Offset()),
	)
	return nil
}
