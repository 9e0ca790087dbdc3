package netmgr

import (
	"fmt"
	"time"

	"github.com/muurk/netclock/internal/sntp"
)

const (
	// DefaultMaxRetries is the retry ceiling for reconnects, provisioning
	// listens and time sync attempts.
	DefaultMaxRetries = 3

	// DefaultReconnectDelay is the fixed pause between a disconnect and the
	// next connect attempt.
	DefaultReconnectDelay = 1 * time.Second

	// DefaultSyncInterval is the period of the scheduled time sync.
	DefaultSyncInterval = 4 * time.Hour

	// DefaultSyncTimeout bounds a single time sync attempt.
	DefaultSyncTimeout = 10 * time.Second

	// DefaultChannels is the DPP listen channel list.
	DefaultChannels = "6"

	// DefaultDeviceInfo is published in the bootstrapping URI.
	DefaultDeviceInfo = "netclock"
)

// Config holds the manager tuning values.
type Config struct {
	MaxRetries     int
	ReconnectDelay time.Duration
	SyncInterval   time.Duration
	SyncTimeout    time.Duration
	NTPServer      string
	Location       *time.Location
	Channels       string
	DeviceInfo     string
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	loc, err := time.LoadLocation(sntp.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Config{
		MaxRetries:     DefaultMaxRetries,
		ReconnectDelay: DefaultReconnectDelay,
		SyncInterval:   DefaultSyncInterval,
		SyncTimeout:    DefaultSyncTimeout,
		NTPServer:      sntp.DefaultServer,
		Location:       loc,
		Channels:       DefaultChannels,
		DeviceInfo:     DefaultDeviceInfo,
	}
}

func (c Config) validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect delay must not be negative, got %v", c.ReconnectDelay)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %v", c.SyncInterval)
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("sync timeout must be positive, got %v", c.SyncTimeout)
	}
	return nil
}
