package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muurk/netclock/internal/dpp"
	"github.com/muurk/netclock/internal/netmgr"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Load reads the configuration at path. A missing file yields Default().
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the configuration from GetConfigPath().
func LoadDefault() (*Config, string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes the configuration to path.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	header := []byte(`# netclock configuration file
#
# Security Note: the display token secret is stored here in plain text.
# Wi-Fi credentials are kept separately by the radio's credential store.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Network.MaxRetries < 0:
		return fmt.Errorf("network.max_retries must not be negative")
	case c.Network.ReconnectDelay < 0:
		return fmt.Errorf("network.reconnect_delay must not be negative")
	case c.Network.QueueDepth <= 0:
		return fmt.Errorf("network.queue_depth must be positive")
	case c.Time.SyncInterval <= 0:
		return fmt.Errorf("time.sync_interval must be positive")
	case c.Time.SyncTimeout <= 0:
		return fmt.Errorf("time.sync_timeout must be positive")
	case c.Display.Listen == "":
		return fmt.Errorf("display.listen must not be empty")
	}

	if _, err := dpp.ParseChannelList(c.Provisioning.Channels); err != nil {
		return fmt.Errorf("provisioning.channels: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone. An empty name is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Time.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Time.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.timezone %q: %w", c.Time.Timezone, err)
	}
	return loc, nil
}

// ManagerConfig converts the file settings into network manager settings.
func (c *Config) ManagerConfig() (netmgr.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return netmgr.Config{}, err
	}
	return netmgr.Config{
		MaxRetries:     c.Network.MaxRetries,
		ReconnectDelay: c.Network.ReconnectDelay,
		SyncInterval:   c.Time.SyncInterval,
		SyncTimeout:    c.Time.SyncTimeout,
		NTPServer:      c.Time.NTPServer,
		Location:       loc,
		Channels:       c.Provisioning.Channels,
		DeviceInfo:     c.Provisioning.DeviceInfo,
	}, nil
}
