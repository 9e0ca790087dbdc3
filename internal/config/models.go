package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version      int                `yaml:"version"`
	Network      NetworkConfig      `yaml:"network"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Time         TimeConfig         `yaml:"time"`
	Display      DisplayConfig      `yaml:"display"`
	Log          LogConfig          `yaml:"log"`
}

// NetworkConfig tunes connection retries and the message queues.
type NetworkConfig struct {
	MaxRetries     int           `yaml:"max_retries"`     // Reconnect and provisioning retry ceiling
	ReconnectDelay time.Duration `yaml:"reconnect_delay"` // Pause before each reconnect
	QueueDepth     int           `yaml:"queue_depth"`     // Capacity of the command and presentation queues
}

// ProvisioningConfig controls the DPP bootstrapping URI.
type ProvisioningConfig struct {
	Channels   string `yaml:"channels"`              // Listen channels, e.g. "6" or "1,6,11"
	DeviceInfo string `yaml:"device_info,omitempty"` // Shown to the configurator
}

// TimeConfig controls time synchronization.
type TimeConfig struct {
	NTPServer    string        `yaml:"ntp_server"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	SyncTimeout  time.Duration `yaml:"sync_timeout"` // Per attempt
	Timezone     string        `yaml:"timezone"`     // IANA name, e.g. "Europe/Helsinki"
}

// DisplayConfig controls the display bridge.
type DisplayConfig struct {
	Listen      string `yaml:"listen"`                 // Bridge listen address
	TokenSecret string `yaml:"token_secret,omitempty"` // HS256 secret; empty disables auth
	Advertise   bool   `yaml:"advertise"`              // Announce the bridge over mDNS
}

// LogConfig controls logging. An empty level keeps logging silent.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"` // Rotated JSON log file
}

// Default returns a Config with the stock values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Network: NetworkConfig{
			MaxRetries:     3,
			ReconnectDelay: time.Second,
			QueueDepth:     10,
		},
		Provisioning: ProvisioningConfig{
			Channels:   "6",
			DeviceInfo: "netclock",
		},
		Time: TimeConfig{
			NTPServer:    "pool.ntp.org",
			SyncInterval: 4 * time.Hour,
			SyncTimeout:  10 * time.Second,
			Timezone:     "Europe/Helsinki",
		},
		Display: DisplayConfig{
			Listen:    "127.0.0.1:8787",
			Advertise: true,
		},
	}
}
