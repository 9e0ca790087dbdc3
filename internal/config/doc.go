// Package config provides configuration management for netclock.
//
// The configuration is a versioned YAML file. Missing fields keep the
// values from Default(), and a missing file is the same as an empty one.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/netclock/config.yaml or $HOME/.config/netclock/config.yaml
//   - macOS: $HOME/.config/netclock/config.yaml
//   - Windows: %LOCALAPPDATA%\netclock\config.yaml
//
// The simulated radio keeps its credentials next to it in credentials.yaml.
//
// # Example
//
//	version: 1
//	network:
//	  max_retries: 3
//	  reconnect_delay: 1s
//	  queue_depth: 10
//	provisioning:
//	  channels: "6"
//	time:
//	  ntp_server: pool.ntp.org
//	  sync_interval: 4h
//	  sync_timeout: 10s
//	  timezone: Europe/Helsinki
//	display:
//	  listen: 127.0.0.1:8787
//	  advertise: true
//
// Save performs an atomic write (temporary file and rename).
package config
