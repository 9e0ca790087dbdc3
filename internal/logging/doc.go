// Package logging provides structured logging for netclock.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the network manager. It is silent by default so
// that CLI commands do not print log noise unless asked to.
//
// # Log Levels
//
//   - Debug: driver and provisioning events, queue traffic
//   - Info: state changes, connections, time sync results
//   - Warn: dropped queue items, retries, redundant stop requests
//   - Error: terminal connection failures, init failures
//
// # Configuration
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level: "info",
//	    File:  "/var/log/netclock.log",
//	}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When File is set, entries are also written as JSON to a size-rotated file.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use, including from driver
// event handlers. Initialize should be called once before other goroutines start.
package logging
