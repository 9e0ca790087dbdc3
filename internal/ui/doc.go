// Package ui provides the terminal front ends of the netclock CLI.
//
// This package uses Bubble Tea and Lipgloss. It has three parts:
//
//   - ClockModel: the display client. It renders the clock, the network
//     state and, while provisioning, the DPP URI to scan. Key w asks the
//     manager to re-provision, s asks for a time sync.
//   - PickerModel: chooses a display bridge found over mDNS, or takes an
//     address typed by hand.
//   - Result: success and failure boxes printed by one-shot commands.
//
// # Logging Integration
//
// Logging is controlled via the NETCLOCK_LOG_LEVEL environment variable.
// When unset, zap is silent so the TUI owns the terminal.
package ui
