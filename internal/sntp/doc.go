// Package sntp keeps the device clock in sync with an NTP server.
//
// An NTPClient is scoped to a single sync: Init picks the server,
// WaitForSync performs one bounded exchange and applies the measured offset
// to a Clock, and Deinit releases the client. Retrying and timezone handling
// are left to the caller.
package sntp
