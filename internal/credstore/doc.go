// Package credstore is the platform credential store behind the
// connectivity driver.
//
// The network manager never persists credentials itself. It hands them to
// the driver, and the driver keeps them here so that a later start with
// stored credentials can connect without provisioning.
//
// File stores the credentials as YAML with 0600 permissions, writing to a
// temporary file and renaming it into place.
package credstore
