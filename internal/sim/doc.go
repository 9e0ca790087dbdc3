// Package sim provides in-process implementations of the station driver
// and the DPP enrollee. They back the netclock --sim mode and the network
// manager tests.
//
// Both deliver their events on a shared Loop, one event at a time, the way
// a platform event loop would. A Radio connects only to its configured
// access point; an Enrollee either hands out preset configurator
// credentials once it listens or waits for Offer.
package sim
