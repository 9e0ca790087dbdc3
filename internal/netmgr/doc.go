// Package netmgr brings a station radio up on demand, provisions it over DPP
// when no credentials are stored, and keeps a clock synchronized.
//
// # Threading
//
// A Manager has one worker goroutine, normally the one running Run. The
// worker executes StartWifi, StopWifi and SyncTime and is the only writer
// of the radio state. Driver and provisioning events are handled on the
// collaborators' goroutines; those handlers never block and report the
// terminal result of an attempt through an outcome notifier the worker
// waits on.
//
// # Retries
//
// One retry counter is shared by reconnects and provisioning listens of an
// attempt. It is reset when an attempt starts, when credentials arrive and
// when an address is acquired. Once it reaches Config.MaxRetries the next
// failure ends the attempt with OutcomeConnectFailed or OutcomeAuthFailed
// and the radio is torn down.
//
// # Commands
//
//	sync_time  connect with stored credentials if needed, sync, stop
//	init_wifi  restart the radio in provisioning mode, sync, stop
//
// Run queues sync_time on start and again every Config.SyncInterval.
package netmgr
