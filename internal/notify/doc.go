// Package notify provides the single-slot hand-off used to pass a terminal
// connection outcome from driver event handlers to the network manager worker.
//
// Only the latest value matters: intermediate writes are overwritten, and the
// waiting side consumes and clears the slot in one step.
//
//	n := notify.New[netmgr.Outcome]()
//	go func() { n.Notify(netmgr.OutcomeConnected) }()
//	outcome, err := n.Wait(ctx)
package notify
