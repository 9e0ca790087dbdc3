package netmgr

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/netclock/internal/wifi"
)

// State is the position of the manager in its connection state machine.
//
//	idle -> starting -> provisioning | connecting
//	provisioning | connecting -> connected | retrying | failed
//	retrying -> connected | failed
//	connected | failed -> idle
type State string

const (
	StateIdle         State = "idle"
	StateStarting     State = "starting"
	StateProvisioning State = "provisioning"
	StateConnecting   State = "connecting"
	StateRetrying     State = "retrying"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

// Outcome is the terminal result of one connection attempt cycle.
type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeConnected
	OutcomeConnectFailed
	OutcomeAuthFailed
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeConnected:
		return "connected"
	case OutcomeConnectFailed:
		return "connect_failed"
	case OutcomeAuthFailed:
		return "auth_failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// managerState is owned by the manager. Each field has a single writer:
//   - systemInitialized and radioOn: the worker only.
//   - provisioningActive: the worker; event handlers read it.
//   - retryCount and storedCredentials: event handlers; the worker resets
//     retryCount before subscribing for a new attempt.
type managerState struct {
	systemInitialized bool
	radioOn           bool

	provisioningActive atomic.Bool
	retryCount         atomic.Uint32

	credsMu           sync.Mutex
	storedCredentials wifi.Credentials
}

func (s *managerState) setCredentials(c wifi.Credentials) {
	s.credsMu.Lock()
	defer s.credsMu.Unlock()
	s.storedCredentials = c
}

func (s *managerState) credentials() wifi.Credentials {
	s.credsMu.Lock()
	defer s.credsMu.Unlock()
	return s.storedCredentials
}

// Status is a point-in-time snapshot for displays and the CLI.
type Status struct {
	State        State     `json:"state"`
	RadioOn      bool      `json:"radio_on"`
	Provisioning bool      `json:"provisioning"`
	RetryCount   uint32    `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	LastOutcome  string    `json:"last_outcome"`
	SSID         string    `json:"ssid,omitempty"`
	LastSync     time.Time `json:"last_sync,omitempty"`
	NextSync     time.Time `json:"next_sync,omitempty"`
}
