package sntp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/logging"
)

// DefaultServer is the NTP pool queried when no server is configured.
const DefaultServer = "pool.ntp.org"

// ErrNotInitialized is returned by WaitForSync before Init or after Deinit.
var ErrNotInitialized = errors.New("time client not initialized")

// Client is the time sync capability used by the network manager. A client
// is scoped to one sync: Init, one or more WaitForSync calls, then Deinit.
type Client interface {
	Init(server string) error
	WaitForSync(ctx context.Context, timeout time.Duration) error
	Deinit()
}

// QueryFunc performs one NTP exchange. It matches ntp.QueryWithOptions.
type QueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTPClient syncs a Clock against an NTP server.
type NTPClient struct {
	clock *Clock
	query QueryFunc

	mu     sync.Mutex
	server string
	active bool
}

// NewNTPClient creates a client that applies offsets to clock.
func NewNTPClient(clock *Clock) *NTPClient {
	return &NTPClient{clock: clock, query: ntp.QueryWithOptions}
}

// WithQuery replaces the NTP exchange, mainly for tests.
func (c *NTPClient) WithQuery(q QueryFunc) *NTPClient {
	c.query = q
	return c
}

// Init configures the server for subsequent WaitForSync calls.
func (c *NTPClient) Init(server string) error {
	if server == "" {
		server = DefaultServer
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return fmt.Errorf("time client already initialized for %s", c.server)
	}
	c.server = server
	c.active = true
	return nil
}

// WaitForSync queries the server once and applies the offset on success.
// It gives up after timeout.
func (c *NTPClient) WaitForSync(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	server, active := c.server, c.active
	c.mu.Unlock()

	if !active {
		return ErrNotInitialized
	}

	type result struct {
		resp *ntp.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := c.query(server, ntp.QueryOptions{Timeout: timeout})
		done <- result{resp, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if r.err != nil {
		return fmt.Errorf("ntp query to %s failed: %w", server, r.err)
	}
	if err := r.resp.Validate(); err != nil {
		return fmt.Errorf("ntp response from %s rejected: %w", server, err)
	}

	c.clock.SetOffset(r.resp.ClockOffset)
	logging.Debug("NTP response applied",
		zap.String("server", server),
		zap.Duration("offset", r.resp.ClockOffset),
		zap.Duration("rtt", r.resp.RTT),
		zap.Uint8("stratum", r.resp.Stratum),
	)
	return nil
}

// Deinit releases the server configuration. It is safe to call repeatedly.
func (c *NTPClient) Deinit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.server = ""
}
