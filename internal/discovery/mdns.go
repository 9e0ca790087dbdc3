package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/logging"
)

const (
	// ServiceType is the mDNS service type of a netclock display bridge
	ServiceType = "_netclock._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second
)

// ErrNotFound is returned when a named bridge does not answer in time.
var ErrNotFound = errors.New("display bridge not found")

// Advertise publishes a bridge listening on port until ctx is done.
func Advertise(ctx context.Context, instance string, port int, txt []string) error {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	defer server.Shutdown()

	logging.Info("Advertising display bridge",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	<-ctx.Done()
	logging.Debug("mDNS advertisement withdrawn", zap.String("instance", instance))
	return nil
}

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// browse streams parsed bridges to found until ctx is done or found
// returns false. It returns once the consumer goroutine has finished.
func (s *Scanner) browse(ctx context.Context, found func(*Display) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				d := parseServiceEntry(entry)
				if d == nil {
					continue
				}
				if !found(d) {
					cancel()
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		<-done
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return nil
}

// ScanForDisplays collects every bridge that answers within the timeout.
func (s *Scanner) ScanForDisplays(ctx context.Context) ([]*Display, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	seen := make(map[string]bool)
	var displays []*Display
	err := s.browse(ctx, func(d *Display) bool {
		if !seen[d.Instance] {
			seen[d.Instance] = true
			displays = append(displays, d)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return displays, nil
}

// WaitForDisplay returns the bridge advertised as instance, or the first
// bridge found when instance is empty.
func (s *Scanner) WaitForDisplay(ctx context.Context, instance string) (*Display, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		result *Display
	)
	err := s.browse(ctx, func(d *Display) bool {
		if instance != "" && d.Instance != instance {
			return true
		}
		mu.Lock()
		result = d
		mu.Unlock()
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if result == nil {
		if instance == "" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, instance)
	}
	return result, nil
}

// parseServiceEntry converts a zeroconf service entry to a Display
// Returns nil if the entry carries no usable address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Display {
	if entry == nil || entry.Port <= 0 {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Display{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}
