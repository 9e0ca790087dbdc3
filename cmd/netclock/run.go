package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/config"
	"github.com/muurk/netclock/internal/credstore"
	"github.com/muurk/netclock/internal/discovery"
	"github.com/muurk/netclock/internal/display"
	"github.com/muurk/netclock/internal/logging"
	"github.com/muurk/netclock/internal/netmgr"
	"github.com/muurk/netclock/internal/sim"
	"github.com/muurk/netclock/internal/sntp"
	"github.com/muurk/netclock/internal/version"
	"github.com/muurk/netclock/internal/wifi"
)

// Run command flags
var (
	runListen        string
	runNoDisplay     bool
	runNoAdvertise   bool
	runInstance      string
	runCredentials   string
	runAPSSID        string
	runAPPassword    string
	runAutoConfigure bool
	runConfigDelay   time.Duration
	runFailConnects  int
	runFailListens   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the network manager",
	Long: `Run the network manager against a simulated radio and DPP enrollee.

The manager syncs the clock once at startup and then every sync interval.
Each sync brings the radio up, connects with the stored credentials (or
provisions new ones over DPP when there are none), queries the NTP server
and turns the radio off again.

The display bridge serves QR, status and command frames over a websocket.
With --no-display the provisioning URI is written to the log instead.`,
	Example: `  # Manager with an access point in range and a configurator that answers
  netclock run --ap-ssid home --ap-password secret --auto-configure

  # Bridge on all interfaces, logs at debug level
  netclock run --listen :8787 --log-level debug

  # Exercise the retry ceiling
  netclock run --ap-ssid home --ap-password secret --fail-connects 10`,
	RunE: runManager,
}

func init() {
	runCmd.Flags().StringVar(&runListen, "listen", "", "Display bridge listen address (default from config)")
	runCmd.Flags().BoolVar(&runNoDisplay, "no-display", false, "Do not start the display bridge; log QR events instead")
	runCmd.Flags().BoolVar(&runNoAdvertise, "no-advertise", false, "Do not announce the bridge over mDNS")
	runCmd.Flags().StringVar(&runInstance, "instance", "", "mDNS instance name (default: netclock-<hostname>)")
	runCmd.Flags().StringVar(&runCredentials, "credentials", "", "Credential store file (default: next to the config file)")
	runCmd.Flags().StringVar(&runAPSSID, "ap-ssid", "", "SSID of the simulated access point")
	runCmd.Flags().StringVar(&runAPPassword, "ap-password", "", "Password of the simulated access point")
	runCmd.Flags().BoolVar(&runAutoConfigure, "auto-configure", false, "Simulated configurator answers each provisioning request with the access point credentials")
	runCmd.Flags().DurationVar(&runConfigDelay, "configure-delay", 5*time.Second, "Delay before the simulated configurator answers")
	runCmd.Flags().IntVar(&runFailConnects, "fail-connects", 0, "Make the first N connect attempts fail")
	runCmd.Flags().IntVar(&runFailListens, "fail-listens", 0, "Make the first N DPP listens fail")
}

func runManager(cmd *cobra.Command, args []string) error {
	mcfg, err := cfg.ManagerConfig()
	if err != nil {
		return err
	}

	credPath := runCredentials
	if credPath == "" {
		if credPath, err = config.GetCredentialsPath(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := sim.NewLoop()
	defer loop.Close()

	ap := wifi.Credentials{SSID: runAPSSID, Password: runAPPassword}
	radio := sim.NewRadio(loop, credstore.NewFile(credPath), sim.RadioConfig{
		AP:           ap,
		FailConnects: runFailConnects,
	})

	enrolleeCfg := sim.EnrolleeConfig{
		ConfigureDelay: runConfigDelay,
		FailListens:    runFailListens,
	}
	if runAutoConfigure {
		if ap.Empty() {
			return errors.New("--auto-configure needs --ap-ssid")
		}
		enrolleeCfg.Configurator = &ap
	}
	enrollee := sim.NewEnrollee(loop, enrolleeCfg)

	clock := sntp.NewClock()
	payloads := bus.NewTracker()
	commands := bus.NewQueue[bus.Command]("commands", cfg.Network.QueueDepth)
	presentation := bus.NewQueue[bus.PresentationEvent]("presentation", cfg.Network.QueueDepth)

	mgr, err := netmgr.New(mcfg, netmgr.Deps{
		Driver:       radio,
		Enrollee:     enrollee,
		TimeClient:   sntp.NewNTPClient(clock),
		Clock:        clock,
		Commands:     commands,
		Presentation: presentation,
		Payloads:     payloads,
	})
	if err != nil {
		return fmt.Errorf("failed to create network manager: %w", err)
	}

	logging.Info("Starting netclock",
		zap.String("version", version.Full()),
		zap.String("config", cfgPathInUse),
		zap.String("credentials", credPath),
		zap.String("ap", ap.SSID),
	)

	var wg sync.WaitGroup
	if runNoDisplay {
		wg.Add(1)
		go func() {
			defer wg.Done()
			display.LogConsumer(ctx, presentation)
		}()
	} else {
		if err := startBridge(ctx, &wg, presentation, commands, mgr.Status); err != nil {
			return err
		}
	}

	err = mgr.Run(ctx)
	stop()
	wg.Wait()

	logging.Info("Netclock stopped",
		zap.Int64("payloads_outstanding", payloads.Outstanding()),
		zap.Uint64("commands_dropped", commands.Dropped()),
		zap.Uint64("presentation_dropped", presentation.Dropped()),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startBridge binds the display bridge, serves it and advertises it until
// ctx is done.
func startBridge(ctx context.Context, wg *sync.WaitGroup, presentation *bus.Queue[bus.PresentationEvent], commands *bus.Queue[bus.Command], status display.StatusFunc) error {
	listen := cfg.Display.Listen
	if runListen != "" {
		listen = runListen
	}

	var verifier *display.Verifier
	if cfg.Display.TokenSecret != "" {
		v, err := display.NewVerifier(cfg.Display.TokenSecret)
		if err != nil {
			return err
		}
		verifier = v
	}

	srv := display.NewServer(display.ServerConfig{Listen: listen, Verifier: verifier}, presentation, commands, status)
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx, ln); err != nil {
			logging.Error("Display bridge failed", zap.Error(err))
		}
	}()

	if !cfg.Display.Advertise || runNoAdvertise {
		return nil
	}

	port, err := listenPort(ln.Addr())
	if err != nil {
		return err
	}
	instance := runInstance
	if instance == "" {
		instance = defaultInstance()
	}
	txt := discovery.TXT(cfg.Provisioning.DeviceInfo, version.Short(), verifier != nil)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := discovery.Advertise(ctx, instance, port, txt); err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}()
	return nil
}

// listenPort returns the TCP port the bridge is bound to.
func listenPort(addr net.Addr) (int, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp.Port <= 0 {
		return 0, fmt.Errorf("cannot advertise bridge address %v", addr)
	}
	return tcp.Port, nil
}

func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "netclock"
	}
	return "netclock-" + host
}
