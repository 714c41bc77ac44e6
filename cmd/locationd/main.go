// Command locationd is the positioning daemon: it reads its settings,
// drives a GNSS receiver through the engine and provider stack, and
// exposes the result over D-Bus as com.ubuntu.location.Service.
//
// It also doubles as its own client for a handful of diagnostic
// subcommands (status, set, monitor, list, provider, test), in the same
// spirit as the single-binary, subcommand-dispatching tools elsewhere in
// this stack.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/robfig/cron"

	"github.com/ubports/location-service-sub002/config"
	"github.com/ubports/location-service-sub002/engine"
	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/gnss/receiver"
	"github.com/ubports/location-service-sub002/harvester"
	"github.com/ubports/location-service-sub002/ipc"
	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/service"

	"github.com/goblimey/go-tools/dailylogger"
)

func main() {
	if len(os.Args) < 2 {
		usageAndExit()
	}

	var configPath string
	var logDir string
	var sessionBus bool
	flags := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	flags.StringVar(&configPath, "config", defaultConfigPath(), "settings file")
	flags.StringVar(&logDir, "logdir", "/var/log/locationd", "directory for the daily log file")
	flags.BoolVar(&sessionBus, "session-bus", false, "use the session bus instead of the system bus (for local testing)")
	flags.Parse(os.Args[2:])

	switch os.Args[1] {
	case "run":
		runDaemon(configPath, logDir, sessionBus)
	case "status":
		clientStatus(sessionBus)
	case "set":
		clientSet(sessionBus, flags.Args())
	case "monitor":
		clientMonitor(sessionBus)
	case "list":
		clientList(configPath)
	case "provider":
		clientProvider(configPath)
	case "test":
		clientTest(configPath, flags.Arg(0))
	default:
		usageAndExit()
	}
}

// stateDirEnvVar names the environment variable that points at the
// runtime state directory; LOCATION_SERVICE_STATE_DIR mirrors the
// original daemon's single configuration environment variable.
const stateDirEnvVar = "LOCATION_SERVICE_STATE_DIR"

const defaultStateDir = "/var/lib/ubuntu-location-service"

func stateDir() string {
	if dir := os.Getenv(stateDirEnvVar); dir != "" {
		return dir
	}
	return defaultStateDir
}

func defaultConfigPath() string {
	return filepath.Join(stateDir(), "settings.ini")
}

func usageAndExit() {
	fmt.Fprintln(os.Stderr, "usage: locationd <run|status|set|monitor|list|provider|test> [flags]")
	os.Exit(1)
}

// runDaemon is the daemon's own entry point: it never returns except on
// a fatal startup error or a termination signal.
func runDaemon(configPath, logDir string, sessionBus bool) {
	dailyWriter := dailylogger.New(logDir, "locationd.", ".log")
	systemLog := log.New(dailyWriter, "", log.LstdFlags)
	gnssLog := slog.New(slog.NewTextHandler(dailyWriter, nil))

	settings, err := config.Load([]string{configPath}, systemLog)
	if err != nil {
		systemLog.Fatalf("locationd: cannot load settings from %s: %v", configPath, err)
	}

	bus := event.NewBus(16)
	defer bus.Close()

	e := engine.New(engine.FusionPolicy{}, bus)
	applyEngineConfiguration(e, settings.EngineConfiguration())

	receiverCfg := settings.ReceiverConfig()
	if receiverCfg.Device != "" {
		r := receiver.New(receiverCfg, gnssLog, nil)
		gnssProvider := provider.NewStateTrackingProvider(provider.NewGNSSProvider(r))
		e.AddProvider(gnssProvider)
		if err := gnssProvider.Enable(); err != nil {
			systemLog.Printf("locationd: failed to enable GNSS provider: %v", err)
		}
	} else {
		systemLog.Println("locationd: no receiver device configured, running with no providers")
	}

	svc := service.New(e, service.AlwaysGrant{})

	h := harvester.New(nullEnumerator{}, harvester.NewDemultiplexingReporter(), systemLog)
	bus.Subscribe(h)

	cronjob := cron.New()
	cronjob.AddFunc("0 */5 * * * *", func() {
		if err := settings.Sync(); err != nil {
			systemLog.Printf("locationd: periodic settings sync failed: %v", err)
		}
	})
	cronjob.Start()
	defer cronjob.Stop()

	conn, err := connectBus(sessionBus)
	if err != nil {
		systemLog.Fatalf("locationd: cannot connect to D-Bus: %v", err)
	}
	defer conn.Close()

	if _, err := ipc.NewServer(conn, svc, systemLog); err != nil {
		systemLog.Fatalf("locationd: cannot export D-Bus service: %v", err)
	}
	reply, err := conn.RequestName(ipc.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		systemLog.Fatalf("locationd: cannot request bus name %s: %v", ipc.BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		systemLog.Fatalf("locationd: bus name %s already taken", ipc.BusName)
	}

	systemLog.Printf("locationd: running, exporting %s", ipc.BusName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	systemLog.Println("locationd: shutting down")
	if err := settings.Sync(); err != nil {
		systemLog.Printf("locationd: settings sync on exit failed: %v", err)
	}
}

func applyEngineConfiguration(e *engine.Engine, cfg engine.Configuration) {
	e.SetDoesSatelliteBasedPositioning(cfg.DoesSatelliteBasedPositioning)
	e.SetDoesReportCellAndWifiIds(cfg.DoesReportCellAndWifiIds)
	e.SetIsOnline(cfg.IsOnline)
}

func connectBus(sessionBus bool) (*dbus.Conn, error) {
	if sessionBus {
		return dbus.ConnectSessionBus()
	}
	return dbus.ConnectSystemBus()
}

// nullEnumerator reports no wifi access points or cell towers.  Reading
// the live wifi/cell environment is platform-specific (NetworkManager,
// ModemManager over D-Bus) and is not implemented here; a real
// deployment supplies its own harvester.Enumerator.
type nullEnumerator struct{}

func (nullEnumerator) Scan(ctx context.Context) ([]harvester.WifiAccessPoint, []harvester.CellTower, error) {
	return nil, nil, nil
}

func clientStatus(sessionBus bool) {
	conn, err := connectBus(sessionBus)
	if err != nil {
		log.Fatalf("locationd status: %v", err)
	}
	defer conn.Close()

	obj := conn.Object(ipc.BusName, "/com/ubuntu/location/Service")
	var props map[string]dbus.Variant
	call := obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, "com.ubuntu.location.Service")
	if err := call.Store(&props); err != nil {
		log.Fatalf("locationd status: %v", err)
	}
	for _, key := range []string{"State", "DoesSatelliteBasedPositioning", "DoesReportCellAndWifiIds", "IsOnline"} {
		if v, ok := props[key]; ok {
			fmt.Printf("%s: %v\n", key, v.Value())
		}
	}
}

func clientSet(sessionBus bool, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: locationd set <satellite-based-positioning|report-cell-and-wifi-ids|online> <true|false>")
		os.Exit(1)
	}
	props := map[string]string{
		"satellite-based-positioning": "DoesSatelliteBasedPositioning",
		"report-cell-and-wifi-ids":    "DoesReportCellAndWifiIds",
		"online":                      "IsOnline",
	}
	propName, ok := props[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "locationd set: unknown property %q\n", args[0])
		os.Exit(1)
	}
	value := args[1] == "true"

	conn, err := connectBus(sessionBus)
	if err != nil {
		log.Fatalf("locationd set: %v", err)
	}
	defer conn.Close()

	obj := conn.Object(ipc.BusName, "/com/ubuntu/location/Service")
	call := obj.Call("org.freedesktop.DBus.Properties.Set", 0, "com.ubuntu.location.Service", propName, dbus.MakeVariant(value))
	if call.Err != nil {
		log.Fatalf("locationd set: %v", call.Err)
	}
}

// clientMonitor creates a session requiring a position fix and prints
// every PositionChanged signal it receives until interrupted.
func clientMonitor(sessionBus bool) {
	conn, err := connectBus(sessionBus)
	if err != nil {
		log.Fatalf("locationd monitor: %v", err)
	}
	defer conn.Close()

	svcObj := conn.Object(ipc.BusName, "/com/ubuntu/location/Service")
	criteria := map[string]dbus.Variant{"position": dbus.MakeVariant(0.0)}
	var sessionPath dbus.ObjectPath
	call := svcObj.Call("com.ubuntu.location.Service.CreateSessionForCriteria", 0, criteria)
	if err := call.Store(&sessionPath); err != nil {
		log.Fatalf("locationd monitor: %v", err)
	}

	sessionObj := conn.Object(ipc.BusName, sessionPath)
	if call := sessionObj.Call("com.ubuntu.location.Service.Session.StartPositionUpdates", 0); call.Err != nil {
		log.Fatalf("locationd monitor: %v", call.Err)
	}

	matchRule := fmt.Sprintf("type='signal',interface='com.ubuntu.location.Service.Session',path='%s'", sessionPath)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		log.Fatalf("locationd monitor: %v", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("monitoring position updates, press Ctrl-C to stop")
	for {
		select {
		case sig := <-signals:
			fmt.Printf("%s %v\n", sig.Name, sig.Body)
		case <-sigCh:
			sessionObj.Call("com.ubuntu.location.Service.Session.Close", 0)
			return
		}
	}
}

// clientList prints the receiver configuration currently on disk,
// without needing the daemon running.
func clientList(configPath string) {
	settings, err := config.Load([]string{configPath}, nil)
	if err != nil {
		log.Fatalf("locationd list: %v", err)
	}
	cfg := settings.ReceiverConfig()
	fmt.Printf("gnss receiver: device=%q baud=%d protocol=%v\n", cfg.Device, cfg.BaudRate, cfg.Protocol)
}

// clientProvider is an alias for list, for operators who think in terms
// of "providers" rather than "the receiver".
func clientProvider(configPath string) {
	clientList(configPath)
}

// clientTest opens the configured receiver directly - no D-Bus, no
// daemon - and prints decoded updates for the given duration (default
// 10s), so a device and its settings can be sanity-checked in isolation.
func clientTest(configPath, durationArg string) {
	settings, err := config.Load([]string{configPath}, nil)
	if err != nil {
		log.Fatalf("locationd test: %v", err)
	}
	cfg := settings.ReceiverConfig()
	if cfg.Device == "" {
		log.Fatal("locationd test: no receiver device configured")
	}

	duration := 10 * time.Second
	if durationArg != "" {
		if d, err := time.ParseDuration(durationArg); err == nil {
			duration = d
		}
	}

	r := receiver.New(cfg, slog.Default(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-r.Updates.Position:
				fmt.Printf("position: %s\n", p.Value)
			case h := <-r.Updates.Heading:
				fmt.Printf("heading: %.1f\n", float64(h.Value))
			case v := <-r.Updates.Velocity:
				fmt.Printf("velocity: %.1f\n", float64(v.Value))
			}
		}
	}()

	_ = r.Run(ctx)
}
