// Command cure-chamber runs the closed-loop controller for a UV curing
// chamber: it polls the start/abort button and two thermistors, drives the
// heater and lamp relays plus the status LEDs, and publishes telemetry to
// MQTT, a local status page, and a SQLite history database.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/cure-chamber/internal/button"
	"github.com/sweeney/cure-chamber/internal/config"
	"github.com/sweeney/cure-chamber/internal/cycle"
	"github.com/sweeney/cure-chamber/internal/hal"
	"github.com/sweeney/cure-chamber/internal/mqtt"
	"github.com/sweeney/cure-chamber/internal/status"
	"github.com/sweeney/cure-chamber/internal/storage"
	"github.com/sweeney/cure-chamber/internal/thermistor"
	"github.com/sweeney/cure-chamber/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (flags override it)")
	poll := flag.Duration("poll", time.Second, "Sensor polling interval")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "Button debounce duration")
	target := flag.Float64("target", 60, "Target plate temperature in Celsius")
	cycleLen := flag.Duration("cycle", 30*time.Minute, "Cure cycle duration")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	dbPath := flag.String("db", "", "SQLite history path (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current sensor state and exit")

	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Control.PollInterval = *poll
		case "debounce":
			cfg.Control.Debounce = *debounce
		case "target":
			cfg.Control.TargetTempC = *target
		case "cycle":
			cfg.Control.CycleDuration = *cycleLen
		case "broker":
			cfg.MQTT.Broker = *broker
			cfg.MQTT.Enabled = *broker != ""
		case "heartbeat":
			cfg.Control.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "db":
			cfg.Database.Path = *dbPath
			cfg.Database.Enabled = *dbPath != ""
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	if err := run(cfg, *printState, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(cfg *config.Config, printState bool, logger zerolog.Logger) error {
	io, err := hal.NewRealIO(cfg.Pins.Chip, cfg.ButtonPin(), cfg.OutputPins(), cfg.Pins.IIODevice)
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	defer io.Close()

	thermCfg := cfg.ThermistorConverter()
	boxProbe := thermistor.NewProbe(thermCfg, cfg.Thermistor.BoxChannel, time.Sleep)
	plateProbe := thermistor.NewProbe(thermCfg, cfg.Thermistor.PlateChannel, time.Sleep)

	if printState {
		return printCurrentState(io, boxProbe, plateProbe, cfg.Pins.Button.ActiveLow)
	}

	var (
		pub        mqtt.Publisher
		connStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Enabled && cfg.MQTT.Broker != "" {
		rp, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer rp.Close()
		pub = rp
		connStatus = rp
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Control.PollInterval.Milliseconds(),
		DebounceMs:  cfg.Control.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Control.Heartbeat.Milliseconds(),
		TargetTemp:  cfg.Control.TargetTempC,
		CycleMs:     cfg.Control.CycleDuration.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup with a full status snapshot so a retained subscriber
	// sees the daemon configuration immediately.
	if pub != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := pub.PublishSystem(startup); err != nil {
			logger.Warn().Err(err).Msg("startup publish failed")
		} else {
			logger.Info().Msg("published startup event")
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http server")
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	var store *storage.Store
	if cfg.Database.Enabled && cfg.Database.Path != "" {
		store, err = storage.Open(cfg.Database.Path, logger)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer store.Close()
	}

	logger.Info().
		Dur("poll", cfg.Control.PollInterval).
		Dur("debounce", cfg.Control.Debounce).
		Float64("target_c", cfg.Control.TargetTempC).
		Dur("cycle", cfg.Control.CycleDuration).
		Str("broker", cfg.MQTT.Broker).
		Msg("started")

	ticker := time.NewTicker(cfg.Control.PollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		in:         io,
		out:        io,
		pub:        pub,
		connStatus: connStatus,
		tracker:    tracker,
		store:      store,
		boxProbe:   boxProbe,
		plateProbe: plateProbe,
		deb:        button.New(cfg.Control.Debounce, cfg.Pins.Button.ActiveLow),
		ctrl: cycle.NewController(cycle.Config{
			TargetTemp: cfg.Control.TargetTempC,
			Duration:   cfg.Control.CycleDuration,
		}),
		heartbeat: cfg.Control.Heartbeat,
		retention: time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
	return l.run(ticker.C, sigCh)
}

// loop is the single-goroutine control loop: all sensor reads, all control
// decisions, and all actuator writes happen here, one tick at a time.
type loop struct {
	in         hal.Inputs
	out        hal.Outputs
	pub        mqtt.Publisher // nil disables publishing
	connStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	store      *storage.Store // nil disables history
	boxProbe   *thermistor.Probe
	plateProbe *thermistor.Probe
	deb        *button.Debouncer
	ctrl       *cycle.Controller
	heartbeat  time.Duration // 0 disables
	retention  time.Duration // 0 disables trimming
	logger     zerolog.Logger
	now        func() time.Time

	lastHeartbeat time.Time
	lastTrim      time.Time
}

func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	start := l.now()
	l.lastHeartbeat = start
	l.lastTrim = start

	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil
		case <-tick:
			l.step()
		}
	}
}

// step executes one control tick: sense, decide, actuate, report.
func (l *loop) step() {
	t := l.now()

	boxTemp := l.readProbe(l.boxProbe, "box")
	plateTemp := l.readProbe(l.plateProbe, "plate")

	raw, err := l.in.Button()
	if err != nil {
		l.logger.Warn().Err(err).Msg("button read error")
		// Feed the last stable level so the debouncer state stays put.
		raw = l.deb.Stable()
	}
	stable, pressed := l.deb.Update(raw, t)

	var events []cycle.Event
	if pressed {
		ev := l.ctrl.Press(t)
		ev.PlateTemp = plateTemp
		events = append(events, ev)
	}

	outputs, stepEvents := l.ctrl.Step(t, plateTemp)
	events = append(events, stepEvents...)

	if err := l.out.Apply(outputs); err != nil {
		l.logger.Error().Err(err).Msg("output apply error")
	}

	l.tracker.Update(status.TickState{
		Phase:            l.ctrl.Phase(),
		Running:          l.ctrl.Running(),
		Heating:          outputs.Heater,
		ButtonRaw:        stable,
		BoxTemp:          boxTemp,
		PlateTemp:        plateTemp,
		RemainingMinutes: l.ctrl.RemainingMinutes(),
		Counts:           l.ctrl.CountsSnapshot(),
	})

	l.logger.Debug().
		Str("phase", string(l.ctrl.Phase())).
		Bool("running", l.ctrl.Running()).
		Bool("heating", outputs.Heater).
		Bool("button_raw", stable).
		Float64("box_c", boxTemp).
		Float64("plate_c", plateTemp).
		Float64("remaining_min", l.ctrl.RemainingMinutes()).
		Msg("tick")

	for _, ev := range events {
		l.logger.Info().
			Str("event", string(ev.Type)).
			Str("phase", string(ev.Phase)).
			Float64("plate_c", ev.PlateTemp).
			Msg("cycle event")
		if l.pub != nil {
			if err := l.pub.Publish(ev); err != nil {
				l.logger.Warn().Err(err).Msg("publish error")
			}
		}
		if l.store != nil {
			if err := l.store.InsertCycleEvent(ev); err != nil {
				l.logger.Warn().Err(err).Msg("history insert error")
			}
		}
	}

	reading := mqtt.Reading{
		Timestamp:        t,
		BoxTemp:          boxTemp,
		PlateTemp:        plateTemp,
		Phase:            l.ctrl.Phase(),
		Running:          l.ctrl.Running(),
		RemainingMinutes: l.ctrl.RemainingMinutes(),
	}
	if l.pub != nil {
		if err := l.pub.PublishReading(reading); err != nil {
			l.logger.Warn().Err(err).Msg("reading publish error")
		}
	}
	if l.store != nil {
		err := l.store.InsertReading(storage.Reading{
			Timestamp: t,
			BoxTemp:   boxTemp,
			PlateTemp: plateTemp,
			Phase:     l.ctrl.Phase(),
			Running:   l.ctrl.Running(),
		})
		if err != nil {
			l.logger.Warn().Err(err).Msg("history insert error")
		}
	}

	l.checkHeartbeat(t)
	l.checkRetention(t)

	if l.connStatus != nil {
		l.tracker.SetMQTTConnected(l.connStatus.IsConnected())
	}
}

// readProbe converts a probe failure into NaN so the controller's default
// branch denies the heater instead of acting on stale numbers.
func (l *loop) readProbe(p *thermistor.Probe, name string) float64 {
	temp, err := p.Read(l.in)
	if err != nil {
		l.logger.Warn().Err(err).Str("sensor", name).Msg("probe read error")
		return math.NaN()
	}
	return temp
}

func (l *loop) checkHeartbeat(t time.Time) {
	if l.heartbeat <= 0 || t.Sub(l.lastHeartbeat) < l.heartbeat {
		return
	}
	l.lastHeartbeat = t

	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	if l.connStatus != nil {
		l.tracker.SetMQTTConnected(l.connStatus.IsConnected())
	}

	snap := l.tracker.Snapshot()
	l.logger.Info().
		Dur("uptime", snap.Uptime()).
		Str("phase", string(snap.Tick.Phase)).
		Msg("heartbeat")

	if l.pub == nil {
		return
	}
	hb := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.pub.PublishSystem(hb); err != nil {
		l.logger.Warn().Err(err).Msg("heartbeat publish error")
	}
}

func (l *loop) checkRetention(t time.Time) {
	if l.store == nil || l.retention <= 0 || t.Sub(l.lastTrim) < time.Hour {
		return
	}
	l.lastTrim = t

	if _, err := l.store.DeleteOlderThan(t.Add(-l.retention)); err != nil {
		l.logger.Warn().Err(err).Msg("history trim error")
	}
}

func (l *loop) shutdown(s os.Signal) {
	l.logger.Info().Str("signal", s.String()).Msg("shutting down")

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	if l.pub == nil {
		return
	}
	if l.connStatus != nil {
		l.tracker.SetMQTTConnected(l.connStatus.IsConnected())
	}
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
	}
	if err := l.pub.PublishSystem(event); err != nil {
		l.logger.Warn().Err(err).Msg("shutdown publish failed")
	} else {
		l.logger.Info().Msg("published shutdown event")
	}
}

func printCurrentState(in hal.Inputs, box, plate *thermistor.Probe, activeLow bool) error {
	boxTemp, err := box.Read(in)
	if err != nil {
		return fmt.Errorf("read box sensor: %w", err)
	}
	plateTemp, err := plate.Read(in)
	if err != nil {
		return fmt.Errorf("read plate sensor: %w", err)
	}
	raw, err := in.Button()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}

	pressed := raw != activeLow
	state := "RELEASED"
	if pressed {
		state = "PRESSED"
	}
	fmt.Printf("box: %.1f C, plate: %.1f C, button: %s\n", boxTemp, plateTemp, state)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
