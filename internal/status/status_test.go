package status

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

func testConfig() Config {
	return Config{
		PollMs:      1000,
		DebounceMs:  50,
		HeartbeatMs: 900000,
		TargetTemp:  60,
		CycleMs:     1800000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
}

func TestTrackerInitialSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	if snap.Tick.Phase != cycle.PhaseIdle {
		t.Errorf("initial phase: got %s, want IDLE", snap.Tick.Phase)
	}
	if snap.Tick.Running {
		t.Error("initial snapshot should not be running")
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("start time: got %v, want %v", snap.StartTime, start)
	}
	if snap.Now.IsZero() {
		t.Error("snapshot Now should be populated")
	}
}

func TestTrackerUpdate(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	tick := TickState{
		Phase:            cycle.PhaseHeating,
		Running:          true,
		Heating:          true,
		ButtonRaw:        false,
		BoxTemp:          31.5,
		PlateTemp:        42.2,
		RemainingMinutes: 30,
		Counts:           cycle.Counts{Started: 2, Completed: 1},
	}
	tr.Update(tick)

	snap := tr.Snapshot()
	if snap.Tick != tick {
		t.Errorf("tick state: got %+v, want %+v", snap.Tick, tick)
	}
}

func TestTrackerSetters(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Status: "connected", IP: "192.168.1.42"})

	snap := tr.Snapshot()
	if !snap.MQTTConnected {
		t.Error("MQTTConnected should be true")
	}
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("network: got %+v", snap.Network)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.Update(TickState{PlateTemp: float64(n)})
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(90 * time.Second),
	}
	if got := snap.Uptime(); got != 90*time.Second {
		t.Errorf("uptime: got %v, want 90s", got)
	}
}

func TestFormatJSONFields(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Tick: TickState{
			Phase:            cycle.PhaseAtTemperature,
			Running:          true,
			BoxTemp:          30.1,
			PlateTemp:        61.7,
			RemainingMinutes: 30,
			Counts:           cycle.Counts{Started: 3, Completed: 2, Aborted: 1},
		},
		StartTime:     start,
		Now:           start.Add(time.Hour),
		MQTTConnected: true,
		Config:        testConfig(),
	}

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if sj.Status.Phase != "AT_TEMPERATURE" {
		t.Errorf("phase: got %q", sj.Status.Phase)
	}
	if !sj.Status.Running {
		t.Error("running should be true")
	}
	if sj.Status.PlateTempC == nil || *sj.Status.PlateTempC != 61.7 {
		t.Errorf("plate temp: got %v", sj.Status.PlateTempC)
	}
	if sj.Status.UptimeSeconds != 3600 {
		t.Errorf("uptime: got %d, want 3600", sj.Status.UptimeSeconds)
	}
	if sj.Status.Counts.Aborted != 1 {
		t.Errorf("aborted count: got %d, want 1", sj.Status.Counts.Aborted)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("mqtt connected should be true")
	}
	if sj.Status.Config.TargetTempC != 60 {
		t.Errorf("target temp: got %v, want 60", sj.Status.Config.TargetTempC)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON should carry no event, got %q", sj.Status.Event)
	}
}

func TestFormatJSONFaultedSensorRendersNull(t *testing.T) {
	// A dead probe reaches the tracker as NaN; the JSON output must stay a
	// complete document with the faulted reading as null, not vanish.
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testConfig())
	tr.Update(TickState{
		Phase:     cycle.PhaseIdle,
		Running:   true,
		BoxTemp:   28.4,
		PlateTemp: math.NaN(),
	})

	data := FormatJSON(tr.Snapshot())
	if len(data) == 0 {
		t.Fatal("FormatJSON returned empty output for NaN plate temp")
	}

	var sj StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.PlateTempC != nil {
		t.Errorf("plate temp should be null, got %v", *sj.Status.PlateTempC)
	}
	if sj.Status.BoxTempC == nil || *sj.Status.BoxTempC != 28.4 {
		t.Errorf("box temp: got %v", sj.Status.BoxTempC)
	}
	if !sj.Status.Running {
		t.Error("running flag lost alongside the faulted reading")
	}

	ev := FormatStatusEvent(tr.Snapshot(), "HEARTBEAT", "")
	if len(ev) == 0 {
		t.Fatal("FormatStatusEvent returned empty output for NaN plate temp")
	}
	if err := json.Unmarshal(ev, &sj); err != nil {
		t.Fatalf("invalid event JSON: %v", err)
	}
	if sj.Status.Event != "HEARTBEAT" {
		t.Errorf("event: got %q", sj.Status.Event)
	}
}

func TestFormatJSONUnknownPhase(t *testing.T) {
	snap := Snapshot{Now: time.Now()}

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Phase != "UNKNOWN" {
		t.Errorf("empty phase should render UNKNOWN, got %q", sj.Status.Phase)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC)
	snap := Snapshot{
		Tick:      TickState{Phase: cycle.PhaseIdle},
		StartTime: start,
		Now:       start,
	}

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q", sj.Status.Event)
	}
	if sj.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q", sj.Status.Reason)
	}
	if sj.Status.Timestamp != "2026-02-03T10:30:45Z" {
		t.Errorf("timestamp: got %q", sj.Status.Timestamp)
	}
	if sj.Status.Network != nil {
		t.Error("network should be omitted when unset")
	}
}
