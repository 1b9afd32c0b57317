// Package status provides a thread-safe status tracker for the cure-chamber
// daemon. It is read by the HTTP handlers and the websocket live feed.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// NetworkInfo contains network state reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	TargetTemp  float64
	CycleMs     int64
	Broker      string
	HTTPAddr    string
}

// TickState is the per-tick controller state pushed into the tracker.
type TickState struct {
	Phase            cycle.Phase
	Running          bool
	Heating          bool
	ButtonRaw        bool
	BoxTemp          float64
	PlateTemp        float64
	RemainingMinutes float64
	Counts           cycle.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Tick          TickState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Tick:      TickState{Phase: cycle.PhaseIdle},
		},
	}
}

// Update stores the latest tick state. Called from the run loop every tick.
func (t *Tracker) Update(tick TickState) {
	t.mu.Lock()
	t.snap.Tick = tick
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
