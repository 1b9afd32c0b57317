package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string       `json:"event,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	Phase   string `json:"phase"`
	Running bool   `json:"running"`
	Heating bool   `json:"heating"`
	// Temperatures are pointers so a faulted sensor renders as null:
	// json.Marshal rejects NaN outright, which would drop the whole
	// status document.
	ButtonRaw        bool         `json:"button_raw"`
	BoxTempC         *float64     `json:"box_temp_c"`
	PlateTempC       *float64     `json:"plate_temp_c"`
	RemainingMinutes float64      `json:"remaining_minutes"`
	UptimeSeconds    int64        `json:"uptime_seconds"`
	StartTime        string       `json:"start_time"`
	Timestamp        string       `json:"timestamp"`
	MQTT             MQTTStatus   `json:"mqtt"`
	Counts           CountsJSON   `json:"cycle_counts"`
	Network          *NetworkJSON `json:"network,omitempty"`
	Config           ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Aborted   int `json:"aborted"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	DebounceMs  int64   `json:"debounce_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	TargetTempC float64 `json:"target_temp_c"`
	CycleMs     int64   `json:"cycle_ms"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
}

// jsonTemp maps a temperature to its JSON value, nil (null) when the
// reading is not a finite number.
func jsonTemp(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Tick.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	return StatusInner{
		Phase:            phase,
		Running:          snap.Tick.Running,
		Heating:          snap.Tick.Heating,
		ButtonRaw:        snap.Tick.ButtonRaw,
		BoxTempC:         jsonTemp(snap.Tick.BoxTemp),
		PlateTempC:       jsonTemp(snap.Tick.PlateTemp),
		RemainingMinutes: snap.Tick.RemainingMinutes,
		UptimeSeconds:    int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:        snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:        snap.Now.UTC().Format(time.RFC3339),
		MQTT:             MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Started:   snap.Tick.Counts.Started,
			Completed: snap.Tick.Counts.Completed,
			Aborted:   snap.Tick.Counts.Aborted,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			TargetTempC: snap.Config.TargetTemp,
			CycleMs:     snap.Config.CycleMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
