package web

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/sweeney/cure-chamber/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"temp": func(t float64) string {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "n/a"
		}
		return fmt.Sprintf("%.1f °C", t)
	},
	"phaseClass": func(p string) string {
		switch p {
		case "HEATING":
			return "heating"
		case "AT_TEMPERATURE":
			return "attemp"
		default:
			return "idle"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Cure Chamber</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.heating { color: red; font-weight: bold; }
.attemp { color: green; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>Cure Chamber<span id="live" class="live-dot err" title="live feed"></span></h1>
<table>
<tr><th>Phase</th><td id="phase" class="{{phaseClass (printf "%s" .Tick.Phase)}}">{{.Tick.Phase}}</td></tr>
<tr><th>Running</th><td id="running">{{.Tick.Running}}</td></tr>
<tr><th>Plate</th><td id="plate">{{temp .Tick.PlateTemp}}</td></tr>
<tr><th>Box</th><td id="box">{{temp .Tick.BoxTemp}}</td></tr>
<tr><th>Remaining</th><td id="remaining">{{printf "%.0f" .Tick.RemainingMinutes}} min</td></tr>
<tr><th>Cycles</th><td id="cycles">{{.Tick.Counts.Started}} started / {{.Tick.Counts.Completed}} completed / {{.Tick.Counts.Aborted}} aborted</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Type}} {{.Network.IP}} ({{.Network.Status}})</td></tr>{{end}}
</table>
<table>
<tr><th>Target</th><td>{{temp .Config.TargetTemp}}</td></tr>
<tr><th>Cycle length</th><td>{{.Config.CycleMs}} ms</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}} ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}} ms</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>
<script>
(function () {
	var dot = document.getElementById("live");
	function connect() {
		var proto = location.protocol === "https:" ? "wss://" : "ws://";
		var ws = new WebSocket(proto + location.host + "/live");
		ws.onopen = function () { dot.className = "live-dot ok"; };
		ws.onclose = function () {
			dot.className = "live-dot err";
			setTimeout(connect, 2000);
		};
		ws.onmessage = function (msg) {
			var st = JSON.parse(msg.data).status;
			var temp = function (v) { return v == null ? "n/a" : v.toFixed(1) + " °C"; };
			document.getElementById("phase").textContent = st.phase;
			document.getElementById("running").textContent = st.running;
			document.getElementById("plate").textContent = temp(st.plate_temp_c);
			document.getElementById("box").textContent = temp(st.box_temp_c);
			document.getElementById("remaining").textContent = st.remaining_minutes.toFixed(0) + " min";
			document.getElementById("cycles").textContent =
				st.cycle_counts.started + " started / " +
				st.cycle_counts.completed + " completed / " +
				st.cycle_counts.aborted + " aborted";
		};
	}
	connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Render errors end up as a truncated page; nothing useful to do.
	_ = indexTmpl.Execute(w, snap)
}
