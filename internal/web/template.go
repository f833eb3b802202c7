package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/status"
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
	"modeName": func(m clock.Mode) string {
		switch m {
		case clock.ModeSetTime:
			return "set time"
		case clock.ModeSetAlarm:
			return "set alarm"
		case clock.ModeAlarmRinging:
			return "ringing"
		default:
			return "show time"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Alarm Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.face { font-size: 4em; letter-spacing: 0.1em; margin: 0.5em 0; }
.face .ampm { font-size: 0.35em; vertical-align: top; }
.cursor { animation: blink 1s step-start infinite; }
@keyframes blink { 50% { visibility: hidden; } }
.led { display: inline-block; width: 10px; height: 10px; border-radius: 50%; background: #ccc; vertical-align: middle; }
.led.lit { background: red; }
.ringing { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Alarm Clock <span class="led{{if .Clock.AlarmLED}} lit{{end}}" title="alarm"></span></h1>

<div class="face{{if eq .Clock.Mode "ALARM_RINGING"}} ringing{{end}}">
{{- range $i, $d := .Digits}}{{if eq $i 2}}:{{end}}<span class="{{if $d.Cursor}}cursor{{end}}">{{$d.Value}}</span>{{end -}}
{{if .Twelve}} <span class="ampm">{{if .Display.PM}}PM{{else}}AM{{end}}</span>{{end}}
</div>

<h2>Clock</h2>
<table>
<tr><th>Mode</th><td>{{modeName .Clock.Mode}}</td></tr>
<tr><th>Time</th><td>{{.Clock.Current.Format .Clock.HourMode}}</td></tr>
<tr><th>Alarm</th><td>{{.Clock.Alarm.Format .Clock.HourMode}} ({{if .Clock.Armed}}armed{{else}}off{{end}})</td></tr>
<tr><th>Hour mode</th><td>{{.Clock.HourMode}}</td></tr>
{{if .ChirpHz}}<tr><th>Tone</th><td>{{.ChirpHz}} Hz</td></tr>{{end}}
</table>

<h2>Remote</h2>
<table>
<tr><th>Frames</th><td>{{.Decoder.Frames}}</td></tr>
<tr><th>Last button</th><td>{{if .Decoder.Frames}}{{.LastButton}}{{else}}none{{end}}</td></tr>
<tr><th>Comm errors</th><td>{{.Decoder.CommErrors}}</td></tr>
<tr><th>Framing errors</th><td>{{.Decoder.Aborted}} aborted, {{.Decoder.Overflows}} overflow, {{.Decoder.Truncated}} truncated</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Motion sensor</th><td>{{if .MotionEnabled}}{{.Config.I2CBus}}{{else}}none{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Clock tick</th><td>{{.Config.ClockTickMs}}ms{{if gt .Config.SpeedFactor 1}} (x{{.Config.SpeedFactor}}){{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

type digitView struct {
	Value  uint8
	Cursor bool
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	display := snap.Clock.Display()
	digits := make([]digitView, len(display.Digits))
	for i, d := range display.Digits {
		digits[i] = digitView{Value: d, Cursor: snap.Clock.Editing() && snap.Clock.Cursor == i}
	}

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Display clock.TimeValue
		Digits  []digitView
		Twelve  bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Display:  display,
		Digits:   digits,
		Twelve:   snap.Clock.HourMode == clock.Twelve,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}
