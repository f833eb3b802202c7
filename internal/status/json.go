package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/alarm-clock/internal/clock"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Clock         ClockJSON   `json:"clock"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Decoder       DecoderJSON `json:"decoder"`
	Motion        bool        `json:"motion_sensor"`
	Config        ConfigJSON  `json:"config"`
}

// ClockJSON is the JSON representation of the controller state.
type ClockJSON struct {
	Mode     string `json:"mode"`
	HourMode string `json:"hour_mode"`
	Time     string `json:"time"`
	Alarm    string `json:"alarm"`
	Display  string `json:"display"`
	Cursor   *int   `json:"cursor,omitempty"`
	Armed    bool   `json:"armed"`
	AlarmLED bool   `json:"alarm_led"`
	ChirpHz  int    `json:"chirp_hz,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// DecoderJSON is the JSON representation of decoder counts.
type DecoderJSON struct {
	LastButton string `json:"last_button,omitempty"`
	Frames     int    `json:"frames"`
	CommErrors int    `json:"comm_errors"`
	Unknown    int    `json:"unknown"`
	Aborted    int    `json:"aborted"`
	Overflows  int    `json:"overflows"`
	Truncated  int    `json:"truncated"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	ClockTickMs int64  `json:"clock_tick_ms"`
	SpeedFactor int    `json:"speed_factor"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	IRPin       int    `json:"ir_pin"`
	BuzzerPin   int    `json:"buzzer_pin"`
	LEDPin      int    `json:"led_pin"`
	I2CBus      string `json:"i2c_bus,omitempty"`
}

func buildClock(snap Snapshot) ClockJSON {
	c := snap.Clock
	out := ClockJSON{
		Mode:     string(c.Mode),
		HourMode: c.HourMode.String(),
		Time:     c.Current.Format(c.HourMode),
		Alarm:    c.Alarm.Format(c.HourMode),
		Display:  c.Display().Format(c.HourMode),
		Armed:    c.Armed,
		AlarmLED: c.AlarmLED(),
	}
	if out.Mode == "" {
		out.Mode = string(clock.ModeShowTime)
	}
	if c.Editing() {
		cursor := c.Cursor
		out.Cursor = &cursor
	}
	if c.Mode == clock.ModeAlarmRinging {
		out.ChirpHz = snap.ChirpHz
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Decoder
	inner := StatusInner{
		Clock:         buildClock(snap),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Decoder: DecoderJSON{
			Frames:     d.Frames,
			CommErrors: d.CommErrors,
			Unknown:    d.Unknown,
			Aborted:    d.Aborted,
			Overflows:  d.Overflows,
			Truncated:  d.Truncated,
		},
		Motion: snap.MotionEnabled,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			ClockTickMs: snap.Config.ClockTickMs,
			SpeedFactor: snap.Config.SpeedFactor,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			IRPin:       snap.Config.IRPin,
			BuzzerPin:   snap.Config.BuzzerPin,
			LEDPin:      snap.Config.LEDPin,
			I2CBus:      snap.Config.I2CBus,
		},
	}
	if d.Frames > 0 {
		inner.Decoder.LastButton = snap.LastButton.String()
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
