// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/ir"
)

// Topic is the MQTT topic for clock events and button presses.
const Topic = "home/alarm-clock/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/alarm-clock/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(at time.Time, event clock.Event) error

	// PublishButton sends a decoded remote button press.
	PublishButton(at time.Time, event ir.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a controller transition.
type Payload struct {
	Clock ClockPayload `json:"clock"`
}

// ClockPayload contains the transition details.
type ClockPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from,omitempty"`
	Mode      string `json:"mode"`
	Time      string `json:"time,omitempty"`
	HourMode  string `json:"hour_mode"`
	Armed     bool   `json:"armed"`
	Reason    string `json:"reason,omitempty"`
}

// FormatPayload creates the JSON payload for a controller transition.
func FormatPayload(at time.Time, event clock.Event) ([]byte, error) {
	inner := ClockPayload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		From:      string(event.From),
		Mode:      string(event.Mode),
		HourMode:  event.HourMode.String(),
		Armed:     event.Armed,
		Reason:    event.Reason,
	}
	if event.HasTime() {
		inner.Time = event.Time.Format(event.HourMode)
	}
	return json.Marshal(Payload{Clock: inner})
}

// ButtonPayload represents the MQTT message payload for a button press.
type ButtonPayload struct {
	Button ButtonPayloadInner `json:"button"`
}

// ButtonPayloadInner contains the button press details.
type ButtonPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Button    string `json:"button"`
	Command   string `json:"command"`
}

// FormatButtonPayload creates the JSON payload for a button press.
func FormatButtonPayload(at time.Time, event ir.Event) ([]byte, error) {
	return json.Marshal(ButtonPayload{
		Button: ButtonPayloadInner{
			Timestamp: at.UTC().Format(time.RFC3339),
			Button:    event.Button.String(),
			Command:   fmt.Sprintf("0x%02X", event.Command),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
