// Package status provides a thread-safe status tracker for the alarm-clock daemon.
// It is read by the HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/ir"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	ClockTickMs int64
	SpeedFactor int
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	IRPin       int
	BuzzerPin   int
	LEDPin      int
	I2CBus      string
}

// DecoderCounts tallies what the IR decoder has produced.
type DecoderCounts struct {
	Frames     int
	CommErrors int
	Unknown    int
	Aborted    int
	Overflows  int
	Truncated  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Clock         clock.Snapshot
	LastButton    ir.Button
	Decoder       DecoderCounts
	ChirpHz       int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MotionEnabled bool
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
		},
	}
}

// Update stores the latest controller state.
// Called from runLoop after every tick and button.
func (t *Tracker) Update(snap clock.Snapshot) {
	t.mu.Lock()
	t.snap.Clock = snap
	t.mu.Unlock()
}

// RecordFrame counts a drained button event.
func (t *Tracker) RecordFrame(e ir.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Decoder.Frames++
	t.snap.LastButton = e.Button
	switch e.Button {
	case ir.ButtonCommError:
		t.snap.Decoder.CommErrors++
	case ir.ButtonUnknown:
		t.snap.Decoder.Unknown++
	}
}

// RecordOutcome counts framing failures reported by the decoder.
func (t *Tracker) RecordOutcome(o ir.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch o {
	case ir.OutcomeAborted:
		t.snap.Decoder.Aborted++
	case ir.OutcomeOverflow:
		t.snap.Decoder.Overflows++
	case ir.OutcomeTruncated:
		t.snap.Decoder.Truncated++
	}
}

// SetChirp sets the current alarm tone frequency.
func (t *Tracker) SetChirp(hz int) {
	t.mu.Lock()
	t.snap.ChirpHz = hz
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMotionEnabled records whether a motion sensor is attached.
func (t *Tracker) SetMotionEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.MotionEnabled = enabled
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
