package main

import (
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/ir"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/motion"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/status"
)

// loop is the main-loop side of the daemon: it drains the decoder, drives
// the controller and fans transitions out to MQTT, the tracker and the LED.
type loop struct {
	decoder    *ir.Decoder
	controller *clock.Controller
	sensor     motion.Sensor // nil when no sensor is attached
	debouncer  *motion.Debouncer
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // nil when MQTT is disabled
	tracker    *status.Tracker
	led        gpio.Writer
	chirp      interface{ Frequency() int } // optional
	heartbeat  time.Duration
	now        func() time.Time
	// tickPeriod is the slow tick interval; zero treats every tick as one.
	tickPeriod time.Duration

	ledOn         bool
	ledKnown      bool
	lastHeartbeat time.Time
	lastTick      time.Time
}

func (l *loop) run(clockTick, poll <-chan time.Time, sig <-chan os.Signal) error {
	l.lastHeartbeat = l.now()

	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil

		case t := <-clockTick:
			l.clockTicks(t)
			l.refresh()

		case <-poll:
			if ev, ok := l.decoder.Poll(); ok {
				l.handleFrame(ev)
			}
			l.checkMotion()
			l.refresh()
			l.checkHeartbeat()
		}
	}
}

// clockTicks runs one controller tick per slow period elapsed since the last
// tick. A ticker drops ticks while the loop is busy publishing, and each
// dropped tick would otherwise be lost from the time of day.
func (l *loop) clockTicks(t time.Time) {
	n := 1
	if l.tickPeriod > 0 && !l.lastTick.IsZero() && !t.IsZero() {
		n = int((t.Sub(l.lastTick) + l.tickPeriod/2) / l.tickPeriod)
		if n < 1 {
			n = 1
		}
		if n > 1 {
			metrics.MissedClockTicks(n - 1)
			log.Warn().Int("missed", n-1).Msg("clock ticks caught up")
		}
	}
	l.lastTick = t

	for i := 0; i < n; i++ {
		l.apply(l.controller.Tick())
	}
}

func (l *loop) handleFrame(ev ir.Event) {
	t := l.now()
	l.tracker.RecordFrame(ev)
	metrics.ObserveFrame(ev)
	if err := l.publisher.PublishButton(t, ev); err != nil {
		metrics.PublishError()
		log.Warn().Err(err).Msg("button publish error")
	}

	switch ev.Button {
	case ir.ButtonCommError:
		log.Warn().Uint8("command", ev.Command).Msg("ir frame failed complement check")
		return
	case ir.ButtonUnknown:
		log.Info().Uint8("command", ev.Command).Msg("unmapped remote button")
		return
	}
	log.Debug().Stringer("button", ev.Button).Msg("button")
	l.apply(l.controller.HandleButton(ev.Button))
}

// checkMotion reads the sensor once per poll, ringing or not, so the bus
// sees the same read sequence in every mode. Motion only acts while ringing.
func (l *loop) checkMotion() {
	if l.sensor == nil {
		return
	}
	moving, err := l.sensor.Moving()
	if err != nil {
		metrics.MotionError()
		l.debouncer.Reset()
		log.Debug().Err(err).Msg("motion read error")
		return
	}
	if l.debouncer.Process(moving, l.now()) {
		l.apply(l.controller.MotionDetected())
	}
}

func (l *loop) apply(events []clock.Event) {
	if len(events) == 0 {
		return
	}
	t := l.now()
	for _, e := range events {
		le := log.Info().Str("event", string(e.Type)).Str("mode", string(e.Mode))
		if e.HasTime() {
			le = le.Str("time", e.Time.Format(e.HourMode))
		}
		if e.Reason != "" {
			le = le.Str("reason", e.Reason)
		}
		le.Msg("clock event")
		if err := l.publisher.Publish(t, e); err != nil {
			metrics.PublishError()
			log.Warn().Err(err).Msg("publish error")
			// Don't crash on publish failure
		}
	}
	metrics.ObserveEvents(events)
}

// refresh pushes controller state to the tracker and the alarm LED.
func (l *loop) refresh() {
	snap := l.controller.Snapshot()
	l.tracker.Update(snap)
	metrics.SetMode(snap.Mode)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	if l.chirp != nil {
		l.tracker.SetChirp(l.chirp.Frequency())
	}

	on := snap.AlarmLED()
	if l.ledKnown && on == l.ledOn {
		return
	}
	if err := l.led.Set(on); err != nil {
		log.Warn().Err(err).Msg("alarm led write failed")
		return
	}
	l.ledOn, l.ledKnown = on, true
}

func (l *loop) checkHeartbeat() {
	if l.heartbeat <= 0 {
		return
	}
	t := l.now()
	if t.Sub(l.lastHeartbeat) < l.heartbeat {
		return
	}
	l.lastHeartbeat = t

	snap := l.tracker.Snapshot()
	log.Info().Dur("uptime", snap.Uptime()).Int("frames", snap.Decoder.Frames).Msg("heartbeat")
	hb := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.publisher.PublishSystem(hb); err != nil {
		metrics.PublishError()
		log.Warn().Err(err).Msg("heartbeat publish error")
	}
}

func (l *loop) shutdown(s os.Signal) {
	log.Info().Stringer("signal", s).Msg("shutting down")
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	l.refresh()
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Warn().Err(err).Msg("failed to publish shutdown event")
	} else {
		log.Info().Msg("published shutdown event")
	}
}
