// Package metrics exports Prometheus counters for the decoder and the
// clock controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/ir"
)

const namespace = "alarm_clock"

var (
	framesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ir_frames_total",
		Help:      "remote frames drained from the decoder, by button",
	}, []string{"button"})

	decoderOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ir_decoder_outcomes_total",
		Help:      "decoder ticks that aborted, overflowed, truncated or were ignored under back-pressure",
	}, []string{"outcome"})

	missedSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ir_missed_samples_total",
		Help:      "sample ticks that were due but never taken because the sampler fell behind",
	})

	missedClockTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clock_missed_ticks_total",
		Help:      "slow ticks dropped by the ticker and replayed by the main loop",
	})

	sampleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ir_sample_errors_total",
		Help:      "failed reads of the IR sensor line",
	})

	clockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clock_events_total",
		Help:      "controller transitions, by event type",
	}, []string{"event"})

	mode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "clock_mode",
		Help:      "1 for the current application mode, 0 otherwise",
	}, []string{"mode"})

	motionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "motion_errors_total",
		Help:      "failed reads of the motion sensor",
	})

	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_publish_errors_total",
		Help:      "MQTT publishes that returned an error",
	})
)

var modes = []clock.Mode{clock.ModeShowTime, clock.ModeSetTime, clock.ModeSetAlarm, clock.ModeAlarmRinging}

// outcomeCounters is indexed by ir.Outcome so the sampler never touches the
// label map.
var outcomeCounters [ir.OutcomeComplete + 1]prometheus.Counter

func init() {
	for _, o := range []ir.Outcome{ir.OutcomeIgnored, ir.OutcomeAborted, ir.OutcomeOverflow, ir.OutcomeTruncated} {
		outcomeCounters[o] = decoderOutcomes.WithLabelValues(o.String())
	}
	for _, m := range modes {
		mode.WithLabelValues(string(m))
	}
}

// ObserveOutcome records a decoder tick outcome. Uninteresting outcomes are
// ignored.
func ObserveOutcome(o ir.Outcome) {
	if o < 0 || int(o) >= len(outcomeCounters) {
		return
	}
	if c := outcomeCounters[o]; c != nil {
		c.Inc()
	}
}

// ObserveFrame records a drained button event.
func ObserveFrame(e ir.Event) {
	framesDecoded.WithLabelValues(e.Button.String()).Inc()
}

// ObserveEvents records controller transitions and tracks the mode they
// leave the controller in.
func ObserveEvents(events []clock.Event) {
	for _, e := range events {
		clockEvents.WithLabelValues(string(e.Type)).Inc()
	}
	if len(events) > 0 {
		SetMode(events[len(events)-1].Mode)
	}
}

// SetMode sets the mode gauge.
func SetMode(m clock.Mode) {
	for _, other := range modes {
		v := 0.0
		if other == m {
			v = 1
		}
		mode.WithLabelValues(string(other)).Set(v)
	}
}

// MissedSamples records n skipped sample ticks.
func MissedSamples(n int) {
	missedSamples.Add(float64(n))
}

// MissedClockTicks records n slow ticks replayed after the main loop fell behind.
func MissedClockTicks(n int) {
	missedClockTicks.Add(float64(n))
}

// SampleError records a failed IR line read.
func SampleError() {
	sampleErrors.Inc()
}

// MotionError records a failed motion sensor read.
func MotionError() {
	motionErrors.Inc()
}

// PublishError records a failed MQTT publish.
func PublishError() {
	publishErrors.Inc()
}
