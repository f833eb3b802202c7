package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-clock/internal/alarm"
	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/ir"
	"github.com/sweeney/alarm-clock/internal/motion"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/status"
)

var t0 = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

// harness runs loop.run in a goroutine. The tick channels are unbuffered so
// each send returns only once the previous one has been handled.
type harness struct {
	l       *loop
	pub     *mqtt.FakePublisher
	out     *alarm.FakeOutput
	led     *gpio.FakeWriter
	tracker *status.Tracker

	clockTick chan time.Time
	poll      chan time.Time
	sig       chan os.Signal
	errCh     chan error
}

func newHarness(cfg clock.Config, sensor motion.Sensor, heartbeat time.Duration, now func() time.Time, opts ...func(*loop)) *harness {
	h := &harness{
		pub:       mqtt.NewFakePublisher(),
		out:       &alarm.FakeOutput{},
		led:       &gpio.FakeWriter{},
		tracker:   status.NewTracker(t0, status.Config{}),
		clockTick: make(chan time.Time),
		poll:      make(chan time.Time),
		sig:       make(chan os.Signal, 1),
		errCh:     make(chan error, 1),
	}
	h.l = &loop{
		decoder:    ir.NewDecoder(ir.DefaultTiming()),
		controller: clock.New(cfg, h.out),
		sensor:     sensor,
		debouncer:  motion.NewDebouncer(0),
		publisher:  h.pub,
		mqttStatus: h.pub,
		tracker:    h.tracker,
		led:        h.led,
		heartbeat:  heartbeat,
		now:        now,
	}
	for _, opt := range opts {
		opt(h.l)
	}
	h.l.refresh()
	go func() { h.errCh <- h.l.run(h.clockTick, h.poll, h.sig) }()
	return h
}

// press feeds one encoded frame to the decoder, then polls for it.
func (h *harness) press(t *testing.T, b ir.Button) {
	t.Helper()
	cmd, ok := ir.CommandFor(b)
	require.True(t, ok, "no command for %s", b)
	h.frame(ir.Encode(0x00, cmd, ir.DefaultTiming()))
}

func (h *harness) frame(samples []bool) {
	// Wait for the loop to drain the previous frame.
	for h.l.decoder.Available() {
		runtime.Gosched()
	}
	for _, mark := range samples {
		h.l.decoder.Tick(mark)
	}
	h.poll <- time.Time{}
}

func (h *harness) stop(t *testing.T, s os.Signal) {
	t.Helper()
	h.sig <- s
	require.NoError(t, <-h.errCh)
}

func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func TestRunLoopShutdown(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	h.stop(t, syscall.SIGTERM)

	require.Len(t, h.pub.SystemEvents, 1)
	ev := h.pub.SystemEvents[0]
	assert.Equal(t, "SHUTDOWN", ev.Event)
	assert.Equal(t, "SIGTERM", ev.Reason)
	assert.True(t, ev.Retained)
	assert.Contains(t, string(ev.RawPayload), `"event":"SHUTDOWN"`)
	assert.Contains(t, string(h.pub.SystemPayloads[0]), "SIGTERM")

	// Armed by default, so the LED is lit on the first refresh.
	assert.Equal(t, []bool{true}, h.led.Values())
}

func TestRunLoopSignalNames(t *testing.T) {
	for _, tc := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
			h.stop(t, tc.sig)
			require.Len(t, h.pub.SystemEvents, 1)
			assert.Equal(t, tc.want, h.pub.SystemEvents[0].Reason)
		})
	}
}

func TestRunLoopSetTimeFromRemote(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	for _, b := range []ir.Button{
		ir.ButtonMode,
		ir.Button0, ir.Button7, ir.Button3, ir.Button0,
		ir.ButtonMode,
		ir.ButtonMode,
	} {
		h.press(t, b)
	}
	h.stop(t, syscall.SIGINT)

	assert.Equal(t, []clock.EventType{
		clock.EventModeChanged,
		clock.EventTimeSet,
		clock.EventModeChanged,
		clock.EventModeChanged,
	}, h.pub.EventTypes())
	assert.Len(t, h.pub.Buttons, 7)

	snap := h.tracker.Snapshot()
	assert.Equal(t, clock.ModeShowTime, snap.Clock.Mode)
	assert.Equal(t, "07:30 AM", snap.Clock.Current.Format(clock.Twelve))
	assert.Equal(t, ir.ButtonMode, snap.LastButton)
	assert.Equal(t, 7, snap.Decoder.Frames)

	// Lit while armed, dark in SET_TIME, lit in SET_ALARM.
	assert.Equal(t, []bool{true, false, true}, h.led.Values())
}

func TestRunLoopInvalidEditDiscarded(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	for _, b := range []ir.Button{ir.ButtonMode, ir.Button9, ir.Button9, ir.ButtonMode} {
		h.press(t, b)
	}
	h.stop(t, syscall.SIGINT)

	assert.Equal(t, []clock.EventType{
		clock.EventModeChanged,
		clock.EventEditDiscarded,
		clock.EventModeChanged,
	}, h.pub.EventTypes())
	assert.Equal(t, "12:00 AM", h.tracker.Snapshot().Clock.Current.Format(clock.Twelve))
}

func TestRunLoopAlarmRingsAndButtonSilences(t *testing.T) {
	cfg := clock.DefaultConfig()
	cfg.Time = clock.NewTimeValue(6, 59, false)
	cfg.Alarm = clock.NewTimeValue(7, 0, false)
	cfg.TicksPerMinute = 1

	h := newHarness(cfg, nil, 0, fakeClock(t0, time.Second))
	h.clockTick <- time.Time{}
	h.press(t, ir.ButtonSilence)
	h.stop(t, syscall.SIGTERM)

	require.Equal(t, []clock.EventType{clock.EventAlarmRinging, clock.EventAlarmSilenced}, h.pub.EventTypes())
	assert.Equal(t, clock.ReasonButton, h.pub.Events[1].Reason)
	assert.False(t, h.out.Ringing())
	starts, stops := h.out.Counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestRunLoopMotionSilences(t *testing.T) {
	cfg := clock.DefaultConfig()
	cfg.Time = clock.NewTimeValue(6, 59, false)
	cfg.Alarm = clock.NewTimeValue(7, 0, false)
	cfg.TicksPerMinute = 1
	sensor := motion.NewFakeSensor(false, false, true)

	h := newHarness(cfg, sensor, 0, fakeClock(t0, time.Second))
	h.poll <- time.Time{}
	h.clockTick <- time.Time{}
	h.poll <- time.Time{}
	h.poll <- time.Time{}
	h.stop(t, syscall.SIGTERM)

	assert.Equal(t, 3, sensor.Calls())
	require.Equal(t, []clock.EventType{clock.EventAlarmRinging, clock.EventAlarmSilenced}, h.pub.EventTypes())
	assert.Equal(t, clock.ReasonMotion, h.pub.Events[1].Reason)
	assert.False(t, h.out.Ringing())
}

func TestRunLoopMotionReadEveryPoll(t *testing.T) {
	sensor := motion.NewFakeSensor(true, true, false)
	h := newHarness(clock.DefaultConfig(), sensor, 0, fakeClock(t0, time.Second))
	for i := 0; i < 4; i++ {
		h.poll <- time.Time{}
	}
	h.stop(t, syscall.SIGTERM)

	// Shaking the clock while it is not ringing is read but has no effect.
	assert.Equal(t, 4, sensor.Calls())
	assert.Empty(t, h.pub.Events)
	assert.Equal(t, clock.ModeShowTime, h.tracker.Snapshot().Clock.Mode)
}

func TestRunLoopMotionErrorKeepsRinging(t *testing.T) {
	cfg := clock.DefaultConfig()
	cfg.Time = clock.NewTimeValue(6, 59, false)
	cfg.Alarm = clock.NewTimeValue(7, 0, false)
	cfg.TicksPerMinute = 1
	sensor := motion.NewFakeSensor()
	sensor.Err = errors.New("i2c nack")

	h := newHarness(cfg, sensor, 0, fakeClock(t0, time.Second))
	h.clockTick <- time.Time{}
	h.poll <- time.Time{}
	h.stop(t, syscall.SIGTERM)

	assert.Equal(t, []clock.EventType{clock.EventAlarmRinging}, h.pub.EventTypes())
	assert.True(t, h.out.Ringing())
}

func TestRunLoopCorruptFrame(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	// DIGIT_2 with a bad complement byte.
	h.frame(ir.EncodeFrame(0x00FF1819, ir.DefaultTiming()))
	h.stop(t, syscall.SIGTERM)

	assert.Empty(t, h.pub.Events)
	require.Len(t, h.pub.Buttons, 1)
	assert.Equal(t, ir.ButtonCommError, h.pub.Buttons[0].Button)

	snap := h.tracker.Snapshot()
	assert.Equal(t, 1, snap.Decoder.CommErrors)
	assert.Equal(t, clock.ModeShowTime, snap.Clock.Mode)
}

func TestRunLoopUnknownButton(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	h.frame(ir.Encode(0x00, 0x01, ir.DefaultTiming()))
	h.stop(t, syscall.SIGTERM)

	assert.Empty(t, h.pub.Events)
	require.Len(t, h.pub.Buttons, 1)
	assert.Equal(t, ir.ButtonUnknown, h.pub.Buttons[0].Button)
	assert.Equal(t, 1, h.tracker.Snapshot().Decoder.Unknown)
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, 0, fakeClock(t0, time.Second))
	h.pub.PublishError = errors.New("broker gone")
	h.press(t, ir.ButtonMode)
	h.stop(t, syscall.SIGTERM)

	assert.Empty(t, h.pub.Events)
	assert.Equal(t, clock.ModeSetTime, h.tracker.Snapshot().Clock.Mode)
}

func TestRunLoopHeartbeat(t *testing.T) {
	h := newHarness(clock.DefaultConfig(), nil, time.Minute, fakeClock(t0, 30*time.Second))
	for i := 0; i < 4; i++ {
		h.poll <- time.Time{}
	}
	h.stop(t, syscall.SIGTERM)

	var names []string
	for _, ev := range h.pub.SystemEvents {
		names = append(names, ev.Event)
	}
	assert.Equal(t, []string{"HEARTBEAT", "HEARTBEAT", "SHUTDOWN"}, names)
	assert.False(t, h.pub.SystemEvents[0].Retained)
	assert.Contains(t, string(h.pub.SystemEvents[0].RawPayload), `"event":"HEARTBEAT"`)
}

func TestRunLoopClockTicksOnlyInShowTime(t *testing.T) {
	cfg := clock.DefaultConfig()
	cfg.TicksPerMinute = 1
	h := newHarness(cfg, nil, 0, fakeClock(t0, time.Second))

	h.clockTick <- time.Time{}
	h.press(t, ir.ButtonMode)
	h.clockTick <- time.Time{}
	h.clockTick <- time.Time{}
	h.stop(t, syscall.SIGTERM)

	snap := h.tracker.Snapshot()
	assert.Equal(t, "12:01 AM", snap.Clock.Current.Format(clock.Twelve))
	assert.Equal(t, clock.ModeSetTime, snap.Clock.Mode)
}

func TestRunLoopCatchesUpDroppedClockTicks(t *testing.T) {
	cfg := clock.DefaultConfig()
	cfg.TicksPerMinute = 1
	h := newHarness(cfg, nil, 0, fakeClock(t0, time.Second), func(l *loop) {
		l.tickPeriod = 4 * time.Second
	})

	h.clockTick <- t0
	h.clockTick <- t0.Add(4 * time.Second)
	// Two ticks dropped while the loop was blocked.
	h.clockTick <- t0.Add(16 * time.Second)
	// Jitter around one period still counts once.
	h.clockTick <- t0.Add(20*time.Second - 3*time.Millisecond)
	h.clockTick <- t0.Add(24*time.Second + 5*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	assert.Equal(t, "12:07 AM", h.tracker.Snapshot().Clock.Current.Format(clock.Twelve))
}

// slowPublisher holds up the loop on every button publish, like a broker
// that stops acknowledging.
type slowPublisher struct {
	*mqtt.FakePublisher
	delay time.Duration
}

func (p slowPublisher) PublishButton(at time.Time, ev ir.Event) error {
	time.Sleep(p.delay)
	return p.FakePublisher.PublishButton(at, ev)
}

func TestRunLoopSlowPublisherKeepsTime(t *testing.T) {
	const period = 10 * time.Millisecond
	cfg := clock.DefaultConfig()
	cfg.TicksPerMinute = 1
	cfg.Alarm = clock.NewTimeValue(6, 0, false)
	h := newHarness(cfg, nil, 0, fakeClock(t0, time.Second), func(l *loop) {
		l.tickPeriod = period
		l.publisher = slowPublisher{FakePublisher: l.publisher.(*mqtt.FakePublisher), delay: 15 * period}
	})

	// Forward a real ticker the way run does; it drops ticks while the
	// loop is stuck in a publish.
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	done := make(chan struct{})
	forwarded := make(chan struct{})
	var first, last time.Time
	go func() {
		defer close(forwarded)
		for {
			select {
			case <-done:
				return
			case tk := <-ticker.C:
				select {
				case h.clockTick <- tk:
					if first.IsZero() {
						first = tk
					}
					last = tk
				case <-done:
					return
				}
			}
		}
	}()

	time.Sleep(3 * period)
	h.press(t, ir.ButtonAlarmToggle)
	time.Sleep(25 * period)
	close(done)
	<-forwarded
	h.stop(t, syscall.SIGTERM)

	require.False(t, first.IsZero())
	want := 1 + int((last.Sub(first)+period/2)/period)
	cur := h.tracker.Snapshot().Clock.Current
	got := (cur.Hour()%12)*60 + cur.Minute()
	assert.InDelta(t, want, got, 2, "ticks from %s to %s", first.Format(time.StampMicro), last.Format(time.StampMicro))
	assert.Equal(t, []clock.EventType{clock.EventAlarmDisarmed}, h.pub.EventTypes())
}

func TestSampleLoopFeedsDecoder(t *testing.T) {
	timing := ir.DefaultTiming()
	cmd, _ := ir.CommandFor(ir.ButtonSilence)
	samples := ir.Encode(0x00, cmd, timing)

	reader := gpio.NewFakeReader(samples)
	dec := ir.NewDecoder(timing)
	tracker := status.NewTracker(t0, status.Config{})
	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sampleLoop(ctx, reader, dec, tracker, ir.TickPeriod, tick)
		close(done)
	}()

	at := t0
	for range samples {
		tick <- at
		at = at.Add(ir.TickPeriod)
	}
	cancel()
	<-done

	ev, ok := dec.Poll()
	require.True(t, ok)
	assert.Equal(t, ir.ButtonSilence, ev.Button)
}

func TestSampleLoopRecordsAbortedFrame(t *testing.T) {
	timing := ir.DefaultTiming()
	cmd, _ := ir.CommandFor(ir.ButtonMode)
	frame := ir.Encode(0x00, cmd, timing)
	// Cut the frame off after the leader and hold the line in space.
	leader := timing.LeadOut + 1 + 2*timing.Space + timing.Space
	samples := append([]bool{}, frame[:leader+4]...)
	for i := 0; i < timing.EndOfMessage+2; i++ {
		samples = append(samples, false)
	}

	reader := gpio.NewFakeReader(samples)
	dec := ir.NewDecoder(timing)
	tracker := status.NewTracker(t0, status.Config{})
	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sampleLoop(ctx, reader, dec, tracker, ir.TickPeriod, tick)
		close(done)
	}()
	for range samples {
		tick <- t0
	}
	cancel()
	<-done

	_, ok := dec.Poll()
	assert.False(t, ok)
	assert.Equal(t, 1, tracker.Snapshot().Decoder.Truncated)
}

func TestSampleLoopReadError(t *testing.T) {
	reader := gpio.NewFakeReader(nil)
	reader.ReadError = errors.New("line gone")
	dec := ir.NewDecoder(ir.DefaultTiming())
	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sampleLoop(ctx, reader, dec, status.NewTracker(t0, status.Config{}), ir.TickPeriod, tick)
		close(done)
	}()
	tick <- t0
	tick <- t0.Add(10 * ir.TickPeriod)
	cancel()
	<-done

	assert.Equal(t, ir.PhaseAwaitingLeadOut, dec.Phase())
}

func TestSimulate(t *testing.T) {
	var stderr bytes.Buffer
	cfg, err := config.Load([]string{"-simulate", "mode,digit_0,digit_7,digit_0,digit_0,mode,mode"}, &stderr)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, simulate(cfg, &out))

	s := out.String()
	assert.Contains(t, s, "MODE_CHANGED SHOW_TIME -> SET_TIME")
	assert.Contains(t, s, "TIME_SET 07:00 AM")
	assert.Contains(t, s, "MODE_CHANGED SET_ALARM -> SHOW_TIME")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	assert.Equal(t, "mode=SHOW_TIME time=07:00 AM alarm=12:10 AM armed=true display=07:00 AM", lines[len(lines)-1])
	// DIGIT_0 on its own line produces no transition.
	assert.Contains(t, s, "DIGIT_0     -")
}

func TestDescribe(t *testing.T) {
	ev := clock.Event{
		Type:     clock.EventAlarmSilenced,
		Mode:     clock.ModeShowTime,
		Time:     clock.NewTimeValue(7, 0, false),
		HourMode: clock.Twelve,
		Reason:   clock.ReasonMotion,
	}
	assert.Equal(t, "ALARM_SILENCED 07:00 AM (MOTION)", describe(ev))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "MARK", levelString(true))
	assert.Equal(t, "SPACE", levelString(false))
}
